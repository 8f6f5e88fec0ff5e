// Package cli implements the wmscap command-line interface.
//
// Commands fetch WMS GetCapabilities documents through the configured
// proxies, convert them to JSON, list layer time dimensions, manage the
// login session used for authenticated requests, and run the OGC proxy
// server.
//
// # Commands
//
//   - fetch: Request capabilities documents
//   - parse: Convert a capabilities XML document to JSON
//   - dimensions: List the time dimension values of a layer
//   - token: Access-token helpers for URLs
//   - auth: Manage the stored bearer token
//   - cache: Manage the document cache
//   - serve: Run the OGC proxy server
//
// All commands support --verbose (-v) for debug-level logging and --config
// to select a TOML config file.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/terrabrasilis/wmscap/pkg/auth"
	"github.com/terrabrasilis/wmscap/pkg/buildinfo"
	"github.com/terrabrasilis/wmscap/pkg/cache"
	"github.com/terrabrasilis/wmscap/pkg/capabilities"
	"github.com/terrabrasilis/wmscap/pkg/config"
	"github.com/terrabrasilis/wmscap/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "wmscap"

	// defaultConcurrency is the number of parallel requests made by fetch.
	defaultConcurrency = 4
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "wmscap reads WMS GetCapabilities documents",
		Long:         `wmscap fetches WMS 1.3.0 GetCapabilities documents through an OGC proxy or an authenticated proxy, converts them to JSON and extracts layer time dimensions.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			if c.Logger.GetLevel() <= LogDebug {
				hooks := observability.NewLogHooks(c.Logger)
				observability.SetFetchHooks(hooks)
				observability.SetCacheHooks(hooks)
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.parseCommand())
	root.AddCommand(c.dimensionsCommand())
	root.AddCommand(c.tokenCommand())
	root.AddCommand(c.authCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Factories
// =============================================================================

func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("config loaded", "direct", cfg.Direct, "proxy_ogc", cfg.ProxyOGC)
	return cfg, nil
}

// newClient creates a capabilities client for cfg. A configured static
// token wins over a stored login session.
func (c *CLI) newClient(cfg *config.Config, authn auth.Authenticator) (*capabilities.Client, error) {
	opts, err := capabilities.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts.Logger = c.Logger
	return capabilities.NewClient(authn, opts), nil
}

func (c *CLI) newAuthenticator(cfg *config.Config) auth.Authenticator {
	if cfg.Token != "" {
		c.Logger.Debug("using static token from config")
		return auth.Static(cfg.Token)
	}
	authn, err := newSessionAuthenticator()
	if err != nil {
		c.Logger.Warn("session store unavailable", "err", err)
		return auth.Anonymous{}
	}
	return authn
}

func newSessionAuthenticator() (*auth.SessionAuthenticator, error) {
	dir, err := sessionDir()
	if err != nil {
		return nil, err
	}
	store, err := auth.NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return auth.NewSessionAuthenticator(store), nil
}

func newCache(enabled bool) (cache.Cache, error) {
	if !enabled {
		return cache.NewNullCache(), nil
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// sessionDir returns the session directory using XDG standard
// (~/.config/wmscap/sessions/).
func sessionDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "sessions"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "sessions"), nil
}
