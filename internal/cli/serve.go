package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terrabrasilis/wmscap/pkg/cache"
	"github.com/terrabrasilis/wmscap/pkg/config"
	"github.com/terrabrasilis/wmscap/pkg/proxy"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		listen   string
		useCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the OGC proxy server",
		Long: `Serve the generic OGC proxy (/ogc-proxy/?url=) and the JSON API
(/api/capabilities, /api/dimensions) until interrupted.

Upstream documents are cached in Redis when redis_addr is configured, in the
local file cache with --cache, and not at all otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			store, err := serverCache(ctx, cfg, useCache)
			if err != nil {
				return err
			}
			defer store.Close()

			srv := proxy.New(proxy.Options{
				Timeout:      cfg.Timeout.Std(),
				Cache:        store,
				CacheTTL:     cfg.CacheTTL.Std(),
				AllowedHosts: cfg.AllowedHosts,
				Logger:       c.Logger,
			})

			printInfo("Serving on %s", StyleLink.Render(cfg.Listen))
			if len(cfg.AllowedHosts) > 0 {
				printDetail("Allowed hosts: %v", cfg.AllowedHosts)
			}
			return srv.ListenAndServe(ctx, cfg.Listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&useCache, "cache", false, "cache upstream documents on disk when Redis is not configured")

	return cmd
}

func serverCache(ctx context.Context, cfg *config.Config, useFile bool) (cache.Cache, error) {
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		loggerFromContext(ctx).Info("using redis cache", "addr", cfg.RedisAddr)
		return rc, nil
	}
	return newCache(useFile)
}
