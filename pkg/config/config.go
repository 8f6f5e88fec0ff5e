// Package config loads wmscap settings.
//
// Settings are layered, later sources overriding earlier ones:
//
//  1. Built-in defaults ([Default])
//  2. A TOML file (--config, or ~/.config/wmscap/config.toml when present)
//  3. A .env file in the working directory, if any
//  4. WMSCAP_* environment variables
//
// Example config.toml:
//
//	proxy_ogc = "https://maps.example.org/ogc-proxy/?url="
//	authentication_proxy_host = "/oauth-api/proxy?url="
//	base_url = "https://maps.example.org/app/"
//	timeout = "30s"
//
// A loaded Config is read-only and safe to share between goroutines.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/terrabrasilis/wmscap/pkg/errors"
)

// Environment variables read by [Load].
const (
	EnvProxyOGC     = "WMSCAP_PROXY_OGC"
	EnvAuthProxy    = "WMSCAP_AUTHENTICATION_PROXY_HOST"
	EnvBaseURL      = "WMSCAP_BASE_URL"
	EnvDirect       = "WMSCAP_DIRECT"
	EnvTimeout      = "WMSCAP_TIMEOUT"
	EnvCacheTTL     = "WMSCAP_CACHE_TTL"
	EnvRedisAddr    = "WMSCAP_REDIS_ADDR"
	EnvListen       = "WMSCAP_LISTEN"
	EnvAllowedHosts = "WMSCAP_ALLOWED_HOSTS"
	EnvToken        = "WMSCAP_TOKEN"
)

// Config holds the proxy and authentication settings of the capabilities
// client plus the settings of the CLI cache and the proxy server.
type Config struct {
	// ProxyOGC is prefixed to the percent-encoded target URL for
	// unauthenticated requests, e.g. "https://host/ogc-proxy/?url=".
	ProxyOGC string `toml:"proxy_ogc"`

	// AuthenticationProxyHost is resolved against BaseURL and prefixed to
	// the raw target URL for authenticated requests.
	AuthenticationProxyHost string `toml:"authentication_proxy_host"`

	// BaseURL is the application base URL; must be absolute when set.
	BaseURL string `toml:"base_url" validate:"omitempty,url"`

	// Direct skips the generic OGC proxy for unauthenticated requests.
	Direct bool `toml:"direct"`

	// Timeout bounds each capabilities request. Zero means no timeout.
	Timeout Duration `toml:"timeout" validate:"gte=0"`

	// CacheTTL is the lifetime of cached documents in the CLI and proxy.
	CacheTTL Duration `toml:"cache_ttl" validate:"gte=0"`

	// RedisAddr selects the Redis cache backend for the proxy server.
	RedisAddr string `toml:"redis_addr" validate:"omitempty,hostname_port"`

	// Listen is the proxy server address.
	Listen string `toml:"listen" validate:"required"`

	// AllowedHosts restricts the proxy's upstream hosts. Empty allows all.
	AllowedHosts []string `toml:"allowed_hosts"`

	// Token is a static bearer token; when set it takes precedence over a
	// stored login session.
	Token string `toml:"token"`
}

// Duration is a time.Duration that decodes from TOML strings like "30s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		CacheTTL: Duration(time.Hour),
		Listen:   ":8080",
	}
}

var validate = validator.New()

// Load builds a Config from defaults, the TOML file at path, .env and the
// environment. An empty path uses [DefaultPath] if that file exists; an
// explicit path that does not exist is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if explicit || !os.IsNotExist(err) {
				return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read .env")
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath returns ~/.config/wmscap/config.toml, or "" when the home
// directory is unknown. XDG_CONFIG_HOME is honoured.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "wmscap", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "wmscap", "config.toml")
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvProxyOGC); ok {
		c.ProxyOGC = v
	}
	if v, ok := os.LookupEnv(EnvAuthProxy); ok {
		c.AuthenticationProxyHost = v
	}
	if v, ok := os.LookupEnv(EnvBaseURL); ok {
		c.BaseURL = v
	}
	if v, ok := os.LookupEnv(EnvRedisAddr); ok {
		c.RedisAddr = v
	}
	if v, ok := os.LookupEnv(EnvListen); ok {
		c.Listen = v
	}
	if v, ok := os.LookupEnv(EnvToken); ok {
		c.Token = v
	}
	if v, ok := os.LookupEnv(EnvAllowedHosts); ok {
		c.AllowedHosts = splitList(v)
	}
	if v, ok := os.LookupEnv(EnvDirect); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", EnvDirect)
		}
		c.Direct = b
	}
	for env, dst := range map[string]*Duration{EnvTimeout: &c.Timeout, EnvCacheTTL: &c.CacheTTL} {
		if v, ok := os.LookupEnv(env); ok {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", env)
			}
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks field constraints and that the authenticated proxy URL can
// be resolved.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid configuration")
	}
	if _, err := c.AuthProxyURL(); err != nil {
		return err
	}
	return nil
}

// AuthProxyURL resolves AuthenticationProxyHost against BaseURL the way a
// browser resolves a relative link. Returns "" when no authentication proxy
// is configured. An absolute AuthenticationProxyHost is returned as is.
func (c *Config) AuthProxyURL() (string, error) {
	if c.AuthenticationProxyHost == "" {
		return "", nil
	}
	ref, err := url.Parse(c.AuthenticationProxyHost)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse authentication proxy host")
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	if c.BaseURL == "" {
		return "", errors.New(errors.ErrCodeInvalidConfig,
			"relative authentication proxy host %q requires base_url", c.AuthenticationProxyHost)
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse base URL")
	}
	return base.ResolveReference(ref).String(), nil
}

// String renders the configuration as TOML, with the token masked.
func (c *Config) String() string {
	masked := *c
	if masked.Token != "" {
		masked.Token = "********"
	}
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(masked); err != nil {
		return fmt.Sprintf("%+v", masked)
	}
	return b.String()
}
