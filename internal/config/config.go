package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides, e.g. SOAK_BACKEND_URL.
const envPrefix = "SOAK"

// Config is the full console configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Poll      PollConfig      `mapstructure:"poll"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	DB        DBConfig        `mapstructure:"db"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// BackendConfig points at the controller API.
type BackendConfig struct {
	URL      string        `mapstructure:"url"`
	AdminKey string        `mapstructure:"admin_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type PollConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	HistoryLimit int           `mapstructure:"history_limit"`
}

type ReconcileConfig struct {
	Window          time.Duration `mapstructure:"window"`
	DispatchTimeout time.Duration `mapstructure:"dispatch_timeout"`
	EditIdle        time.Duration `mapstructure:"edit_idle"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TelemetryConfig struct {
	TraceStdout bool `mapstructure:"trace_stdout"`
}

var defaults = map[string]any{
	"server.port":                "8080",
	"backend.url":                "http://localhost:8000/api",
	"backend.admin_key":          "",
	"backend.timeout":            5 * time.Second,
	"poll.interval":              2 * time.Second,
	"poll.history_limit":         60,
	"reconcile.window":           4 * time.Second,
	"reconcile.dispatch_timeout": 10 * time.Second,
	"reconcile.edit_idle":        60 * time.Second,
	"db.path":                    "console.db",
	"auth.signing_key":           "",
	"auth.token_ttl":             time.Hour,
	"log.level":                  "info",
	"log.format":                 "console",
	"telemetry.trace_stdout":     false,
}

// Load reads configs/config.yml (or the explicit path) and applies SOAK_* env overrides.
// A missing default config file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs") // configs/config.yml
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks ranges and normalizes enum-like fields.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.url must be an absolute URL, got %q", c.Backend.URL)
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("backend.timeout must be positive")
	}
	if c.Poll.Interval < 100*time.Millisecond {
		return fmt.Errorf("poll.interval must be at least 100ms, got %s", c.Poll.Interval)
	}
	if c.Poll.HistoryLimit < 1 {
		return errors.New("poll.history_limit must be at least 1")
	}
	if c.Reconcile.Window <= 0 {
		return errors.New("reconcile.window must be positive")
	}
	if c.Reconcile.DispatchTimeout <= 0 {
		return errors.New("reconcile.dispatch_timeout must be positive")
	}
	if c.Reconcile.EditIdle <= 0 {
		return errors.New("reconcile.edit_idle must be positive")
	}
	if strings.TrimSpace(c.Auth.SigningKey) == "" {
		return errors.New("auth.signing_key is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}

	c.Log.Format = strings.ToLower(c.Log.Format)
	switch c.Log.Format {
	case "console", "json", "logfmt":
	default:
		return fmt.Errorf("log.format must be 'console', 'json' or 'logfmt', got %q", c.Log.Format)
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error, got %q", c.Log.Level)
	}
	return nil
}
