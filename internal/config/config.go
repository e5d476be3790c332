// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the JSON API listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address of the gRPC health server. Empty disables it.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL selects the store: postgres:// or postgresql:// use pgx, sqlite:// or a bare path use SQLite.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// DataDir holds browser profiles (profiles/account_<id>) and the default SQLite file.
	DataDir string `mapstructure:"DATA_DIR"`
	// LoginURL is the page opened in the browser session.
	LoginURL string `mapstructure:"LOGIN_URL"`
	// LoginTimeout bounds a single browser login session (e.g. "15m").
	LoginTimeout string `mapstructure:"LOGIN_TIMEOUT"`
	// BrowserHeadless runs Chrome without a window. Only useful for smoke tests; the login needs a human.
	BrowserHeadless bool `mapstructure:"BROWSER_HEADLESS"`
	// SeedDemoData inserts two demo accounts and messages on startup when the tables are empty.
	// Accepts 1, true or yes.
	SeedDemoData string `mapstructure:"SEED_DEMO_DATA"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is the zap level name (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// APITokenSecret enables bearer-token auth on /api/* when non-empty (HS256 shared secret).
	APITokenSecret string `mapstructure:"API_TOKEN_SECRET"`
	// APITokenIssuer is the iss claim issued and required on API tokens.
	APITokenIssuer string `mapstructure:"API_TOKEN_ISSUER"`
	// APITokenTTL is the lifetime of tokens minted by accountctl (e.g. "24h").
	APITokenTTL string `mapstructure:"API_TOKEN_TTL"`

	// OTLPEndpoint is the OpenTelemetry collector (host:port or URL). Empty uses no-op providers.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext gRPC to the collector even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// LokiURL, when set, additionally pushes login job events to Grafana Loki (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaBrokers, when set, additionally publishes login job events to Kafka (comma-separated host:port).
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// KafkaTopic is the topic login job events are written to.
	KafkaTopic string `mapstructure:"KAFKA_TOPIC"`

	// Client side (accountctl).
	// APIBaseURL is the server the CLI talks to.
	APIBaseURL string `mapstructure:"API_BASE_URL"`
	// APIToken is sent as bearer token by the CLI.
	APIToken string `mapstructure:"API_TOKEN"`
	// PollInterval is the job status poll period (e.g. "3s").
	PollInterval string `mapstructure:"POLL_INTERVAL"`
	// ReloadDelay is the delay between a completed job and the reload (e.g. "800ms").
	ReloadDelay string `mapstructure:"RELOAD_DELAY"`
}

// DefaultLoginURL is the in-app login page of the marketplace.
const DefaultLoginURL = "https://www.kleinanzeigen.de/m-benutzer-anmeldung-inapp.html?appType=MWEB"

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GRPC_ADDR", ":9090")
	v.SetDefault("DATABASE_URL", "sqlite://data/accounts.db")
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("LOGIN_URL", DefaultLoginURL)
	v.SetDefault("LOGIN_TIMEOUT", "15m")
	v.SetDefault("BROWSER_HEADLESS", false)
	v.SetDefault("SEED_DEMO_DATA", "")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("API_TOKEN_SECRET", "")
	v.SetDefault("API_TOKEN_ISSUER", "account-console")
	v.SetDefault("API_TOKEN_TTL", "24h")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "login-events")
	v.SetDefault("API_BASE_URL", "http://localhost:8080")
	v.SetDefault("API_TOKEN", "")
	v.SetDefault("POLL_INTERVAL", "3s")
	v.SetDefault("RELOAD_DELAY", "800ms")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, errors.New("config: DATABASE_URL must be set")
	}
	if !strings.HasPrefix(cfg.LoginURL, "http://") && !strings.HasPrefix(cfg.LoginURL, "https://") {
		return nil, errors.New("config: LOGIN_URL must be an http(s) URL")
	}
	if cfg.APITokenSecret != "" && len(cfg.APITokenSecret) < 16 {
		return nil, errors.New("config: API_TOKEN_SECRET must be at least 16 characters")
	}
	if cfg.Env == "production" && cfg.BrowserHeadless {
		return nil, errors.New("config: BROWSER_HEADLESS must not be true when APP_ENV=production")
	}

	return &cfg, nil
}

// LoginTimeoutDuration parses LoginTimeout. Returns 15m if unset or invalid.
func (c *Config) LoginTimeoutDuration() time.Duration {
	return parseDuration(c.LoginTimeout, 15*time.Minute)
}

// TokenTTL parses APITokenTTL. Returns 24h if unset or invalid.
func (c *Config) TokenTTL() time.Duration {
	return parseDuration(c.APITokenTTL, 24*time.Hour)
}

// PollIntervalDuration parses PollInterval. Returns 3s if unset or invalid.
func (c *Config) PollIntervalDuration() time.Duration {
	return parseDuration(c.PollInterval, 3*time.Second)
}

// ReloadDelayDuration parses ReloadDelay. Returns 800ms if unset or invalid.
func (c *Config) ReloadDelayDuration() time.Duration {
	return parseDuration(c.ReloadDelay, 800*time.Millisecond)
}

// SeedDemo reports whether SEED_DEMO_DATA is 1, true or yes (case-insensitive).
func (c *Config) SeedDemo() bool {
	switch strings.ToLower(strings.TrimSpace(c.SeedDemoData)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// AuthEnabled reports whether /api/* requires a bearer token.
func (c *Config) AuthEnabled() bool {
	return c != nil && c.APITokenSecret != ""
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
