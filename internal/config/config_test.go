package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.GRPCAddr != ":9090" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":9090")
	}
	if cfg.DatabaseURL != "sqlite://data/accounts.db" {
		t.Errorf("DatabaseURL = %q, want sqlite default", cfg.DatabaseURL)
	}
	if cfg.DataDir != "data" {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, "data")
	}
	if cfg.LoginURL != DefaultLoginURL {
		t.Errorf("LoginURL = %q, want default", cfg.LoginURL)
	}
	if cfg.APITokenIssuer != "account-console" {
		t.Errorf("APITokenIssuer = %q, want %q", cfg.APITokenIssuer, "account-console")
	}
	if cfg.KafkaBrokers != "" || cfg.KafkaTopic != "login-events" {
		t.Errorf("Kafka = %q/%q, want disabled with topic login-events", cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	if cfg.BrowserHeadless {
		t.Error("BrowserHeadless should default to false")
	}
	if cfg.SeedDemo() {
		t.Error("SeedDemo should default to false")
	}
	if cfg.AuthEnabled() {
		t.Error("AuthEnabled should default to false")
	}
	if cfg.PollIntervalDuration() != 3*time.Second {
		t.Errorf("PollIntervalDuration = %v, want 3s", cfg.PollIntervalDuration())
	}
	if cfg.ReloadDelayDuration() != 800*time.Millisecond {
		t.Errorf("ReloadDelayDuration = %v, want 800ms", cfg.ReloadDelayDuration())
	}
	if cfg.LoginTimeoutDuration() != 15*time.Minute {
		t.Errorf("LoginTimeoutDuration = %v, want 15m", cfg.LoginTimeoutDuration())
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9999")
	os.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/accounts")
	os.Setenv("BROWSER_HEADLESS", "true")
	os.Setenv("POLL_INTERVAL", "500ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9999")
	}
	if cfg.DatabaseURL != "postgres://u:p@localhost:5432/accounts" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if !cfg.BrowserHeadless {
		t.Error("BrowserHeadless should be true")
	}
	if cfg.PollIntervalDuration() != 500*time.Millisecond {
		t.Errorf("PollIntervalDuration = %v, want 500ms", cfg.PollIntervalDuration())
	}
}

func TestLoad_SeedDemoValues(t *testing.T) {
	testCases := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"yes", true},
		{" Yes ", true},
		{"0", false},
		{"no", false},
		{"", false},
	}
	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("SEED_DEMO_DATA", tc.value)
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.SeedDemo() != tc.want {
				t.Errorf("SeedDemo() = %v, want %v", cfg.SeedDemo(), tc.want)
			}
		})
	}
}

func TestLoad_InvalidLoginURL(t *testing.T) {
	os.Clearenv()
	os.Setenv("LOGIN_URL", "ftp://example.com")

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load should reject a non-http LOGIN_URL")
	}
	if cfg != nil {
		t.Error("Load should return nil config on error")
	}
}

func TestLoad_ShortTokenSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("API_TOKEN_SECRET", "short")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject a short API_TOKEN_SECRET")
	}

	os.Setenv("API_TOKEN_SECRET", "0123456789abcdef")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("AuthEnabled should be true with a secret")
	}
}

func TestLoad_HeadlessInProduction(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "production")
	os.Setenv("BROWSER_HEADLESS", "true")

	_, err := Load()
	if err == nil {
		t.Fatal("Load should return error when BROWSER_HEADLESS=true and APP_ENV=production")
	}
	if err.Error() != "config: BROWSER_HEADLESS must not be true when APP_ENV=production" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestDurations_InvalidFallBackToDefaults(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
		get   func(*Config) time.Duration
		want  time.Duration
	}{
		{"poll invalid", "POLL_INTERVAL", "soon", (*Config).PollIntervalDuration, 3 * time.Second},
		{"poll zero", "POLL_INTERVAL", "0", (*Config).PollIntervalDuration, 3 * time.Second},
		{"reload negative", "RELOAD_DELAY", "-1s", (*Config).ReloadDelayDuration, 800 * time.Millisecond},
		{"timeout invalid", "LOGIN_TIMEOUT", "forever", (*Config).LoginTimeoutDuration, 15 * time.Minute},
		{"timeout valid", "LOGIN_TIMEOUT", "2m", (*Config).LoginTimeoutDuration, 2 * time.Minute},
		{"token ttl valid", "API_TOKEN_TTL", "1h", (*Config).TokenTTL, time.Hour},
		{"token ttl invalid", "API_TOKEN_TTL", "x", (*Config).TokenTTL, 24 * time.Hour},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv(tc.key, tc.value)
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got := tc.get(cfg); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}
