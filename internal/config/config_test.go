package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/albapepper/sportsmeta/internal/provider/sportsdb"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SPORTSDB_API_KEY", "THESPORTSDB_API_KEY", "SPORTSDB_API_VERSION",
		"SPORTSDB_SITE_ROOT", "SPORTSDB_BASE_URL",
		"SPORTSMETA_REQUEST_INTERVAL", "SPORTSMETA_MAX_RETRIES", "SPORTSMETA_RETRY_BACKOFF",
		"SPORTSMETA_TIMEOUT", "SPORTSMETA_ASSET_URL_BASE", "SPORTSMETA_ASSETS_ROOT",
		"SPORTSMETA_OUTPUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	if cfg.APIKey != sportsdb.DefaultAPIKey {
		t.Fatalf("APIKey = %q, want free key", cfg.APIKey)
	}
	if sportsdb.NormalizeAPIVersion(cfg.APIVersion) != "v1" {
		t.Fatalf("version = %q", sportsdb.NormalizeAPIVersion(cfg.APIVersion))
	}
	if cfg.RequestInterval != 0 || cfg.MaxRetries != DefaultMaxRetries || cfg.Timeout != DefaultTimeout {
		t.Fatalf("unexpected client defaults: %+v", cfg)
	}
	if cfg.StartRound != 1 || cfg.StopRound != 60 {
		t.Fatalf("round range = [%d,%d]", cfg.StartRound, cfg.StopRound)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("THESPORTSDB_API_KEY", "fallback")
	t.Setenv("SPORTSDB_API_VERSION", "2")
	t.Setenv("SPORTSDB_BASE_URL", "http://localhost:9999")
	t.Setenv("SPORTSMETA_REQUEST_INTERVAL", "2.5")
	t.Setenv("SPORTSMETA_RETRY_BACKOFF", "750ms")
	t.Setenv("SPORTSMETA_MAX_RETRIES", "not-a-number")

	cfg := Load()
	if cfg.APIKey != "fallback" {
		t.Fatalf("APIKey = %q", cfg.APIKey)
	}
	if sportsdb.NormalizeAPIVersion(cfg.APIVersion) != "v2" {
		t.Fatalf("version = %q", sportsdb.NormalizeAPIVersion(cfg.APIVersion))
	}
	if cfg.SiteRoot != "http://localhost:9999" {
		t.Fatalf("SiteRoot = %q", cfg.SiteRoot)
	}
	if cfg.RequestInterval != 2500*time.Millisecond {
		t.Fatalf("RequestInterval = %s", cfg.RequestInterval)
	}
	if cfg.RetryBackoff != 750*time.Millisecond {
		t.Fatalf("RetryBackoff = %s", cfg.RetryBackoff)
	}
	if cfg.MaxRetries != DefaultMaxRetries {
		t.Fatalf("bad integer must fall back, got %d", cfg.MaxRetries)
	}

	t.Setenv("SPORTSDB_API_KEY", "primary")
	if got := Load().APIKey; got != "primary" {
		t.Fatalf("SPORTSDB_API_KEY must win, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		clearEnv(t)
		cfg := Load()
		cfg.Output = "metadata/formula1.yml"
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"whitespace key", func(c *Config) { c.APIKey = "ab cd" }, "whitespace"},
		{"bad version", func(c *Config) { c.APIVersion = "v3" }, "v1 or v2"},
		{"reversed range", func(c *Config) { c.StartRound, c.StopRound = 5, 2 }, "before start round"},
		{"zero start", func(c *Config) { c.StartRound = 0 }, "start round 0"},
		{"no output", func(c *Config) { c.Output = " " }, "output path"},
		{"no workers", func(c *Config) { c.AssetWorkers = 0 }, "asset workers"},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, "max retries"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"2.1", 2100 * time.Millisecond},
		{"0", 0},
		{" 45 ", 45 * time.Second},
		{"1500ms", 1500 * time.Millisecond},
		{"1m30s", 90 * time.Second},
	}
	for _, tc := range tests {
		got, err := ParseSeconds(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("ParseSeconds(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
	if _, err := ParseSeconds("soon"); err == nil {
		t.Error("expected an error for a non-duration")
	}
}
