package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// loadFromJSON resets viper's global state and loads a config file with the
// given contents. Tests stay sequential because viper is a package singleton.
func loadFromJSON(t *testing.T, contents string) (*Config, error) {
	t.Helper()
	viper.Reset()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_HOST", "")
	t.Setenv("REDIS_HOST", "")

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return LoadConfig(path)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadFromJSON(t, `{}`)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.LLM.Provider != "openai" {
		t.Fatalf("llm.provider = %q, want openai", cfg.LLM.Provider)
	}
	if cfg.Fetch.Mode != "http" || cfg.Fetch.Timeout != 30*time.Second {
		t.Fatalf("fetch = %q/%v, want http/30s", cfg.Fetch.Mode, cfg.Fetch.Timeout)
	}
	if !cfg.Cache.Enabled || cfg.Cache.TTL != time.Hour {
		t.Fatalf("cache = %v/%v, want enabled/1h", cfg.Cache.Enabled, cfg.Cache.TTL)
	}
	if cfg.Pipeline.Workers != 4 {
		t.Fatalf("pipeline.workers = %d, want 4", cfg.Pipeline.Workers)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("server.address = %q, want :8080", cfg.Server.Address)
	}
	if cfg.Storage.Postgres.Configured() || cfg.Storage.Redis.Configured() {
		t.Fatal("postgres/redis should be unconfigured by default")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := loadFromJSON(t, `{
		"llm": {"provider": "Anthropic", "model": "claude-3-5-sonnet-latest"},
		"fetch": {"mode": "browser", "timeout": "45s"},
		"pipeline": {"workers": 2},
		"storage": {
			"postgres": {"host": "db.internal", "port": "5433", "user": "app", "password": "pw", "dbname": "autoapply"},
			"redis": {"host": "cache.internal", "port": "6379"}
		},
		"scheduler": {"enabled": true}
	}`)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.LLM.Provider != "anthropic" {
		t.Fatalf("llm.provider = %q, want anthropic (normalized)", cfg.LLM.Provider)
	}
	if cfg.Fetch.Mode != "browser" || cfg.Fetch.Timeout != 45*time.Second {
		t.Fatalf("fetch = %q/%v", cfg.Fetch.Mode, cfg.Fetch.Timeout)
	}
	if cfg.Pipeline.Workers != 2 {
		t.Fatalf("pipeline.workers = %d, want 2", cfg.Pipeline.Workers)
	}
	if !cfg.Storage.Postgres.Configured() {
		t.Fatal("postgres should be configured")
	}
	wantDSN := "postgres://app:pw@db.internal:5433/autoapply?sslmode=disable"
	if got := cfg.Storage.Postgres.DSN(); got != wantDSN {
		t.Fatalf("DSN() = %q, want %q", got, wantDSN)
	}
	if got := cfg.Storage.Redis.Addr(); got != "cache.internal:6379" {
		t.Fatalf("Addr() = %q", got)
	}
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	_, err := loadFromJSON(t, `{"llm": {"provider": "palm"}}`)
	if err == nil || !strings.Contains(err.Error(), "llm.provider") {
		t.Fatalf("LoadConfig() error = %v, want llm.provider message", err)
	}
}

func TestLoadConfigRejectsUnknownFetchMode(t *testing.T) {
	_, err := loadFromJSON(t, `{"fetch": {"mode": "carrier-pigeon"}}`)
	if err == nil || !strings.Contains(err.Error(), "fetch.mode") {
		t.Fatalf("LoadConfig() error = %v, want fetch.mode message", err)
	}
}

func TestLoadConfigSchedulerNeedsPostgres(t *testing.T) {
	_, err := loadFromJSON(t, `{"scheduler": {"enabled": true}}`)
	if err == nil || !strings.Contains(err.Error(), "scheduler") {
		t.Fatalf("LoadConfig() error = %v, want scheduler message", err)
	}
}

func TestPostgresDSNPrefersURL(t *testing.T) {
	p := PostgresConfig{URL: "postgres://u:p@h:5432/db", Host: "ignored"}
	if p.DSN() != "postgres://u:p@h:5432/db" {
		t.Fatalf("DSN() = %q, want explicit url", p.DSN())
	}
}
