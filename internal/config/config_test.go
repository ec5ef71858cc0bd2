package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DEBUG", "STATIC_DIR", "DATA_SOURCE", "CATALOG_PATH", "SIMILARITY_PATH",
		"DATABASE_URL", "SQLITE_PATH", "TMDB_BASE_URL", "TMDB_IMAGE_BASE_URL",
		"BEARER_TOKEN", "TMDB_BEARER_TOKEN", "REDIS_ADDR", "JWT_SECRET", "AUTH_REQUIRED",
		"DEFAULT_K", "MAX_K", "TMDB_MAX_CONCURRENT", "CACHE_TTL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Recommend.DefaultK != 5 {
		t.Errorf("expected default_k 5, got %d", cfg.Recommend.DefaultK)
	}
	if cfg.Data.Source != SourceFile {
		t.Errorf("expected file source, got %s", cfg.Data.Source)
	}
}

func TestLoad_Layering(t *testing.T) {
	clearEnv(t)

	configPath := writeConfig(t, "server.yaml", `
server:
  port: "9000"
  debug: true
data:
  source: sqlite
  sqlite_path: data/bundle.db
tmdb:
  timeout: 3s
cache:
  ttl: 1h
recommend:
  default_k: 8
  max_k: 20
`)
	t.Setenv("PORT", "9100")
	t.Setenv("MAX_K", "30")

	cfg, err := Load([]string{"-config", configPath, "-sqlite", "other.db"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "9100" {
		t.Errorf("expected env to override file port, got %s", cfg.Server.Port)
	}
	if !cfg.Server.Debug {
		t.Error("expected debug from file")
	}
	if cfg.Data.SQLitePath != "other.db" {
		t.Errorf("expected flag to override sqlite path, got %s", cfg.Data.SQLitePath)
	}
	if cfg.TMDB.Timeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %v", cfg.TMDB.Timeout)
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("expected 1h ttl, got %v", cfg.Cache.TTL)
	}
	if cfg.Recommend.DefaultK != 8 || cfg.Recommend.MaxK != 30 {
		t.Errorf("unexpected recommend config %+v", cfg.Recommend)
	}
	if cfg.TMDB.MaxConcurrent != 5 {
		t.Errorf("expected default max_concurrent to survive, got %d", cfg.TMDB.MaxConcurrent)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)

	envPath := writeConfig(t, ".env", "BEARER_TOKEN=from-dotenv\nREDIS_ADDR=localhost:6379\n")

	cfg, err := Load([]string{"-env-file", envPath})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TMDB.BearerToken != "from-dotenv" {
		t.Errorf("expected token from .env, got %q", cfg.TMDB.BearerToken)
	}
	if cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("expected redis addr from .env, got %q", cfg.Cache.RedisAddr)
	}

	t.Setenv("TMDB_BEARER_TOKEN", "from-env")
	cfg, err = Load([]string{"-env-file", envPath})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TMDB.BearerToken != "from-env" {
		t.Errorf("expected TMDB_BEARER_TOKEN to win, got %q", cfg.TMDB.BearerToken)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	clearEnv(t)

	if _, err := Load([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Error("expected error for missing explicit config file")
	}
	if _, err := Load([]string{"-env-file", filepath.Join(t.TempDir(), "missing.env")}); err == nil {
		t.Error("expected error for missing explicit env file")
	}
}

func TestLoad_BadEnvValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEFAULT_K", "five")

	_, err := Load(nil)
	if err == nil || !strings.Contains(err.Error(), "DEFAULT_K") {
		t.Errorf("expected DEFAULT_K parse error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown source", func(c *Config) { c.Data.Source = "mongo" }},
		{"postgres without url", func(c *Config) { c.Data.Source = SourcePostgres }},
		{"sqlite without path", func(c *Config) { c.Data.Source = SourceSQLite }},
		{"file without similarity", func(c *Config) { c.Data.SimilarityPath = "" }},
		{"negative default k", func(c *Config) { c.Recommend.DefaultK = -1 }},
		{"max below default", func(c *Config) { c.Recommend.MaxK = 2 }},
		{"auth without secret", func(c *Config) { c.Auth.Required = true }},
		{"auth without database", func(c *Config) { c.Auth.Required = true; c.Auth.JWTSecret = "s" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}
