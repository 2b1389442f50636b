// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points the config search at an empty temp dir so a stray
// config.yaml in the working directory cannot affect the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "absent.yaml"))
	orig := DefaultConfigPaths
	DefaultConfigPaths = nil
	t.Cleanup(func() { DefaultConfigPaths = orig })
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Pipeline.MinUserRatings != 200 {
		t.Errorf("Pipeline.MinUserRatings = %d, want 200", cfg.Pipeline.MinUserRatings)
	}
	if cfg.Pipeline.MinTitleRatings != 50 {
		t.Errorf("Pipeline.MinTitleRatings = %d, want 50", cfg.Pipeline.MinTitleRatings)
	}
	if cfg.Model.DefaultNeighbors != 5 {
		t.Errorf("Model.DefaultNeighbors = %d, want 5", cfg.Model.DefaultNeighbors)
	}
	if cfg.Dataset.Delimiter != ";" {
		t.Errorf("Dataset.Delimiter = %q, want ;", cfg.Dataset.Delimiter)
	}
	if cfg.Catalog.PopularLimit != 30 {
		t.Errorf("Catalog.PopularLimit = %d, want 30", cfg.Catalog.PopularLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig().Validate() error = %v", err)
	}
}

func TestLoadWithKoanf_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Cache.Backend = %q, want memory", cfg.Cache.Backend)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("MIN_USER_RATINGS", "10")
	t.Setenv("MIN_TITLE_RATINGS", "3")
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("MODEL_RELOAD", "30s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CACHE_BACKEND", "none")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Pipeline.MinUserRatings != 10 {
		t.Errorf("MinUserRatings = %d, want 10", cfg.Pipeline.MinUserRatings)
	}
	if cfg.Pipeline.MinTitleRatings != 3 {
		t.Errorf("MinTitleRatings = %d, want 3", cfg.Pipeline.MinTitleRatings)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Model.ReloadInterval != 30*time.Second {
		t.Errorf("Model.ReloadInterval = %v, want 30s", cfg.Model.ReloadInterval)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("Security.CORSOrigins = %v, want two trimmed origins", cfg.Security.CORSOrigins)
	}
	if cfg.Cache.Backend != "none" {
		t.Errorf("Cache.Backend = %q, want none", cfg.Cache.Backend)
	}
}

func TestLoadWithKoanf_File(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
dataset:
  books_path: /srv/bx/books.csv
pipeline:
  min_title_ratings: 7
model:
  dir: /srv/model
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("MODEL_DIR", "/override/model")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Dataset.BooksPath != "/srv/bx/books.csv" {
		t.Errorf("Dataset.BooksPath = %q, want file value", cfg.Dataset.BooksPath)
	}
	if cfg.Pipeline.MinTitleRatings != 7 {
		t.Errorf("Pipeline.MinTitleRatings = %d, want 7", cfg.Pipeline.MinTitleRatings)
	}
	if cfg.Model.Dir != "/override/model" {
		t.Errorf("Model.Dir = %q, env should win over file", cfg.Model.Dir)
	}
	if cfg.Dataset.UsersPath != "data/BX-Users.csv" {
		t.Errorf("Dataset.UsersPath = %q, default should survive", cfg.Dataset.UsersPath)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"BOOKS_CSV", "dataset.books_path"},
		{"MIN_USER_RATINGS", "pipeline.min_user_ratings"},
		{"REDIS_ADDR", "cache.redis_addr"},
		{"LOG_LEVEL", "logging.level"},
		{"NATS_URL", "events.nats_url"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := envTransformFunc(tt.key); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"multi-char delimiter", func(c *Config) { c.Dataset.Delimiter = ";;" }, "CSV_DELIMITER"},
		{"unknown charset", func(c *Config) { c.Dataset.Encoding = "ebcdic" }, "DATASET_CHARSET"},
		{"negative user threshold", func(c *Config) { c.Pipeline.MinUserRatings = -1 }, "MIN_USER_RATINGS"},
		{"zero title threshold", func(c *Config) { c.Pipeline.MinTitleRatings = 0 }, "MIN_TITLE_RATINGS"},
		{"default above max", func(c *Config) { c.Model.DefaultNeighbors = 99 }, "DEFAULT_NEIGHBORS"},
		{"no keep versions", func(c *Config) { c.Model.KeepVersions = 0 }, "MODEL_KEEP_VERSIONS"},
		{"bad session store", func(c *Config) { c.Session.Store = "sqlite" }, "SESSION_STORE"},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis"; c.Cache.RedisAddr = "" }, "REDIS_ADDR"},
		{"bad cache backend", func(c *Config) { c.Cache.Backend = "memcached" }, "CACHE_BACKEND"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "HTTP_PORT"},
		{"bad events backend", func(c *Config) { c.Events.Backend = "kafka" }, "EVENTS_BACKEND"},
		{"nats without url", func(c *Config) { c.Events.Backend = "nats"; c.Events.NATSURL = "" }, "NATS_URL"},
		{"embedded nats without url", func(c *Config) {
			c.Events.Backend = "nats"
			c.Events.NATSURL = ""
			c.Events.Embedded = true
		}, ""},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"rate limit disabled skips check", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}
