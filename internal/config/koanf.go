// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config files searched, first match wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/bookshelf/config.yaml",
	"/etc/bookshelf/config.yml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			BooksPath:   "data/BX-Books.csv",
			UsersPath:   "data/BX-Users.csv",
			RatingsPath: "data/BX-Book-Ratings.csv",
			Delimiter:   ";",
			Encoding:    "latin1",
		},
		Pipeline: PipelineConfig{
			MinUserRatings:  200,
			MinTitleRatings: 50,
		},
		Model: ModelConfig{
			Dir:              "/data/model",
			KeepVersions:     3,
			DefaultNeighbors: 5,
			MaxNeighbors:     50,
			ReloadInterval:   time.Minute,
			RebuildInterval:  0, // rebuilds come from the build CLI by default
			RebuildOnStartup: false,
			RebuildTimeout:   30 * time.Minute,
		},
		Catalog: CatalogConfig{
			Path:             ":memory:",
			MaxMemory:        "1GB",
			Threads:          0,
			PopularLimit:     30,
			PlaceholderImage: "https://via.placeholder.com/150",
		},
		Session: SessionConfig{
			Store:           "badger",
			Path:            "/data/sessions",
			TTL:             24 * time.Hour,
			CleanupInterval: 15 * time.Minute,
		},
		Cache: CacheConfig{
			Backend:         "memory",
			Capacity:        10000,
			TTL:             10 * time.Minute,
			RedisAddr:       "127.0.0.1:6379",
			RedisPrefix:     "bookshelf:rec:",
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Events: EventsConfig{
			Backend:      "gochannel",
			NATSURL:      "nats://127.0.0.1:4222",
			Embedded:     false,
			EmbeddedHost: "127.0.0.1",
			EmbeddedPort: 4222,
			Subject:      "model.published",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration with precedence ENV > file > defaults,
// then validates it.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as env strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Unmapped variables are ignored so the process environment cannot leak
// into the config tree.
var envMappings = map[string]string{
	"books_csv":       "dataset.books_path",
	"users_csv":       "dataset.users_path",
	"ratings_csv":     "dataset.ratings_path",
	"csv_delimiter":   "dataset.delimiter",
	"dataset_charset": "dataset.encoding",

	"min_user_ratings":  "pipeline.min_user_ratings",
	"min_title_ratings": "pipeline.min_title_ratings",

	"model_dir":           "model.dir",
	"model_keep_versions": "model.keep_versions",
	"default_neighbors":   "model.default_neighbors",
	"max_neighbors":       "model.max_neighbors",
	"model_reload":        "model.reload_interval",
	"model_rebuild":       "model.rebuild_interval",
	"rebuild_on_startup":  "model.rebuild_on_startup",
	"rebuild_timeout":     "model.rebuild_timeout",

	"duckdb_path":       "catalog.path",
	"duckdb_max_memory": "catalog.max_memory",
	"duckdb_threads":    "catalog.threads",
	"popular_limit":     "catalog.popular_limit",
	"placeholder_image": "catalog.placeholder_image",

	"session_store":            "session.store",
	"session_store_path":       "session.path",
	"session_ttl":              "session.ttl",
	"session_cleanup_interval": "session.cleanup_interval",

	"cache_backend":          "cache.backend",
	"cache_capacity":         "cache.capacity",
	"cache_ttl":              "cache.ttl",
	"redis_addr":             "cache.redis_addr",
	"redis_password":         "cache.redis_password",
	"redis_db":               "cache.redis_db",
	"redis_prefix":           "cache.redis_prefix",
	"redis_breaker_failures": "cache.breaker_failures",
	"redis_breaker_timeout":  "cache.breaker_timeout",

	"events_backend":       "events.backend",
	"nats_url":             "events.nats_url",
	"nats_embedded":        "events.embedded",
	"nats_embedded_host":   "events.embedded_host",
	"nats_embedded_port":   "events.embedded_port",
	"model_events_subject": "events.subject",

	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
//
//   - BOOKS_CSV -> dataset.books_path
//   - MIN_USER_RATINGS -> pipeline.min_user_ratings
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
