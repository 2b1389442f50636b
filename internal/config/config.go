// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package config loads Bookshelf configuration from defaults, an optional
// YAML file and environment variables (see koanf.go for precedence).
package config

import "time"

// Config is the root configuration shared by the build CLI and the server.
type Config struct {
	Dataset  DatasetConfig  `koanf:"dataset"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Model    ModelConfig    `koanf:"model"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Session  SessionConfig  `koanf:"session"`
	Cache    CacheConfig    `koanf:"cache"`
	Events   EventsConfig   `koanf:"events"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DatasetConfig locates the three BX input files.
type DatasetConfig struct {
	BooksPath   string `koanf:"books_path"`
	UsersPath   string `koanf:"users_path"`
	RatingsPath string `koanf:"ratings_path"`

	// Delimiter is the single-character field separator. Default: ";"
	Delimiter string `koanf:"delimiter"`

	// Encoding is latin1 or utf8. The published BX dump is Latin-1.
	Encoding string `koanf:"encoding"`
}

// PipelineConfig holds the data preparation thresholds.
type PipelineConfig struct {
	// MinUserRatings is the activity filter. A user is kept only when they
	// rated strictly more books than this. Default: 200
	MinUserRatings int `koanf:"min_user_ratings"`

	// MinTitleRatings is the popularity filter. A title is kept when it has
	// at least this many ratings. Default: 50
	MinTitleRatings int `koanf:"min_title_ratings"`
}

// ModelConfig controls artifact storage and the query defaults.
type ModelConfig struct {
	// Dir is where the build stage writes versioned artifacts.
	Dir string `koanf:"dir"`

	// KeepVersions is how many artifact versions survive a prune.
	KeepVersions int `koanf:"keep_versions"`

	// DefaultNeighbors is n when a request does not supply one.
	DefaultNeighbors int `koanf:"default_neighbors"`

	// MaxNeighbors caps n on requests.
	MaxNeighbors int `koanf:"max_neighbors"`

	// ReloadInterval is how often the server polls the store for a newer version.
	ReloadInterval time.Duration `koanf:"reload_interval"`

	// RebuildInterval enables in-process rebuilds when > 0.
	RebuildInterval time.Duration `koanf:"rebuild_interval"`

	// RebuildOnStartup runs the pipeline when the server starts.
	RebuildOnStartup bool `koanf:"rebuild_on_startup"`

	// RebuildTimeout bounds a single pipeline run.
	RebuildTimeout time.Duration `koanf:"rebuild_timeout"`
}

// CatalogConfig configures the DuckDB catalog behind the listing pages.
type CatalogConfig struct {
	// Path is the DuckDB file; ":memory:" keeps the catalog in RAM.
	Path string `koanf:"path"`

	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB worker count (0 = runtime.NumCPU()).
	Threads int `koanf:"threads"`

	// PopularLimit is the default size of the popular books listing.
	PopularLimit int `koanf:"popular_limit"`

	// PlaceholderImage replaces missing cover URLs.
	PlaceholderImage string `koanf:"placeholder_image"`
}

// SessionConfig configures view-model session persistence.
type SessionConfig struct {
	// Store is badger or memory.
	Store string `koanf:"store"`

	// Path is the badger directory.
	Path string `koanf:"path"`

	TTL time.Duration `koanf:"ttl"`

	// CleanupInterval is how often expired sessions are purged.
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// CacheConfig configures the recommendation result cache.
type CacheConfig struct {
	// Backend is memory, redis or none.
	Backend string `koanf:"backend"`

	Capacity int           `koanf:"capacity"`
	TTL      time.Duration `koanf:"ttl"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisPrefix   string `koanf:"redis_prefix"`

	// BreakerFailures opens the Redis circuit after this many consecutive errors.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// EventsConfig selects the transport for model.published notifications.
type EventsConfig struct {
	// Backend is gochannel (in-process) or nats.
	Backend string `koanf:"backend"`

	// NATSURL is the server the build CLI and the API connect to.
	NATSURL string `koanf:"nats_url"`

	// Embedded starts an in-process NATS server in the API process.
	Embedded     bool   `koanf:"embedded"`
	EmbeddedHost string `koanf:"embedded_host"`
	EmbeddedPort int    `koanf:"embedded_port"`

	// Subject carries model.published messages.
	Subject string `koanf:"subject"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration with the layered koanf loader.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
