// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package config

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDataset(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateModel(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDataset() error {
	d := c.Dataset
	if d.BooksPath == "" || d.RatingsPath == "" || d.UsersPath == "" {
		return fmt.Errorf("BOOKS_CSV, USERS_CSV and RATINGS_CSV must all be set")
	}
	if utf8.RuneCountInString(d.Delimiter) != 1 {
		return fmt.Errorf("CSV_DELIMITER must be a single character, got %q", d.Delimiter)
	}
	switch strings.ToLower(d.Encoding) {
	case "latin1", "iso-8859-1", "utf8", "utf-8":
	default:
		return fmt.Errorf("DATASET_CHARSET must be latin1 or utf8, got %q", d.Encoding)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.MinUserRatings < 0 {
		return fmt.Errorf("MIN_USER_RATINGS must be >= 0, got %d", c.Pipeline.MinUserRatings)
	}
	if c.Pipeline.MinTitleRatings < 1 {
		return fmt.Errorf("MIN_TITLE_RATINGS must be >= 1, got %d", c.Pipeline.MinTitleRatings)
	}
	return nil
}

func (c *Config) validateModel() error {
	m := c.Model
	if m.Dir == "" {
		return fmt.Errorf("MODEL_DIR is required")
	}
	if m.KeepVersions < 1 {
		return fmt.Errorf("MODEL_KEEP_VERSIONS must be >= 1, got %d", m.KeepVersions)
	}
	if m.MaxNeighbors < 1 {
		return fmt.Errorf("MAX_NEIGHBORS must be >= 1, got %d", m.MaxNeighbors)
	}
	if m.DefaultNeighbors < 1 || m.DefaultNeighbors > m.MaxNeighbors {
		return fmt.Errorf("DEFAULT_NEIGHBORS must be between 1 and %d, got %d", m.MaxNeighbors, m.DefaultNeighbors)
	}
	if m.ReloadInterval <= 0 {
		return fmt.Errorf("MODEL_RELOAD must be positive, got %v", m.ReloadInterval)
	}
	if m.RebuildInterval < 0 {
		return fmt.Errorf("MODEL_REBUILD must be >= 0, got %v", m.RebuildInterval)
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required (use :memory: for an in-memory catalog)")
	}
	if c.Catalog.PopularLimit < 1 {
		return fmt.Errorf("POPULAR_LIMIT must be >= 1, got %d", c.Catalog.PopularLimit)
	}
	return nil
}

func (c *Config) validateSession() error {
	switch c.Session.Store {
	case "memory":
	case "badger":
		if c.Session.Path == "" {
			return fmt.Errorf("SESSION_STORE_PATH is required when SESSION_STORE=badger")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be badger or memory, got %q", c.Session.Store)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %v", c.Session.TTL)
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case "none":
		return nil
	case "memory":
		if c.Cache.Capacity < 1 {
			return fmt.Errorf("CACHE_CAPACITY must be >= 1, got %d", c.Cache.Capacity)
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be memory, redis or none, got %q", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %v", c.Cache.TTL)
	}
	return nil
}

func (c *Config) validateEvents() error {
	e := c.Events
	switch e.Backend {
	case "gochannel":
	case "nats":
		if e.NATSURL == "" && !e.Embedded {
			return fmt.Errorf("NATS_URL is required when EVENTS_BACKEND=nats")
		}
		if e.Embedded && (e.EmbeddedPort < 1 || e.EmbeddedPort > 65535) {
			return fmt.Errorf("NATS_EMBEDDED_PORT must be between 1 and 65535, got %d", e.EmbeddedPort)
		}
	default:
		return fmt.Errorf("EVENTS_BACKEND must be gochannel or nats, got %q", e.Backend)
	}
	if e.Subject == "" {
		return fmt.Errorf("MODEL_EVENTS_SUBJECT is required")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !c.Security.RateLimitDisabled && c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be >= 1, got %d", c.Security.RateLimitReqs)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a known level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
