// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package cache memoizes recommendation results and indexes titles for
// prefix suggestions.
//
// Result caches are keyed by model version, so a newly published model
// never serves entries computed against an older one. Three backends are
// available:
//
//   - memory: an in-process LRU with TTL
//   - redis: shared across replicas, guarded by a circuit breaker
//   - none: every lookup misses
//
// A backend failure is never surfaced to callers; it degrades to a miss
// and the recommendation is recomputed.
package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/recommend"
)

// Cache stores recommendation lists by key.
type Cache interface {
	// Get returns the cached list and true on a hit.
	Get(ctx context.Context, key string) ([]recommend.Recommendation, bool)

	// Set stores recs under key. Errors are logged by the backend, not returned.
	Set(ctx context.Context, key string, recs []recommend.Recommendation)

	// Name identifies the backend in logs and metrics.
	Name() string

	Close() error
}

// Key builds the cache key for a recommendation query.
func Key(version int, title string, n int) string {
	return "v" + strconv.Itoa(version) + ":" + title + ":" + strconv.Itoa(n)
}

// New returns the backend selected by cfg.
func New(ctx context.Context, cfg *config.CacheConfig) (Cache, error) {
	switch cfg.Backend {
	case "none", "":
		return Noop{}, nil
	case "memory":
		return NewMemory(cfg.Capacity, cfg.TTL), nil
	case "redis":
		return NewRedis(ctx, RedisOptions{
			Addr:            cfg.RedisAddr,
			Password:        cfg.RedisPassword,
			DB:              cfg.RedisDB,
			Prefix:          cfg.RedisPrefix,
			TTL:             cfg.TTL,
			BreakerFailures: cfg.BreakerFailures,
			BreakerTimeout:  cfg.BreakerTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]recommend.Recommendation, bool) { return nil, false }
func (Noop) Set(context.Context, string, []recommend.Recommendation) {}
func (Noop) Name() string { return "none" }
func (Noop) Close() error { return nil }
