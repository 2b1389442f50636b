// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
	"github.com/tomtom215/bookshelf/internal/recommend"
)

// RedisOptions configures the shared cache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration

	// BreakerFailures consecutive errors open the circuit for BreakerTimeout.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

const breakerName = "redis_cache"

// Redis is a recommendation cache shared between server replicas.
type Redis struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	prefix  string
	ttl     time.Duration
	logger  zerolog.Logger
}

// NewRedis connects to Redis and verifies the connection with PING.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}

	return newRedisWithClient(client, opts), nil
}

func newRedisWithClient(client *redis.Client, opts RedisOptions) *Redis {
	failures := opts.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	timeout := opts.BreakerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	logger := logging.WithComponent("cache").With().Str("backend", "redis").Logger()

	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("Cache circuit breaker changed state")
		},
	}
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(float64(gobreaker.StateClosed))

	return &Redis{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		prefix:  opts.Prefix,
		ttl:     opts.TTL,
		logger:  logger,
	}
}

// Get returns the cached list. Redis errors, an open circuit and corrupt
// payloads all count as misses.
func (r *Redis) Get(ctx context.Context, key string) ([]recommend.Recommendation, bool) {
	data, err := r.breaker.Execute(func() ([]byte, error) {
		b, err := r.client.Get(ctx, r.prefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return b, err
	})
	r.recordBreaker(err)
	if err != nil {
		r.logger.Debug().Err(err).Str("key", key).Msg("Cache get failed")
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return nil, false
	}
	if data == nil {
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return nil, false
	}

	var recs []recommend.Recommendation
	if err := json.Unmarshal(data, &recs); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("Discarding corrupt cache entry")
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("redis").Inc()
	return recs, true
}

// Set writes recs with the configured TTL.
func (r *Redis) Set(ctx context.Context, key string, recs []recommend.Recommendation) {
	data, err := json.Marshal(recs)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to encode cache entry")
		return
	}

	_, err = r.breaker.Execute(func() ([]byte, error) {
		return nil, r.client.Set(ctx, r.prefix+key, data, r.ttl).Err()
	})
	r.recordBreaker(err)
	if err != nil {
		r.logger.Debug().Err(err).Str("key", key).Msg("Cache set failed")
	}
}

func (r *Redis) recordBreaker(err error) {
	result := "success"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		result = "rejected"
	case err != nil:
		result = "failure"
	}
	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, result).Inc()
}

// State reports the breaker state for health output.
func (r *Redis) State() string { return r.breaker.State().String() }

func (r *Redis) Name() string { return "redis" }

func (r *Redis) Close() error { return r.client.Close() }
