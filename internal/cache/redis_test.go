// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package cache

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// unreachableAddr returns an address nothing listens on.
func unreachableAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

func TestNewRedis_PingFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := NewRedis(ctx, RedisOptions{Addr: unreachableAddr(t)}); err == nil {
		t.Error("NewRedis() error = nil, want connection failure")
	}
}

func TestRedis_FailuresDegradeToMissAndOpenBreaker(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        unreachableAddr(t),
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	r := newRedisWithClient(client, RedisOptions{
		TTL:             time.Minute,
		BreakerFailures: 2,
		BreakerTimeout:  time.Hour,
	})
	defer r.Close()

	ctx := context.Background()
	r.Set(ctx, "k", sampleRecs())
	if _, ok := r.Get(ctx, "k"); ok {
		t.Fatal("Get() hit against a dead server")
	}
	if r.State() != "open" {
		t.Errorf("State() = %q after 2 failures, want open", r.State())
	}

	// With the circuit open, calls are rejected without touching the network.
	start := time.Now()
	if _, ok := r.Get(ctx, "k"); ok {
		t.Error("Get() hit with open circuit")
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Errorf("open-circuit Get took %v, want immediate rejection", time.Since(start))
	}
}
