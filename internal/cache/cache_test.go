// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/recommend"
)

func sampleRecs() []recommend.Recommendation {
	return []recommend.Recommendation{
		{Title: "Beta", Row: 1, Distance: 1.5},
		{Title: "Gamma", Row: 2, Distance: 2.25},
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		version int
		title   string
		n       int
		want    string
	}{
		{1, "Alpha", 5, "v1:Alpha:5"},
		{42, "A: Tale", 3, "v42:A: Tale:3"},
	}
	for _, tt := range tests {
		if got := Key(tt.version, tt.title, tt.n); got != tt.want {
			t.Errorf("Key(%d, %q, %d) = %q, want %q", tt.version, tt.title, tt.n, got, tt.want)
		}
	}

	if Key(1, "x", 5) == Key(2, "x", 5) {
		t.Error("keys for different model versions must differ")
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		cfg      config.CacheConfig
		wantName string
		wantErr  bool
	}{
		{"none", config.CacheConfig{Backend: "none"}, "none", false},
		{"memory", config.CacheConfig{Backend: "memory", Capacity: 10, TTL: time.Minute}, "memory", false},
		{"unknown", config.CacheConfig{Backend: "memcached"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(ctx, &tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("New() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer c.Close()
			if c.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", c.Name(), tt.wantName)
			}
		})
	}
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Noop{}
	c.Set(ctx, "k", sampleRecs())
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("Noop.Get() ok = true, want false")
	}
}

func TestMemory_RoundTripCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10, time.Minute)

	recs := sampleRecs()
	m.Set(ctx, "k", recs)
	recs[0].Title = "mutated"

	got, ok := m.Get(ctx, "k")
	if !ok {
		t.Fatal("Get() miss, want hit")
	}
	if len(got) != 2 || got[0].Title != "Beta" {
		t.Errorf("Get() = %+v, caller mutation leaked into cache", got)
	}

	if _, ok := m.Get(ctx, "other"); ok {
		t.Error("Get(other) hit, want miss")
	}
	if s := m.Stats(); s.Hits != 1 || s.Misses != 1 {
		t.Errorf("Stats() = %+v, want 1 hit 1 miss", s)
	}
}

func TestMemory_Cleanup(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10, time.Minute)
	now := time.Now()
	m.lru.now = func() time.Time { return now }

	m.Set(ctx, "a", sampleRecs())
	now = now.Add(2 * time.Minute)

	if n := m.Cleanup(); n != 1 {
		t.Errorf("Cleanup() = %d, want 1", n)
	}
}
