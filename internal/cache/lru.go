// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/bookshelf/internal/metrics"
	"github.com/tomtom215/bookshelf/internal/recommend"
)

// lruEntry is a node in the recency list.
type lruEntry[V any] struct {
	key       string
	value     V
	prev      *lruEntry[V]
	next      *lruEntry[V]
	expiresAt time.Time
}

// LRU is a thread-safe least recently used cache with TTL.
//
// A doubly-linked list orders entries by recency and a map gives O(1)
// lookup. Expired entries are dropped lazily on Get or in bulk by
// CleanupExpired.
type LRU[V any] struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration
	items    map[string]*lruEntry[V]

	// head.next is the most recently used, tail.prev the least.
	head *lruEntry[V]
	tail *lruEntry[V]

	hits      int64
	misses    int64
	evictions int64

	// onEvict runs under the lock when capacity forces an eviction.
	onEvict func()

	now func() time.Time
}

// LRUStats is a snapshot of cache counters.
type LRUStats struct {
	Size      int     `json:"size"`
	Capacity  int     `json:"capacity"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

// NewLRU creates an LRU. A non-positive capacity defaults to 10000 and a
// non-positive ttl disables expiry.
func NewLRU[V any](capacity int, ttl time.Duration) *LRU[V] {
	if capacity <= 0 {
		capacity = 10000
	}
	head := &lruEntry[V]{}
	tail := &lruEntry[V]{}
	head.next = tail
	tail.prev = head

	return &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*lruEntry[V], capacity),
		head:     head,
		tail:     tail,
		now:      time.Now,
	}
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}
	if c.expired(entry) {
		c.removeEntry(entry)
		delete(c.items, key)
		c.misses++
		return zero, false
	}

	c.moveToFront(entry)
	c.hits++
	return entry.value, true
}

// Add inserts or replaces key. It returns true when an older entry was
// evicted to make room.
func (c *LRU[V]) Add(key string, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	if entry, ok := c.items[key]; ok {
		entry.value = value
		entry.expiresAt = expiresAt
		c.moveToFront(entry)
		return false
	}

	entry := &lruEntry[V]{key: key, value: value, expiresAt: expiresAt}
	c.items[key] = entry
	c.addToFront(entry)

	if len(c.items) > c.capacity {
		c.evictOldest()
		return true
	}
	return false
}

// Remove deletes key and reports whether it was present.
func (c *LRU[V]) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeEntry(entry)
	delete(c.items, key)
	return true
}

// Len returns the number of entries, expired ones included.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear drops every entry. Counters are kept.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*lruEntry[V], c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// CleanupExpired removes expired entries and returns how many were dropped.
func (c *LRU[V]) CleanupExpired() int {
	if c.ttl <= 0 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for entry := c.tail.prev; entry != c.head; {
		prev := entry.prev
		if c.expired(entry) {
			c.removeEntry(entry)
			delete(c.items, entry.key)
			removed++
		}
		entry = prev
	}
	return removed
}

// Stats returns a snapshot of the counters.
func (c *LRU[V]) Stats() LRUStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := LRUStats{
		Size:      len(c.items),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

func (c *LRU[V]) expired(e *lruEntry[V]) bool {
	return !e.expiresAt.IsZero() && c.now().After(e.expiresAt)
}

func (c *LRU[V]) addToFront(e *lruEntry[V]) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *LRU[V]) removeEntry(e *lruEntry[V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev = nil
	e.next = nil
}

func (c *LRU[V]) moveToFront(e *lruEntry[V]) {
	c.removeEntry(e)
	c.addToFront(e)
}

func (c *LRU[V]) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.removeEntry(oldest)
	delete(c.items, oldest.key)
	c.evictions++
	if c.onEvict != nil {
		c.onEvict()
	}
}

// Memory is the in-process recommendation cache.
type Memory struct {
	lru *LRU[[]recommend.Recommendation]
}

// NewMemory returns an LRU-backed Cache.
func NewMemory(capacity int, ttl time.Duration) *Memory {
	lru := NewLRU[[]recommend.Recommendation](capacity, ttl)
	lru.onEvict = func() { metrics.CacheEvictions.WithLabelValues("memory").Inc() }
	return &Memory{lru: lru}
}

func (m *Memory) Get(_ context.Context, key string) ([]recommend.Recommendation, bool) {
	recs, ok := m.lru.Get(key)
	if ok {
		metrics.CacheHits.WithLabelValues("memory").Inc()
	} else {
		metrics.CacheMisses.WithLabelValues("memory").Inc()
	}
	return recs, ok
}

// Set stores a copy of recs so later mutation by the caller is harmless.
func (m *Memory) Set(_ context.Context, key string, recs []recommend.Recommendation) {
	cp := make([]recommend.Recommendation, len(recs))
	copy(cp, recs)
	m.lru.Add(key, cp)
	metrics.CacheSize.WithLabelValues("memory").Set(float64(m.lru.Len()))
}

// Cleanup drops expired entries. The supervisor calls it periodically.
func (m *Memory) Cleanup() int {
	n := m.lru.CleanupExpired()
	metrics.CacheSize.WithLabelValues("memory").Set(float64(m.lru.Len()))
	return n
}

// Stats exposes the underlying LRU counters.
func (m *Memory) Stats() LRUStats { return m.lru.Stats() }

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Close() error {
	m.lru.Clear()
	return nil
}
