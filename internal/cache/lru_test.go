// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLRU_GetAdd(t *testing.T) {
	c := NewLRU[int](3, 0)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) ok = true, want false")
	}

	c.Add("a", 1)
	c.Add("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}

	c.Add("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("Get(a) after update = %d, want 10", v)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string](2, 0)
	evicted := 0
	c.onEvict = func() { evicted++ }

	c.Add("a", "A")
	c.Add("b", "B")
	c.Get("a") // b is now the oldest

	if !c.Add("c", "C") {
		t.Error("Add(c) evicted = false, want true")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
	if evicted != 1 {
		t.Errorf("onEvict called %d times, want 1", evicted)
	}
	if s := c.Stats(); s.Evictions != 1 {
		t.Errorf("Stats().Evictions = %d, want 1", s.Evictions)
	}
}

func TestLRU_TTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRU[int](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Add("a", 1)
	c.Add("b", 2)

	now = now.Add(30 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a expired too early")
	}

	now = now.Add(31 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if n := c.CleanupExpired(); n != 1 {
		t.Errorf("CleanupExpired() = %d, want 1 (b only; a already dropped)", n)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestLRU_RemoveAndClear(t *testing.T) {
	c := NewLRU[int](5, 0)
	c.Add("a", 1)
	c.Add("b", 2)

	if !c.Remove("a") {
		t.Error("Remove(a) = false, want true")
	}
	if c.Remove("a") {
		t.Error("second Remove(a) = true, want false")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	c.Add("c", 3)
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Error("cache unusable after Clear")
	}
}

func TestLRU_Stats(t *testing.T) {
	c := NewLRU[int](5, 0)
	c.Add("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("z")

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 2/1", s.Hits, s.Misses)
	}
	if s.HitRate < 0.66 || s.HitRate > 0.67 {
		t.Errorf("HitRate = %f, want ~0.667", s.HitRate)
	}
	if s.Capacity != 5 {
		t.Errorf("Capacity = %d, want 5", s.Capacity)
	}
}

func TestLRU_DefaultCapacity(t *testing.T) {
	if c := NewLRU[int](0, 0); c.capacity != 10000 {
		t.Errorf("capacity = %d, want 10000", c.capacity)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[int](50, time.Minute)
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%75)
				c.Add(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Errorf("Len() = %d, exceeds capacity 50", c.Len())
	}
}
