// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/bookshelf/internal/config"
)

func TestManager_Flow(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), time.Hour)

	s, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := uuid.Parse(s.ID); err != nil {
		t.Errorf("ID %q is not a uuid: %v", s.ID, err)
	}
	if s.View != Listing() {
		t.Errorf("initial view = %+v, want Listing", s.View)
	}

	s, err = m.Select(ctx, s.ID, "Dune")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if s.View != Detail("Dune") {
		t.Errorf("view after Select = %+v", s.View)
	}

	if _, err := m.Select(ctx, s.ID, "Emma"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Select() from detail error = %v, want ErrInvalidTransition", err)
	}

	s, err = m.Back(ctx, s.ID)
	if err != nil {
		t.Fatalf("Back() error = %v", err)
	}
	if s.View != Listing() {
		t.Errorf("view after Back = %+v", s.View)
	}

	if _, err := m.Back(ctx, s.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Back() from listing error = %v, want ErrInvalidTransition", err)
	}

	if _, err := m.Select(ctx, "nope", "Dune"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Select() unknown session error = %v, want ErrNotFound", err)
	}
}

func TestManager_TransitionSlidesExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := NewManager(store, time.Hour)

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	store.now = m.now

	s, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	now = now.Add(50 * time.Minute)
	s, err = m.Select(ctx, s.ID, "Dune")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if want := now.Add(time.Hour); !s.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", s.ExpiresAt, want)
	}

	now = now.Add(61 * time.Minute)
	if _, err := m.Get(ctx, s.ID); !errors.Is(err, ErrExpired) {
		t.Errorf("Get() error = %v, want ErrExpired", err)
	}
	removed, err := m.Cleanup(ctx)
	if err != nil || removed != 1 {
		t.Errorf("Cleanup() = %d, %v; want 1", removed, err)
	}
}

func TestManager_ConcurrentTransitions(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), time.Hour)
	s, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Exactly one of many concurrent selects can win from Listing.
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Select(ctx, s.ID, "Dune"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("successful selects = %d, want 1", wins)
	}
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SessionConfig
		wantErr bool
	}{
		{"memory", config.SessionConfig{Store: "memory"}, false},
		{"badger", config.SessionConfig{Store: "badger", Path: t.TempDir()}, false},
		{"unknown", config.SessionConfig{Store: "sqlite"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(&tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("NewStore() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewStore() error = %v", err)
			}
			if err := store.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
	}
}
