// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
)

// Manager creates sessions and applies view transitions. Every successful
// transition slides the expiry forward by the TTL.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager creates a manager over store.
func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

// NewStore opens the store named by cfg.Store.
func NewStore(cfg *config.SessionConfig) (Store, error) {
	switch cfg.Store {
	case "memory":
		return NewMemoryStore(), nil
	case "badger":
		return OpenBadgerStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}

// Store returns the underlying store.
func (m *Manager) Store() Store {
	return m.store
}

// Create starts a session in the listing view.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	now := m.now().UTC()
	s := &Session{
		ID:        uuid.New().String(),
		View:      Listing(),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	logging.Ctx(ctx).Debug().Str("session_id", s.ID).Msg("Session created")
	return s, nil
}

// Get returns the session with id.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	return m.store.Get(ctx, id)
}

// Select moves the session to the detail view of title.
func (m *Manager) Select(ctx context.Context, id, title string) (*Session, error) {
	return m.transition(ctx, id, "select", func(v View) (View, error) {
		return v.Select(title)
	})
}

// Back moves the session to the listing view.
func (m *Manager) Back(ctx context.Context, id string) (*Session, error) {
	return m.transition(ctx, id, "back", View.Back)
}

func (m *Manager) transition(ctx context.Context, id, name string, step func(View) (View, error)) (*Session, error) {
	s, err := m.store.Update(ctx, id, func(s *Session) error {
		next, err := step(s.View)
		if err != nil {
			return err
		}
		now := m.now().UTC()
		s.View = next
		s.UpdatedAt = now
		s.ExpiresAt = now.Add(m.ttl)
		return nil
	})
	metrics.RecordSessionTransition(name, err)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Debug().
		Str("session_id", id).
		Str("transition", name).
		Str("state", string(s.View.State)).
		Msg("Session view changed")
	return s, nil
}

// Delete removes a session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}

// Cleanup removes expired sessions and updates the session gauges.
func (m *Manager) Cleanup(ctx context.Context) (int, error) {
	removed, err := m.store.CleanupExpired(ctx)
	if err != nil {
		return 0, err
	}
	metrics.SessionsExpired.Add(float64(removed))
	if n, err := m.store.Count(ctx); err == nil {
		metrics.SessionsActive.Set(float64(n))
	}
	return removed, nil
}
