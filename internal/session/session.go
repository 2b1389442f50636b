// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package session keeps the browsing state of API clients. Each session
// holds one View, which moves between the listing and a book's detail page
// through explicit transitions. Sessions live in memory or in BadgerDB and
// expire after a configurable TTL.
package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a session id is unknown.
	ErrNotFound = errors.New("session not found")

	// ErrExpired is returned when a session exists but has expired.
	ErrExpired = errors.New("session expired")

	// ErrConflict is returned when concurrent updates to one session kept
	// colliding and the update was given up.
	ErrConflict = errors.New("session update conflict")
)

// Session is one client's browsing state.
type Session struct {
	ID        string    `json:"id"`
	View      View      `json:"view"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the session has expired at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Mutator changes a session inside a store's atomic update.
type Mutator func(s *Session) error

// Store persists sessions.
type Store interface {
	Create(ctx context.Context, s *Session) error

	// Get returns ErrNotFound or ErrExpired when the session is unusable.
	Get(ctx context.Context, id string) (*Session, error)

	// Update applies fn to the stored session atomically and returns the
	// result. The session is not written when fn fails.
	Update(ctx context.Context, id string, fn Mutator) (*Session, error)

	Delete(ctx context.Context, id string) error

	// CleanupExpired removes expired sessions and returns how many.
	CleanupExpired(ctx context.Context) (int, error)

	// Count returns the number of stored sessions, expired or not.
	Count(ctx context.Context) (int, error)

	Close() error
}
