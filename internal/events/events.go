// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package events carries model.published notifications from the build stage
// to running servers.
//
// Two transports are supported. The gochannel backend keeps everything in
// process and suits a server that rebuilds its own model. The nats backend
// lets cmd/build announce a version to every server replica; the server can
// optionally embed the NATS server itself. Core NATS (no JetStream) is used:
// a missed event is harmless because servers also poll the artifact store.
package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/bookshelf/internal/recommend/storage"
)

// ErrInvalidEvent is returned for payloads that do not decode to a usable event.
var ErrInvalidEvent = errors.New("invalid model event")

// ModelPublished announces that a model version is complete on disk.
type ModelPublished struct {
	EventID     string    `json:"event_id"`
	Version     int       `json:"version"`
	BuiltAt     time.Time `json:"built_at"`
	Rows        int       `json:"rows"`
	Cols        int       `json:"cols"`
	Coverage    float64   `json:"coverage"`
	PublishedAt time.Time `json:"published_at"`
}

// NewModelPublished builds an event from a saved manifest.
func NewModelPublished(m *storage.Manifest) ModelPublished {
	return ModelPublished{
		EventID:     uuid.New().String(),
		Version:     m.Version,
		BuiltAt:     m.BuiltAt,
		Rows:        m.Rows,
		Cols:        m.Cols,
		Coverage:    m.Coverage,
		PublishedAt: time.Now().UTC(),
	}
}

// Encode serializes the event.
func (e ModelPublished) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses and validates a payload.
func Decode(data []byte) (ModelPublished, error) {
	var e ModelPublished
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if e.Version < 1 {
		return e, fmt.Errorf("%w: version %d", ErrInvalidEvent, e.Version)
	}
	return e, nil
}
