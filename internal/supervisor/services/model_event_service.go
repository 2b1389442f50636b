// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/bookshelf/internal/events"
)

// EventSource delivers model.published events. *events.Bus satisfies it.
type EventSource interface {
	Consume(ctx context.Context, fn events.Handler) error
}

// ReloadNotifier is told about versions announced on the bus.
type ReloadNotifier interface {
	Notify(version int)
}

// ModelEventService forwards model.published events to the reloader so a
// new build goes live without waiting for the next poll.
type ModelEventService struct {
	source   EventSource
	reloader ReloadNotifier
	logger   zerolog.Logger
	name     string
}

// NewModelEventService creates the service.
func NewModelEventService(source EventSource, reloader ReloadNotifier, logger zerolog.Logger) *ModelEventService {
	return &ModelEventService{
		source:   source,
		reloader: reloader,
		logger:   logger.With().Str("service", "model-events").Logger(),
		name:     "model-event-consumer",
	}
}

// Serve implements suture.Service. A closed subscription returns so the
// supervisor can resubscribe.
func (s *ModelEventService) Serve(ctx context.Context) error {
	s.logger.Info().Msg("Model event consumer starting")
	return s.source.Consume(ctx, func(_ context.Context, e events.ModelPublished) error {
		s.logger.Debug().Int("version", e.Version).Str("event_id", e.EventID).Msg("Model published")
		s.reloader.Notify(e.Version)
		return nil
	})
}

func (s *ModelEventService) String() string {
	return s.name
}
