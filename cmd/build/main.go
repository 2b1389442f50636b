// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Command build turns the Book-Crossing CSV dump into a new model version.
//
// It loads the three files, applies the activity and popularity filters,
// fits the title-by-user matrix and the neighbor index, and saves the
// bundle under the next version in MODEL_DIR. Old versions beyond
// MODEL_KEEP_VERSIONS are pruned. With EVENTS_BACKEND=nats the new version
// is announced on the model.published subject so running servers reload
// immediately; otherwise they pick it up on their next poll.
//
// Configuration is shared with the server (config.yaml and environment).
//
//	BOOKS_CSV=data/BX-Books.csv RATINGS_CSV=data/BX-Book-Ratings.csv \
//	USERS_CSV=data/BX-Users.csv MODEL_DIR=/data/model ./build
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/events"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/pipeline"
	"github.com/tomtom215/bookshelf/internal/recommend/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, cfg.Model.RebuildTimeout)
	defer cancel()

	store, err := storage.NewStore(cfg.Model.Dir)
	if err != nil {
		logging.Error().Err(err).Str("dir", cfg.Model.Dir).Msg("Failed to open model store")
		return 1
	}

	p := pipeline.New(cfg, store)

	if cfg.Events.Backend == "nats" {
		// The CLI is a client; an embedded server only makes sense in the API.
		eventsCfg := cfg.Events
		eventsCfg.Embedded = false
		bus, err := events.New(&eventsCfg)
		if err != nil {
			logging.Warn().Err(err).Str("url", eventsCfg.NATSURL).Msg("Event bus unavailable; servers will pick up the model on their next poll")
		} else {
			defer func() {
				if err := bus.Close(); err != nil {
					logging.Warn().Err(err).Msg("Event bus close failed")
				}
			}()
			p.SetPublisher(bus)
		}
	}

	manifest, err := p.Run(ctx)
	switch {
	case errors.Is(err, pipeline.ErrEmptyModel):
		logging.Error().
			Int("min_user_ratings", cfg.Pipeline.MinUserRatings).
			Int("min_title_ratings", cfg.Pipeline.MinTitleRatings).
			Msg("Filters left no ratings; nothing was saved")
		return 2
	case err != nil:
		logging.Error().Err(err).Msg("Build failed")
		return 1
	}

	logging.Info().
		Int("version", manifest.Version).
		Int("titles", manifest.Rows).
		Int("users", manifest.Cols).
		Int("ratings", manifest.Ratings).
		Float64("coverage", manifest.Coverage).
		Int64("duration_ms", manifest.BuildDurationMS).
		Str("dir", store.Dir()).
		Msg("Build complete")
	return 0
}
