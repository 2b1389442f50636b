// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/bookshelf/internal/pipeline"
	"github.com/tomtom215/bookshelf/internal/recommend/storage"
)

// Builder runs one full build and returns the manifest it saved.
type Builder interface {
	Run(ctx context.Context) (*storage.Manifest, error)
}

// RebuildConfig configures RebuildService.
type RebuildConfig struct {
	// OnStartup runs a build as soon as the service starts.
	OnStartup bool

	// Interval between scheduled builds. Zero disables the schedule.
	Interval time.Duration

	// Timeout bounds one build. Zero means 30 minutes.
	Timeout time.Duration
}

// RebuildService runs the build pipeline inside the server process. The
// offline build command is the usual path; this is for deployments that
// want the server to refresh its own model.
type RebuildService struct {
	builder Builder
	config  RebuildConfig
	onBuilt func(version int)
	logger  zerolog.Logger
	name    string
}

// NewRebuildService creates the service. onBuilt, if set, is called with
// the version of every successful build.
func NewRebuildService(builder Builder, cfg RebuildConfig, onBuilt func(version int), logger zerolog.Logger) *RebuildService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	return &RebuildService{
		builder: builder,
		config:  cfg,
		onBuilt: onBuilt,
		logger:  logger.With().Str("service", "rebuild").Logger(),
		name:    "rebuild-service",
	}
}

// Serve implements suture.Service. Build failures are logged and retried on
// the next tick; they never restart the service.
func (s *RebuildService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("on_startup", s.config.OnStartup).
		Dur("interval", s.config.Interval).
		Msg("Rebuild service starting")

	if s.config.OnStartup {
		s.build(ctx)
	}

	if s.config.Interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.build(ctx)
		}
	}
}

func (s *RebuildService) build(ctx context.Context) {
	buildCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	manifest, err := s.builder.Run(buildCtx)
	switch {
	case errors.Is(err, pipeline.ErrBuildInProgress):
		s.logger.Info().Msg("Build skipped; another build is running")
		return
	case err != nil:
		s.logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("Model build failed")
		return
	}

	s.logger.Info().
		Int("version", manifest.Version).
		Int("titles", manifest.Rows).
		Int("users", manifest.Cols).
		Dur("duration", time.Since(start)).
		Msg("Model build complete")

	if s.onBuilt != nil {
		s.onBuilt(manifest.Version)
	}
}

func (s *RebuildService) String() string {
	return s.name
}
