// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/bookshelf/internal/metrics"
	"github.com/tomtom215/bookshelf/internal/recommend"
	"github.com/tomtom215/bookshelf/internal/recommend/storage"
)

// Reload triggers, used as metric labels.
const (
	TriggerStartup = "startup"
	TriggerPoll    = "poll"
	TriggerEvent   = "event"
)

// ModelStore is the read side of the artifact store.
type ModelStore interface {
	Refresh() error
	LatestVersion(name string) (int, bool)
	LoadBundle(ctx context.Context, version int) (*storage.Bundle, error)
}

// CatalogLoader replaces the queryable catalog with a version's entries.
type CatalogLoader interface {
	ReplaceCatalog(ctx context.Context, version int, entries []storage.CatalogEntry) error
}

// ModelNotifier is told about every model that goes live.
type ModelNotifier interface {
	BroadcastModelPublished(version, rows, cols int, coverage float64)
}

// ModelReloadConfig configures ModelReloadService.
type ModelReloadConfig struct {
	// PollInterval is how often the store is checked. Zero means 30s.
	PollInterval time.Duration

	// MinInterval spaces out consecutive reload attempts. Zero means 1s.
	MinInterval time.Duration
}

// ModelReloadService keeps the Holder on the newest complete version in the
// store. It checks on start, on every poll tick and whenever Notify is
// called with a version newer than the one served.
type ModelReloadService struct {
	store    ModelStore
	holder   *recommend.Holder
	catalog  CatalogLoader
	notifier ModelNotifier
	config   ModelReloadConfig
	limiter  *rate.Limiter
	kick     chan int
	logger   zerolog.Logger
	name     string
	now      func() time.Time
}

// NewModelReloadService creates the service. catalog and notifier may be nil.
func NewModelReloadService(store ModelStore, holder *recommend.Holder, catalog CatalogLoader, notifier ModelNotifier, cfg ModelReloadConfig, logger zerolog.Logger) *ModelReloadService {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = time.Second
	}
	return &ModelReloadService{
		store:    store,
		holder:   holder,
		catalog:  catalog,
		notifier: notifier,
		config:   cfg,
		limiter:  rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		kick:     make(chan int, 1),
		logger:   logger.With().Str("service", "model-reload").Logger(),
		name:     "model-reload",
		now:      time.Now,
	}
}

// Notify asks for a reload if version is newer than the served one. It
// never blocks; a pending request already covers any later version.
func (s *ModelReloadService) Notify(version int) {
	if version <= s.holder.Version() {
		return
	}
	select {
	case s.kick <- version:
	default:
	}
}

// Serve implements suture.Service.
func (s *ModelReloadService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("poll_interval", s.config.PollInterval).Msg("Model reload service starting")
	s.attempt(ctx, TriggerStartup)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.attempt(ctx, TriggerPoll)
		case v := <-s.kick:
			s.logger.Debug().Int("version", v).Msg("Reload requested")
			s.attempt(ctx, TriggerEvent)
		}
	}
}

func (s *ModelReloadService) attempt(ctx context.Context, trigger string) {
	if err := s.limiter.Wait(ctx); err != nil {
		return
	}
	swapped, err := s.Reload(ctx)
	switch {
	case errors.Is(err, storage.ErrNoModel):
		s.logger.Warn().Str("trigger", trigger).Msg("No model in the store yet; run the build first")
	case err != nil:
		metrics.RecordModelReload(trigger, err)
		s.logger.Error().Err(err).Str("trigger", trigger).Int("serving", s.holder.Version()).Msg("Model reload failed")
	case swapped:
		metrics.RecordModelReload(trigger, nil)
	}
}

// Reload loads the newest stored version if it is newer than the served
// one. It reports whether a new model went live. A failed load leaves the
// current model in place.
func (s *ModelReloadService) Reload(ctx context.Context) (bool, error) {
	if err := s.store.Refresh(); err != nil {
		return false, fmt.Errorf("refresh store: %w", err)
	}
	latest, ok := s.store.LatestVersion(storage.ArtifactManifest)
	if !ok {
		return false, storage.ErrNoModel
	}
	if latest <= s.holder.Version() {
		return false, nil
	}

	start := s.now()
	bundle, err := s.store.LoadBundle(ctx, latest)
	if err != nil {
		return false, err
	}
	model, err := bundle.Model()
	if err != nil {
		return false, fmt.Errorf("model v%d: %w", latest, err)
	}

	if s.catalog != nil {
		if err := s.catalog.ReplaceCatalog(ctx, latest, bundle.Catalog); err != nil {
			return false, fmt.Errorf("catalog v%d: %w", latest, err)
		}
	}

	hd := &recommend.Handle{
		Model:    model,
		Version:  latest,
		Coverage: bundle.Manifest.Coverage,
		BuiltAt:  bundle.Manifest.BuiltAt,
		LoadedAt: s.now(),
	}
	prev := s.holder.Store(hd)
	metrics.RecordModelLoaded(hd.Version, model.Rows(), model.Cols(), hd.Coverage)

	event := s.logger.Info().
		Int("version", hd.Version).
		Int("titles", model.Rows()).
		Int("users", model.Cols()).
		Float64("coverage", hd.Coverage).
		Dur("duration", s.now().Sub(start))
	if prev != nil {
		event = event.Int("previous", prev.Version)
	}
	event.Msg("Model swapped in")

	if s.notifier != nil {
		s.notifier.BroadcastModelPublished(hd.Version, model.Rows(), model.Cols(), hd.Coverage)
	}
	return true, nil
}

func (s *ModelReloadService) String() string {
	return s.name
}
