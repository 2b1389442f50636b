// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package pipeline runs the build stage: load the BX files, prepare the
// rating triples, fit the model and persist a new artifact version.
//
// Both cmd/build and the server's rebuild service call Pipeline.Run, so a
// version written by either one is picked up by the reload service.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/dataset"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
	"github.com/tomtom215/bookshelf/internal/prepare"
	"github.com/tomtom215/bookshelf/internal/recommend"
	"github.com/tomtom215/bookshelf/internal/recommend/storage"
)

var (
	// ErrBuildInProgress is returned when Run is called while another run
	// on the same Pipeline has not finished.
	ErrBuildInProgress = errors.New("build already in progress")

	// ErrEmptyModel is returned when the filters leave no ratings. Nothing
	// is written in that case.
	ErrEmptyModel = errors.New("filters left no ratings")
)

// Publisher announces a newly saved version.
type Publisher interface {
	PublishModel(ctx context.Context, m *storage.Manifest) error
}

// Pipeline builds and saves model versions.
type Pipeline struct {
	dataset   config.DatasetConfig
	opts      prepare.Options
	keep      int
	store     *storage.Store
	publisher Publisher
	logger    zerolog.Logger

	mu      sync.Mutex
	running bool
}

// New creates a Pipeline from the dataset, pipeline and model sections.
func New(cfg *config.Config, store *storage.Store) *Pipeline {
	return &Pipeline{
		dataset: cfg.Dataset,
		opts: prepare.Options{
			MinUserRatings:  cfg.Pipeline.MinUserRatings,
			MinTitleRatings: cfg.Pipeline.MinTitleRatings,
		},
		keep:   cfg.Model.KeepVersions,
		store:  store,
		logger: logging.WithComponent("pipeline"),
	}
}

// SetPublisher sets the publisher notified after each saved version.
func (p *Pipeline) SetPublisher(pub Publisher) {
	p.publisher = pub
}

// Run executes one build and returns the manifest of the saved version.
func (p *Pipeline) Run(ctx context.Context) (*storage.Manifest, error) {
	if err := p.acquire(); err != nil {
		return nil, err
	}
	defer p.release()

	manifest, err := p.run(ctx)
	metrics.RecordPipelineRun(err)
	return manifest, err
}

func (p *Pipeline) run(ctx context.Context) (*storage.Manifest, error) {
	start := time.Now()

	ds, err := stage("load", func() (*dataset.Dataset, error) {
		return dataset.Load(ctx, &p.dataset)
	})
	if err != nil {
		return nil, err
	}

	res, err := stage("prepare", func() (*prepare.Result, error) {
		return prepare.Run(ctx, ds, p.opts)
	})
	if err != nil {
		return nil, err
	}
	if len(res.Triples) == 0 {
		p.logger.Warn().
			Int("min_user_ratings", p.opts.MinUserRatings).
			Int("min_title_ratings", p.opts.MinTitleRatings).
			Float64("coverage", res.Coverage).
			Msg("No ratings survived the filters")
		return nil, ErrEmptyModel
	}

	bundle, err := stage("fit", func() (*storage.Bundle, error) {
		return BuildBundle(res, p.opts)
	})
	if err != nil {
		return nil, err
	}
	bundle.Manifest.BuildDurationMS = time.Since(start).Milliseconds()

	manifest, err := stage("save", func() (*storage.Manifest, error) {
		return p.store.SaveBundle(ctx, bundle)
	})
	if err != nil {
		return nil, err
	}

	if err := p.store.Prune(ctx, p.keep); err != nil {
		// The new version is already durable; a failed prune only leaves
		// old files behind.
		p.logger.Warn().Err(err).Int("keep", p.keep).Msg("Failed to prune old model versions")
	}

	p.logger.Info().
		Int("version", manifest.Version).
		Int("titles", manifest.Rows).
		Int("users", manifest.Cols).
		Int("nnz", manifest.NNZ).
		Float64("coverage", manifest.Coverage).
		Dur("duration", time.Since(start)).
		Msg("Model version saved")

	if p.publisher != nil {
		if err := p.publisher.PublishModel(ctx, manifest); err != nil {
			// Readers also poll the store, so a lost event only delays the swap.
			p.logger.Warn().Err(err).Int("version", manifest.Version).Msg("Failed to publish model event")
		}
	}

	return manifest, nil
}

// BuildBundle fits the matrix and index for res and assembles the catalog.
func BuildBundle(res *prepare.Result, opts prepare.Options) (*storage.Bundle, error) {
	matrix, labels := recommend.BuildMatrix(res.Triples)
	if err := matrix.Validate(); err != nil {
		return nil, fmt.Errorf("build matrix: %w", err)
	}
	state := recommend.FitIndex(matrix)

	return &storage.Bundle{
		Matrix:  matrix,
		Labels:  labels,
		Index:   state,
		Catalog: CatalogEntries(labels, res),
		Manifest: storage.Manifest{
			BuiltAt:         time.Now().UTC(),
			Coverage:        res.Coverage,
			MinUserRatings:  opts.MinUserRatings,
			MinTitleRatings: opts.MinTitleRatings,
			ActiveUsers:     res.ActiveUsers,
			Ratings:         len(res.Triples),
		},
	}, nil
}

// CatalogEntries returns one entry per label, in label order.
func CatalogEntries(labels []string, res *prepare.Result) []storage.CatalogEntry {
	summaries := make(map[string]prepare.TitleSummary, len(res.Summaries))
	for _, s := range res.Summaries {
		summaries[s.Title] = s
	}

	out := make([]storage.CatalogEntry, len(labels))
	for i, title := range labels {
		b := res.Books[title]
		s := summaries[title]
		out[i] = storage.CatalogEntry{
			Title:       title,
			ISBN:        b.ISBN,
			Author:      b.Author,
			Year:        b.Year,
			Publisher:   b.Publisher,
			ImageURL:    b.ImageURL,
			RatingCount: s.RatingCount,
			MeanRating:  s.MeanRating,
		}
	}
	return out
}

func (p *Pipeline) acquire() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return ErrBuildInProgress
	}
	p.running = true
	return nil
}

func (p *Pipeline) release() {
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

// stage times fn under the given stage label.
func stage[T any](name string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	metrics.RecordPipelineStage(name, time.Since(start))
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}
