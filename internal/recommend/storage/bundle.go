// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/tomtom215/bookshelf/internal/recommend"
)

// CatalogEntry is the display record of one matrix title.
type CatalogEntry struct {
	Title       string
	ISBN        string
	Author      string
	Year        string
	Publisher   string
	ImageURL    string
	RatingCount int
	MeanRating  float64
}

// Manifest describes a complete bundle version.
type Manifest struct {
	Version  int       `json:"version"`
	BuiltAt  time.Time `json:"built_at"`
	Rows     int       `json:"rows"`
	Cols     int       `json:"cols"`
	NNZ      int       `json:"nnz"`
	Coverage float64   `json:"coverage"`

	MinUserRatings  int `json:"min_user_ratings"`
	MinTitleRatings int `json:"min_title_ratings"`
	ActiveUsers     int `json:"active_users"`
	Ratings         int `json:"ratings"`

	BuildDurationMS int64 `json:"build_duration_ms"`

	Artifacts []ArtifactMetadata `json:"artifacts"`
}

// Bundle is everything the build stage produces for one version.
type Bundle struct {
	Matrix   *recommend.Matrix
	Labels   []string
	Index    recommend.IndexState
	Catalog  []CatalogEntry
	Manifest Manifest
}

// Model validates the bundle and returns the immutable model handle.
func (b *Bundle) Model() (*recommend.Model, error) {
	return recommend.NewModel(b.Matrix, b.Labels, b.Index)
}

// NextVersion returns the version a new bundle should be saved under.
func (s *Store) NextVersion() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	next := 0
	for _, v := range s.versions {
		if v > next {
			next = v
		}
	}
	return next + 1
}

// SaveBundle writes b under the next free version and returns the manifest.
// The manifest is written last, so a reader that sees it can load the rest.
func (s *Store) SaveBundle(ctx context.Context, b *Bundle) (*Manifest, error) {
	if b.Matrix == nil {
		return nil, fmt.Errorf("save bundle: nil matrix")
	}
	if len(b.Labels) != b.Matrix.Rows {
		return nil, fmt.Errorf("save bundle: %w: %d labels for %d rows", recommend.ErrArtifactMismatch, len(b.Labels), b.Matrix.Rows)
	}

	version := s.NextVersion()
	manifest := b.Manifest
	manifest.Version = version
	manifest.Rows = b.Matrix.Rows
	manifest.Cols = b.Matrix.Cols
	manifest.NNZ = b.Matrix.NNZ()
	if manifest.BuiltAt.IsZero() {
		manifest.BuiltAt = time.Now().UTC()
	}
	manifest.Artifacts = nil

	parts := []struct {
		name string
		data any
	}{
		{ArtifactIndex, b.Index},
		{ArtifactMatrix, b.Matrix},
		{ArtifactTitles, b.Labels},
		{ArtifactCatalog, b.Catalog},
	}
	for _, p := range parts {
		meta, err := s.Save(ctx, p.name, version, p.data)
		if err != nil {
			return nil, fmt.Errorf("save bundle v%d: %w", version, err)
		}
		manifest.Artifacts = append(manifest.Artifacts, *meta)
	}

	if _, err := s.Save(ctx, ArtifactManifest, version, manifest); err != nil {
		return nil, fmt.Errorf("save bundle v%d: %w", version, err)
	}

	b.Manifest = manifest
	return &manifest, nil
}

// LoadBundle loads a complete version. Version 0 means the latest one.
func (s *Store) LoadBundle(ctx context.Context, version int) (*Bundle, error) {
	if version == 0 {
		v, ok := s.LatestVersion(ArtifactManifest)
		if !ok {
			return nil, ErrNoModel
		}
		version = v
	}

	var b Bundle
	if _, err := s.Load(ctx, ArtifactManifest, version, &b.Manifest); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: version %d", ErrNoModel, version)
		}
		return nil, err
	}

	b.Matrix = &recommend.Matrix{}
	parts := []struct {
		name   string
		target any
	}{
		{ArtifactIndex, &b.Index},
		{ArtifactMatrix, b.Matrix},
		{ArtifactTitles, &b.Labels},
		{ArtifactCatalog, &b.Catalog},
	}
	for _, p := range parts {
		meta, err := s.Load(ctx, p.name, version, p.target)
		if err != nil {
			return nil, fmt.Errorf("load bundle v%d: %w", version, err)
		}
		if want, ok := b.Manifest.checksum(p.name); ok && want != meta.Checksum {
			return nil, fmt.Errorf("load bundle v%d: %w: %s does not match manifest", version, ErrChecksum, p.name)
		}
	}

	if len(b.Labels) != b.Matrix.Rows {
		return nil, fmt.Errorf("load bundle v%d: %w: %d labels for %d rows", version, recommend.ErrArtifactMismatch, len(b.Labels), b.Matrix.Rows)
	}

	return &b, nil
}

// ListVersions returns the manifests of all complete versions, newest first.
func (s *Store) ListVersions(ctx context.Context) ([]Manifest, error) {
	found, err := s.scan()
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	versions := append([]int(nil), found[ArtifactManifest]...)
	sort.Sort(sort.Reverse(sort.IntSlice(versions)))

	out := make([]Manifest, 0, len(versions))
	for _, v := range versions {
		var m Manifest
		if _, err := s.Load(ctx, ArtifactManifest, v, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (m *Manifest) checksum(name string) (string, bool) {
	for _, a := range m.Artifacts {
		if a.Name == name {
			return a.Checksum, true
		}
	}
	return "", false
}
