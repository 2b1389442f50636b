// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package storage persists model bundles between the build and serve stages.
//
// # Storage Format
//
// Every artifact is gob-encoded, gzip-compressed and checksummed:
//
//	filename: {artifact}_v{version}.gob.gz
//
//	structure:
//	  - Metadata (ArtifactMetadata, including the SHA-256 of the gob data)
//	  - CompressedData (gzip-compressed gob-encoded value)
//
// A bundle version consists of five artifacts:
//
//	/data/model/
//	  index_v3.gob.gz     recommend.IndexState
//	  matrix_v3.gob.gz    recommend.Matrix
//	  titles_v3.gob.gz    ordered row labels
//	  catalog_v3.gob.gz   []CatalogEntry
//	  manifest_v3.gob.gz  Manifest, written last
//
// A version without a manifest is incomplete and is never loaded. Files are
// written to a temporary name and renamed into place.
//
// # Usage
//
//	store, err := storage.NewStore(cfg.Model.Dir)
//	if err != nil {
//	    return err
//	}
//	manifest, err := store.SaveBundle(ctx, bundle)
//
//	bundle, err := store.LoadBundle(ctx, 0) // 0 = latest
//	if errors.Is(err, storage.ErrNoModel) {
//	    // nothing built yet
//	}
//	model, err := bundle.Model()
//
// # Thread Safety
//
// A Store is safe for concurrent use within one process. Separate processes
// coordinate through the manifest-last write order; readers call Refresh to
// see versions written elsewhere.
package storage
