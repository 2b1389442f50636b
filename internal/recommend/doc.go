// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package recommend builds the title-by-user rating matrix and answers
// "readers who liked this also liked" queries over it.
//
// # Model
//
// BuildMatrix pivots prepared (user, title, rating) triples into a CSR
// matrix whose rows are sorted titles and whose columns are sorted user ids.
// FitIndex computes the state of a brute-force Euclidean index over the
// rows. NewModel checks that the matrix, labels and index state agree and
// bundles them into an immutable *Model.
//
// # Queries
//
// Recommend resolves a title to its row, asks the index for n+1 neighbors
// and drops the query row by index:
//
//	m, err := recommend.Fit(result.Triples)
//	if err != nil {
//	    return err
//	}
//	recs, err := recommend.Recommend(m, "The Da Vinci Code", 5)
//
// Unknown titles fail with ErrNotFound. Queries are deterministic: ties in
// distance are broken by row index.
//
// # Serving
//
// A running server publishes the current model through a Holder. Reloads
// store a new Handle; readers never observe a partially built model.
package recommend
