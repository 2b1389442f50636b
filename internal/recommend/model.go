// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package recommend

import (
	"errors"
	"fmt"

	"github.com/tomtom215/bookshelf/internal/prepare"
)

var (
	// ErrNotFound is returned when a title is not a matrix row.
	ErrNotFound = errors.New("title not found")

	// ErrInvalidCount is returned for a non-positive neighbor count.
	ErrInvalidCount = errors.New("invalid neighbor count")

	// ErrArtifactMismatch is returned when the matrix, labels and index
	// state do not describe the same rows.
	ErrArtifactMismatch = errors.New("artifact mismatch")
)

// Model bundles a matrix, its row labels and the fitted index. A Model is
// never modified after NewModel returns; rebuilds produce a new one.
type Model struct {
	matrix *Matrix
	labels []string
	state  IndexState
	index  *Index
	rowOf  map[string]int
}

// NewModel validates the three artifacts against each other and returns the
// bundled handle. Labels must be unique and match the matrix row count.
func NewModel(m *Matrix, labels []string, state IndexState) (*Model, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil matrix", ErrArtifactMismatch)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactMismatch, err)
	}
	if len(labels) != m.Rows {
		return nil, fmt.Errorf("%w: %d labels for %d matrix rows", ErrArtifactMismatch, len(labels), m.Rows)
	}

	rowOf := make(map[string]int, len(labels))
	for i, title := range labels {
		if _, dup := rowOf[title]; dup {
			return nil, fmt.Errorf("%w: duplicate label %q", ErrArtifactMismatch, title)
		}
		rowOf[title] = i
	}

	index, err := NewIndex(m, state)
	if err != nil {
		return nil, err
	}

	return &Model{
		matrix: m,
		labels: labels,
		state:  state,
		index:  index,
		rowOf:  rowOf,
	}, nil
}

// Fit builds a model directly from prepared triples.
func Fit(triples []prepare.Triple) (*Model, error) {
	m, labels := BuildMatrix(triples)
	return NewModel(m, labels, FitIndex(m))
}

// Matrix returns the rating matrix. Callers must not modify it.
func (m *Model) Matrix() *Matrix { return m.matrix }

// IndexState returns the fitted index state. Callers must not modify it.
func (m *Model) IndexState() IndexState { return m.state }

// Labels returns a copy of the row labels.
func (m *Model) Labels() []string {
	out := make([]string, len(m.labels))
	copy(out, m.labels)
	return out
}

// Rows is the number of titles.
func (m *Model) Rows() int { return m.matrix.Rows }

// Cols is the number of users.
func (m *Model) Cols() int { return m.matrix.Cols }

// Lookup resolves a title to its row.
func (m *Model) Lookup(title string) (int, bool) {
	row, ok := m.rowOf[title]
	return row, ok
}

// Title returns the label of row.
func (m *Model) Title(row int) string { return m.labels[row] }

// Recommendation is one recommended title.
type Recommendation struct {
	Title    string  `json:"title"`
	Row      int     `json:"row"`
	Distance float64 `json:"distance"`
}

// Recommend returns up to n titles nearest to title, excluding the title's
// own row. Exclusion is by row index.
func Recommend(m *Model, title string, n int) ([]Recommendation, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: n must be >= 1, got %d", ErrInvalidCount, n)
	}
	row, ok := m.Lookup(title)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, title)
	}

	neighbors, err := m.index.KNeighbors(row, n+1)
	if err != nil {
		return nil, err
	}

	out := make([]Recommendation, 0, n)
	for _, nb := range neighbors {
		if nb.Row == row {
			continue
		}
		if len(out) == n {
			break
		}
		out = append(out, Recommendation{
			Title:    m.labels[nb.Row],
			Row:      nb.Row,
			Distance: nb.Distance,
		})
	}
	return out, nil
}
