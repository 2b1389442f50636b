// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package recommend

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

const (
	// MetricEuclidean is the only supported distance.
	MetricEuclidean = "euclidean"

	// AlgorithmBrute compares the query against every row.
	AlgorithmBrute = "brute"
)

// IndexState is the persisted part of a fitted index.
type IndexState struct {
	Metric    string
	Algorithm string

	// SqNorms holds the squared L2 norm of every matrix row.
	SqNorms []float64
}

// FitIndex computes the index state for m.
func FitIndex(m *Matrix) IndexState {
	norms := make([]float64, m.Rows)
	for i := range norms {
		_, vals := m.Row(i)
		norms[i] = floats.Dot(vals, vals)
	}
	return IndexState{
		Metric:    MetricEuclidean,
		Algorithm: AlgorithmBrute,
		SqNorms:   norms,
	}
}

// Neighbor is one result of a nearest-neighbor query.
type Neighbor struct {
	Row      int
	Distance float64
}

// Index is an exhaustive Euclidean nearest-neighbor index over matrix rows.
// It is read-only and safe for concurrent use.
type Index struct {
	m       *Matrix
	sqNorms []float64
}

// NewIndex binds a fitted state to its matrix.
func NewIndex(m *Matrix, state IndexState) (*Index, error) {
	if state.Metric != MetricEuclidean {
		return nil, fmt.Errorf("unsupported metric %q", state.Metric)
	}
	if state.Algorithm != AlgorithmBrute {
		return nil, fmt.Errorf("unsupported algorithm %q", state.Algorithm)
	}
	if len(state.SqNorms) != m.Rows {
		return nil, fmt.Errorf("%w: index has %d norms for %d rows", ErrArtifactMismatch, len(state.SqNorms), m.Rows)
	}
	return &Index{m: m, sqNorms: state.SqNorms}, nil
}

// KNeighbors returns the k rows nearest to row, nearest first. Ties are
// broken by row index, so the query row itself comes first unless another
// row with a lower index has an identical vector. k larger than the row
// count is clamped.
func (ix *Index) KNeighbors(row, k int) ([]Neighbor, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1, got %d", ErrInvalidCount, k)
	}
	if row < 0 || row >= ix.m.Rows {
		return nil, fmt.Errorf("row %d out of range [0,%d)", row, ix.m.Rows)
	}
	if k > ix.m.Rows {
		k = ix.m.Rows
	}

	qCols, qVals := ix.m.Row(row)
	qNorm := ix.sqNorms[row]

	all := make([]Neighbor, ix.m.Rows)
	for i := range all {
		cols, vals := ix.m.Row(i)
		d2 := qNorm + ix.sqNorms[i] - 2*sparseDot(qCols, qVals, cols, vals)
		if d2 < 0 {
			d2 = 0
		}
		all[i] = Neighbor{Row: i, Distance: math.Sqrt(d2)}
	}

	sort.Slice(all, func(a, b int) bool {
		if all[a].Distance != all[b].Distance {
			return all[a].Distance < all[b].Distance
		}
		return all[a].Row < all[b].Row
	})
	return all[:k], nil
}

// sparseDot is the dot product of two rows with sorted column indices.
func sparseDot(ac []int, av []float64, bc []int, bv []float64) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(ac) && j < len(bc) {
		switch {
		case ac[i] == bc[j]:
			sum += av[i] * bv[j]
			i++
			j++
		case ac[i] < bc[j]:
			i++
		default:
			j++
		}
	}
	return sum
}
