// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package recommend

import (
	"fmt"
	"sort"

	"github.com/tomtom215/bookshelf/internal/prepare"
)

// Matrix is a title-by-user rating matrix in compressed sparse row form.
//
// Row i holds the ratings of title i. Its non-zero entries are
// ColIdx[RowPtr[i]:RowPtr[i+1]] with the matching Values, sorted by column.
// Every other cell is exactly zero. Users maps column index to user id.
type Matrix struct {
	Rows   int
	Cols   int
	RowPtr []int
	ColIdx []int
	Values []float64
	Users  []int64
}

// BuildMatrix pivots triples into a matrix and returns it with its row
// labels. Rows are sorted titles, columns are sorted user ids, and when a
// (title, user) pair repeats only the first triple counts.
func BuildMatrix(triples []prepare.Triple) (*Matrix, []string) {
	titleSet := make(map[string]struct{})
	userSet := make(map[int64]struct{})
	for _, t := range triples {
		titleSet[t.Title] = struct{}{}
		userSet[t.UserID] = struct{}{}
	}

	labels := make([]string, 0, len(titleSet))
	for title := range titleSet {
		labels = append(labels, title)
	}
	sort.Strings(labels)

	users := make([]int64, 0, len(userSet))
	for u := range userSet {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	rowOf := make(map[string]int, len(labels))
	for i, title := range labels {
		rowOf[title] = i
	}
	colOf := make(map[int64]int, len(users))
	for i, u := range users {
		colOf[u] = i
	}

	type cell struct {
		col   int
		value float64
	}
	type pair struct {
		row, col int
	}
	rows := make([][]cell, len(labels))
	seen := make(map[pair]struct{}, len(triples))
	for _, t := range triples {
		p := pair{rowOf[t.Title], colOf[t.UserID]}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		if t.Value == 0 {
			continue
		}
		rows[p.row] = append(rows[p.row], cell{p.col, float64(t.Value)})
	}

	m := &Matrix{
		Rows:   len(labels),
		Cols:   len(users),
		RowPtr: make([]int, len(labels)+1),
		Users:  users,
	}
	for i, r := range rows {
		sort.Slice(r, func(a, b int) bool { return r[a].col < r[b].col })
		for _, c := range r {
			m.ColIdx = append(m.ColIdx, c.col)
			m.Values = append(m.Values, c.value)
		}
		m.RowPtr[i+1] = len(m.ColIdx)
	}
	return m, labels
}

// Row returns the column indices and values of row i. The slices alias the
// matrix and must not be modified.
func (m *Matrix) Row(i int) ([]int, []float64) {
	lo, hi := m.RowPtr[i], m.RowPtr[i+1]
	return m.ColIdx[lo:hi], m.Values[lo:hi]
}

// At returns the value at (row, col), or 0 when the cell is unobserved.
func (m *Matrix) At(row, col int) float64 {
	cols, vals := m.Row(row)
	j := sort.SearchInts(cols, col)
	if j < len(cols) && cols[j] == col {
		return vals[j]
	}
	return 0
}

// DenseRow expands row i to a slice of length Cols.
func (m *Matrix) DenseRow(i int) []float64 {
	out := make([]float64, m.Cols)
	cols, vals := m.Row(i)
	for j, c := range cols {
		out[c] = vals[j]
	}
	return out
}

// NNZ is the number of stored entries.
func (m *Matrix) NNZ() int {
	return len(m.Values)
}

// Validate checks the CSR invariants.
func (m *Matrix) Validate() error {
	if m.Rows < 0 || m.Cols < 0 {
		return fmt.Errorf("negative shape %dx%d", m.Rows, m.Cols)
	}
	if len(m.RowPtr) != m.Rows+1 {
		return fmt.Errorf("row pointer length %d, want %d", len(m.RowPtr), m.Rows+1)
	}
	if len(m.Users) != m.Cols {
		return fmt.Errorf("user labels %d, want %d", len(m.Users), m.Cols)
	}
	if len(m.ColIdx) != len(m.Values) {
		return fmt.Errorf("column index length %d differs from values length %d", len(m.ColIdx), len(m.Values))
	}
	if m.RowPtr[0] != 0 || m.RowPtr[m.Rows] != len(m.Values) {
		return fmt.Errorf("row pointers do not span the value array")
	}
	for i := 0; i < m.Rows; i++ {
		lo, hi := m.RowPtr[i], m.RowPtr[i+1]
		if hi < lo {
			return fmt.Errorf("row %d has decreasing pointers", i)
		}
		prev := -1
		for _, c := range m.ColIdx[lo:hi] {
			if c <= prev || c >= m.Cols {
				return fmt.Errorf("row %d has invalid column %d", i, c)
			}
			prev = c
		}
	}
	return nil
}
