// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package recommend

import (
	"bytes"
	"encoding/gob"
	"reflect"
	"testing"

	"github.com/tomtom215/bookshelf/internal/prepare"
)

func TestBuildMatrix_Example(t *testing.T) {
	triples := []prepare.Triple{
		{UserID: 1, Title: "A", Value: 5},
		{UserID: 2, Title: "A", Value: 3},
		{UserID: 1, Title: "B", Value: 4},
	}

	m, labels := BuildMatrix(triples)

	if !reflect.DeepEqual(labels, []string{"A", "B"}) {
		t.Errorf("labels = %v, want [A B]", labels)
	}
	if !reflect.DeepEqual(m.Users, []int64{1, 2}) {
		t.Errorf("users = %v, want [1 2]", m.Users)
	}

	tests := []struct {
		row, col int
		want     float64
	}{
		{0, 0, 5},
		{0, 1, 3},
		{1, 0, 4},
		{1, 1, 0},
	}
	for _, tt := range tests {
		if got := m.At(tt.row, tt.col); got != tt.want {
			t.Errorf("At(%d,%d) = %v, want %v", tt.row, tt.col, got, tt.want)
		}
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestBuildMatrix_DuplicateKeepsFirst(t *testing.T) {
	m, _ := BuildMatrix([]prepare.Triple{
		{UserID: 1, Title: "A", Value: 7},
		{UserID: 1, Title: "A", Value: 2},
	})
	if got := m.At(0, 0); got != 7 {
		t.Errorf("At(0,0) = %v, want first value 7", got)
	}
	if m.NNZ() != 1 {
		t.Errorf("NNZ() = %d, want 1", m.NNZ())
	}
}

func TestBuildMatrix_ZeroRatingNotStored(t *testing.T) {
	m, labels := BuildMatrix([]prepare.Triple{
		{UserID: 3, Title: "A", Value: 0},
		{UserID: 4, Title: "A", Value: 6},
	})
	if len(labels) != 1 || m.Cols != 2 {
		t.Fatalf("shape = %dx%d, want 1x2", m.Rows, m.Cols)
	}
	if m.NNZ() != 1 {
		t.Errorf("NNZ() = %d, want explicit zeros dropped", m.NNZ())
	}
	if !reflect.DeepEqual(m.DenseRow(0), []float64{0, 6}) {
		t.Errorf("DenseRow(0) = %v, want [0 6]", m.DenseRow(0))
	}
}

func TestBuildMatrix_Deterministic(t *testing.T) {
	triples := []prepare.Triple{
		{UserID: 9, Title: "Zed", Value: 1},
		{UserID: 2, Title: "Alpha", Value: 8},
		{UserID: 5, Title: "Mid", Value: 3},
		{UserID: 2, Title: "Zed", Value: 4},
		{UserID: 5, Title: "Alpha", Value: 10},
	}
	reversed := make([]prepare.Triple, len(triples))
	for i, tr := range triples {
		reversed[len(triples)-1-i] = tr
	}

	encode := func(ts []prepare.Triple) []byte {
		m, labels := BuildMatrix(ts)
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(struct {
			M      *Matrix
			Labels []string
		}{m, labels}); err != nil {
			t.Fatalf("encode: %v", err)
		}
		return buf.Bytes()
	}

	first := encode(triples)
	if !bytes.Equal(first, encode(triples)) {
		t.Error("rebuilding from the same triples produced different bytes")
	}
	if !bytes.Equal(first, encode(reversed)) {
		t.Error("input order without duplicates should not change the matrix")
	}
}

func TestBuildMatrix_Empty(t *testing.T) {
	m, labels := BuildMatrix(nil)
	if m.Rows != 0 || m.Cols != 0 || len(labels) != 0 {
		t.Errorf("BuildMatrix(nil) = %dx%d, %v", m.Rows, m.Cols, labels)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestMatrix_ValidateRejectsCorruption(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Matrix)
	}{
		{"short row pointers", func(m *Matrix) { m.RowPtr = m.RowPtr[:1] }},
		{"unsorted columns", func(m *Matrix) { m.ColIdx[0], m.ColIdx[1] = m.ColIdx[1], m.ColIdx[0] }},
		{"column out of range", func(m *Matrix) { m.ColIdx[1] = 99 }},
		{"missing users", func(m *Matrix) { m.Users = nil }},
		{"values length", func(m *Matrix) { m.Values = m.Values[:1] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := BuildMatrix([]prepare.Triple{
				{UserID: 1, Title: "A", Value: 1},
				{UserID: 2, Title: "A", Value: 2},
			})
			tt.mutate(m)
			if err := m.Validate(); err == nil {
				t.Error("Validate() error = nil, want corruption detected")
			}
		})
	}
}
