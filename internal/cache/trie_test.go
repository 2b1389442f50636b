// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package cache

import (
	"reflect"
	"testing"
)

func titlesOf(s []Suggestion) []string {
	out := make([]string, len(s))
	for i, x := range s {
		out[i] = x.Title
	}
	return out
}

func TestTitleIndex_Suggest(t *testing.T) {
	idx := NewTitleIndex(
		[]string{"The Hobbit", "The Firm", "the lovely bones", "Harry Potter", "The Hobbit"},
		[]int{120, 80, 120, 300, 1},
	)

	if idx.Len() != 4 {
		t.Errorf("Len() = %d, want 4", idx.Len())
	}

	tests := []struct {
		name   string
		prefix string
		limit  int
		want   []string
	}{
		{"case insensitive, weight then alpha", "the", 10, []string{"The Hobbit", "the lovely bones", "The Firm"}},
		{"limit", "THE", 2, []string{"The Hobbit", "the lovely bones"}},
		{"narrow", "the f", 10, []string{"The Firm"}},
		{"no match", "zzz", 10, nil},
		{"blank prefix", "  ", 10, nil},
		{"zero limit", "the", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titlesOf(idx.Suggest(tt.prefix, tt.limit))
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Suggest(%q, %d) = %v, want %v", tt.prefix, tt.limit, got, tt.want)
			}
		})
	}
}

func TestTitleIndex_Contains(t *testing.T) {
	idx := NewTitleIndex([]string{"Dune"}, nil)
	if !idx.Contains("dune") {
		t.Error("Contains(dune) = false, want true")
	}
	if idx.Contains("Dun") {
		t.Error("Contains(Dun) = true for a bare prefix")
	}
}

func TestTitleIndex_DuplicateKeepsFirstWeight(t *testing.T) {
	idx := NewTitleIndex([]string{"Dune", "DUNE"}, []int{7, 99})
	got := idx.Suggest("du", 5)
	if len(got) != 1 || got[0].Title != "Dune" || got[0].Weight != 7 {
		t.Errorf("Suggest() = %+v, want first insertion only", got)
	}
}
