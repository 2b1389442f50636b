// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package prepare

import (
	"context"
	"math"
	"testing"

	"github.com/tomtom215/bookshelf/internal/dataset"
)

func ratingsFor(user int64, n int, isbn string) []dataset.Rating {
	out := make([]dataset.Rating, n)
	for i := range out {
		out[i] = dataset.Rating{UserID: user, ISBN: isbn, Value: 5}
	}
	return out
}

func TestActivityFilter_StrictlyGreater(t *testing.T) {
	var ratings []dataset.Rating
	ratings = append(ratings, ratingsFor(1, 3, "a")...)
	ratings = append(ratings, ratingsFor(2, 2, "a")...)
	ratings = append(ratings, ratingsFor(3, 4, "b")...)

	got, active := ActivityFilter(ratings, 2)
	if active != 2 {
		t.Errorf("active users = %d, want 2", active)
	}
	if len(got) != 7 {
		t.Fatalf("len(got) = %d, want 7", len(got))
	}
	for _, r := range got {
		if r.UserID == 2 {
			t.Errorf("user 2 with exactly 2 ratings should be dropped")
		}
	}
}

func TestJoin(t *testing.T) {
	books := []dataset.Book{
		{ISBN: "1", Title: "Dune"},
		{ISBN: "2", Title: "Emma"},
		{ISBN: "1", Title: "Dune (reprint)"},
	}
	ratings := []dataset.Rating{
		{UserID: 7, ISBN: "1", Value: 8},
		{UserID: 7, ISBN: "9", Value: 3},
		{UserID: 8, ISBN: "2", Value: 0},
	}

	got := Join(ratings, books)
	want := []Triple{{7, "Dune", 8}, {8, "Emma", 0}}
	if len(got) != len(want) {
		t.Fatalf("Join() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Join()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPopularityFilter_Inclusive(t *testing.T) {
	triples := []Triple{
		{1, "A", 1}, {2, "A", 2},
		{1, "B", 3},
	}
	got := PopularityFilter(triples, 2)
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	for _, tr := range got {
		if tr.Title != "A" {
			t.Errorf("unexpected title %q", tr.Title)
		}
	}
}

func TestDedupe_KeepsFirst(t *testing.T) {
	triples := []Triple{{1, "A", 9}, {1, "A", 2}, {2, "A", 4}, {1, "B", 1}}
	got := Dedupe(triples)
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
	if got[0].Value != 9 {
		t.Errorf("got[0].Value = %d, want first occurrence 9", got[0].Value)
	}
}

func TestSummaries(t *testing.T) {
	triples := []Triple{{1, "B", 4}, {1, "A", 10}, {2, "A", 5}}
	got := Summaries(triples)
	if len(got) != 2 || got[0].Title != "A" || got[1].Title != "B" {
		t.Fatalf("Summaries() = %+v, want sorted A, B", got)
	}
	if got[0].RatingCount != 2 || math.Abs(got[0].MeanRating-7.5) > 1e-9 {
		t.Errorf("A summary = %+v, want count 2 mean 7.5", got[0])
	}
}

func TestCoverage(t *testing.T) {
	books := []dataset.Book{
		{ISBN: "1", Title: "A"}, {ISBN: "2", Title: "B"},
		{ISBN: "3", Title: "C"}, {ISBN: "4", Title: "D"},
		{ISBN: "5", Title: "D"},
	}
	tests := []struct {
		name     string
		filtered []Triple
		books    []dataset.Book
		want     float64
	}{
		{"empty filtered", nil, books, 0},
		{"empty books", []Triple{{1, "A", 1}}, nil, 0},
		{"half", []Triple{{1, "A", 1}, {2, "B", 1}, {3, "A", 2}}, books, 0.5},
		{"all", []Triple{{1, "A", 1}, {1, "B", 1}, {1, "C", 1}, {1, "D", 1}}, books, 1},
		{"clamped", []Triple{{1, "A", 1}, {1, "Z", 1}}, books[:1], 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Coverage(tt.filtered, tt.books)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Coverage() = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("Coverage() = %v, out of [0,1]", got)
			}
		})
	}
}

func TestRun(t *testing.T) {
	books := []dataset.Book{
		{ISBN: "a1", Title: "Alpha", Author: "first"},
		{ISBN: "a2", Title: "Alpha", Author: "second"},
		{ISBN: "b1", Title: "Beta"},
		{ISBN: "c1", Title: "Gamma"},
	}
	var ratings []dataset.Rating
	// users 1..3 are active (3 ratings each, threshold 2)
	for u := int64(1); u <= 3; u++ {
		ratings = append(ratings,
			dataset.Rating{UserID: u, ISBN: "a1", Value: int(u)},
			dataset.Rating{UserID: u, ISBN: "b1", Value: 4},
			dataset.Rating{UserID: u, ISBN: "c1", Value: 1},
		)
	}
	// user 1 rates Alpha again through another ISBN
	ratings = append(ratings, dataset.Rating{UserID: 1, ISBN: "a2", Value: 9})
	// user 9 is inactive
	ratings = append(ratings, dataset.Rating{UserID: 9, ISBN: "c1", Value: 7})

	ds := &dataset.Dataset{Books: books, Ratings: ratings}
	res, err := Run(context.Background(), ds, Options{MinUserRatings: 2, MinTitleRatings: 4})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.ActiveUsers != 3 {
		t.Errorf("ActiveUsers = %d, want 3", res.ActiveUsers)
	}
	// Only Alpha has >= 4 joined ratings (3 + user 1's repeat).
	if len(res.Summaries) != 1 || res.Summaries[0].Title != "Alpha" {
		t.Fatalf("Summaries = %+v, want only Alpha", res.Summaries)
	}
	if res.Summaries[0].RatingCount != 4 {
		t.Errorf("Alpha RatingCount = %d, want 4 before dedupe", res.Summaries[0].RatingCount)
	}
	if len(res.Triples) != 3 {
		t.Errorf("len(Triples) = %d, want 3 after dedupe", len(res.Triples))
	}
	if res.Triples[0].Value != 1 {
		t.Errorf("Triples[0].Value = %d, want first rating kept", res.Triples[0].Value)
	}
	if res.Books["Alpha"].Author != "first" {
		t.Errorf("Books[Alpha].Author = %q, want first in file order", res.Books["Alpha"].Author)
	}
	if math.Abs(res.Coverage-1.0/3.0) > 1e-9 {
		t.Errorf("Coverage = %v, want 1/3", res.Coverage)
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, &dataset.Dataset{}, Options{}); err == nil {
		t.Error("Run() error = nil, want context error")
	}
}
