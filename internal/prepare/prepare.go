// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package prepare reduces the raw BX tables to the dense rating subset the
// matrix is built from.
//
// The steps run in a fixed order:
//
//  1. ActivityFilter keeps ratings from users with more than MinUserRatings ratings.
//  2. Join attaches the book title to each rating by ISBN (inner join).
//  3. PopularityFilter keeps titles with at least MinTitleRatings joined ratings.
//  4. Dedupe keeps the first rating per (user, title).
//
// Summaries are computed after step 3 and before step 4, so per-title rating
// counts include repeat ratings of the same title by one user.
package prepare

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/tomtom215/bookshelf/internal/dataset"
	"github.com/tomtom215/bookshelf/internal/logging"
)

// Triple is one (user, title, rating) observation.
type Triple struct {
	UserID int64
	Title  string
	Value  int
}

// TitleSummary aggregates the popular ratings of one title.
type TitleSummary struct {
	Title       string
	RatingCount int
	MeanRating  float64
}

// Options holds the filter thresholds.
type Options struct {
	MinUserRatings  int
	MinTitleRatings int
}

// Result is the outcome of Run.
type Result struct {
	// Triples are the deduplicated popular ratings in input order.
	Triples []Triple

	// Books maps each surviving title to its first book record in file order.
	Books map[string]dataset.Book

	// Summaries are sorted by title.
	Summaries []TitleSummary

	ActiveUsers   int
	JoinedRatings int
	TotalTitles   int
	Coverage      float64
}

// ActivityFilter keeps ratings whose user has strictly more than minRatings
// ratings. Order is preserved.
func ActivityFilter(ratings []dataset.Rating, minRatings int) ([]dataset.Rating, int) {
	counts := make(map[int64]int)
	for _, r := range ratings {
		counts[r.UserID]++
	}

	active := 0
	for _, c := range counts {
		if c > minRatings {
			active++
		}
	}

	out := make([]dataset.Rating, 0, len(ratings))
	for _, r := range ratings {
		if counts[r.UserID] > minRatings {
			out = append(out, r)
		}
	}
	return out, active
}

// Join attaches titles to ratings by ISBN. Ratings for unknown ISBNs are
// dropped. If an ISBN appears more than once in books, the first wins.
func Join(ratings []dataset.Rating, books []dataset.Book) []Triple {
	titles := make(map[string]string, len(books))
	for _, b := range books {
		if _, ok := titles[b.ISBN]; !ok {
			titles[b.ISBN] = b.Title
		}
	}

	out := make([]Triple, 0, len(ratings))
	for _, r := range ratings {
		title, ok := titles[r.ISBN]
		if !ok {
			continue
		}
		out = append(out, Triple{UserID: r.UserID, Title: title, Value: r.Value})
	}
	return out
}

// PopularityFilter keeps triples whose title has at least minRatings triples.
func PopularityFilter(triples []Triple, minRatings int) []Triple {
	counts := make(map[string]int)
	for _, t := range triples {
		counts[t.Title]++
	}

	out := make([]Triple, 0, len(triples))
	for _, t := range triples {
		if counts[t.Title] >= minRatings {
			out = append(out, t)
		}
	}
	return out
}

// Dedupe keeps the first triple for each (user, title) pair.
func Dedupe(triples []Triple) []Triple {
	type key struct {
		user  int64
		title string
	}
	seen := make(map[key]struct{}, len(triples))
	out := make([]Triple, 0, len(triples))
	for _, t := range triples {
		k := key{t.UserID, t.Title}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Summaries returns the rating count and mean rating of every title in
// triples, sorted by title.
func Summaries(triples []Triple) []TitleSummary {
	values := make(map[string][]float64)
	for _, t := range triples {
		values[t.Title] = append(values[t.Title], float64(t.Value))
	}

	out := make([]TitleSummary, 0, len(values))
	for title, v := range values {
		out = append(out, TitleSummary{
			Title:       title,
			RatingCount: len(v),
			MeanRating:  stat.Mean(v, nil),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// Coverage is the share of distinct titles that survive filtering. It is 0
// when either set is empty and never exceeds 1.
func Coverage(filtered []Triple, books []dataset.Book) float64 {
	all := DistinctTitles(books)
	if all == 0 {
		return 0
	}
	kept := make(map[string]struct{})
	for _, t := range filtered {
		kept[t.Title] = struct{}{}
	}
	if len(kept) == 0 {
		return 0
	}
	c := float64(len(kept)) / float64(all)
	if c > 1 {
		c = 1
	}
	return c
}

// DistinctTitles counts distinct book titles.
func DistinctTitles(books []dataset.Book) int {
	seen := make(map[string]struct{}, len(books))
	for _, b := range books {
		seen[b.Title] = struct{}{}
	}
	return len(seen)
}

// Run applies every step to ds.
func Run(ctx context.Context, ds *dataset.Dataset, opts Options) (*Result, error) {
	if ds == nil {
		return nil, fmt.Errorf("prepare: nil dataset")
	}
	logger := logging.WithComponent("prepare")
	start := time.Now()

	active, activeUsers := ActivityFilter(ds.Ratings, opts.MinUserRatings)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	joined := Join(active, ds.Books)
	popular := PopularityFilter(joined, opts.MinTitleRatings)
	summaries := Summaries(popular)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deduped := Dedupe(popular)

	res := &Result{
		Triples:       deduped,
		Books:         firstBooks(ds.Books, summaries),
		Summaries:     summaries,
		ActiveUsers:   activeUsers,
		JoinedRatings: len(joined),
		TotalTitles:   DistinctTitles(ds.Books),
		Coverage:      Coverage(deduped, ds.Books),
	}

	logger.Info().
		Int("active_users", activeUsers).
		Int("active_ratings", len(active)).
		Int("joined_ratings", len(joined)).
		Int("popular_ratings", len(popular)).
		Int("triples", len(deduped)).
		Int("titles", len(summaries)).
		Float64("coverage", res.Coverage).
		Dur("duration", time.Since(start)).
		Msg("Dataset prepared")

	return res, nil
}

func firstBooks(books []dataset.Book, summaries []TitleSummary) map[string]dataset.Book {
	want := make(map[string]struct{}, len(summaries))
	for _, s := range summaries {
		want[s.Title] = struct{}{}
	}
	out := make(map[string]dataset.Book, len(summaries))
	for _, b := range books {
		if _, ok := want[b.Title]; !ok {
			continue
		}
		if _, ok := out[b.Title]; !ok {
			out[b.Title] = b
		}
	}
	return out
}
