// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/recommend"
)

// DisplayTitleRunes is how many runes of a title a card shows.
const DisplayTitleRunes = 30

// DisplayTitle shortens title for a card. Titles longer than
// DisplayTitleRunes are cut and suffixed with "...".
func DisplayTitle(title string) string {
	if utf8.RuneCountInString(title) <= DisplayTitleRunes {
		return title
	}
	runes := []rune(title)
	return string(runes[:DisplayTitleRunes]) + "..."
}

// CoverImage returns url, or placeholder when url is blank.
func CoverImage(url, placeholder string) string {
	if strings.TrimSpace(url) == "" {
		return placeholder
	}
	return url
}

// roundRating keeps two decimals, as the cards display them.
func roundRating(v float64) float64 {
	return math.Round(v*100) / 100
}

// BookCard is a book as shown on the listing and detail pages.
type BookCard struct {
	Title        string  `json:"title"`
	DisplayTitle string  `json:"display_title"`
	Author       string  `json:"author"`
	Year         string  `json:"year"`
	Publisher    string  `json:"publisher"`
	ImageURL     string  `json:"image_url"`
	RatingCount  int     `json:"rating_count"`
	MeanRating   float64 `json:"mean_rating"`
}

// RecommendationCard is one neighbor on the detail page. Neighbors show the
// placeholder cover.
type RecommendationCard struct {
	Title        string  `json:"title"`
	DisplayTitle string  `json:"display_title"`
	Distance     float64 `json:"distance"`
	MeanRating   float64 `json:"mean_rating"`
	ImageURL     string  `json:"image_url"`
}

// BookDetailView is the detail page: one book and its neighbors.
type BookDetailView struct {
	Book            BookCard             `json:"book"`
	Recommendations []RecommendationCard `json:"recommendations"`
	ModelVersion    int                  `json:"model_version"`
}

func newBookCard(b database.Book, placeholder string) BookCard {
	return BookCard{
		Title:        b.Title,
		DisplayTitle: DisplayTitle(b.Title),
		Author:       b.Author,
		Year:         b.Year,
		Publisher:    b.Publisher,
		ImageURL:     CoverImage(b.ImageURL, placeholder),
		RatingCount:  b.RatingCount,
		MeanRating:   roundRating(b.MeanRating),
	}
}

func newBookCards(books []database.Book, placeholder string) []BookCard {
	cards := make([]BookCard, len(books))
	for i, b := range books {
		cards[i] = newBookCard(b, placeholder)
	}
	return cards
}

// newRecommendationCards pairs recs with their mean ratings. A title
// missing from means shows 0.
func newRecommendationCards(recs []recommend.Recommendation, means map[string]float64, placeholder string) []RecommendationCard {
	cards := make([]RecommendationCard, len(recs))
	for i, rec := range recs {
		cards[i] = RecommendationCard{
			Title:        rec.Title,
			DisplayTitle: DisplayTitle(rec.Title),
			Distance:     rec.Distance,
			MeanRating:   roundRating(means[rec.Title]),
			ImageURL:     placeholder,
		}
	}
	return cards
}

func recTitles(recs []recommend.Recommendation) []string {
	titles := make([]string, len(recs))
	for i, rec := range recs {
		titles[i] = rec.Title
	}
	return titles
}
