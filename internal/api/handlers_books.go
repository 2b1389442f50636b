// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/bookshelf/internal/cache"
	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/recommend"
)

const (
	defaultSearchLimit  = 20
	defaultSuggestLimit = 10
)

func countMeta(n int) *APIMeta {
	return &APIMeta{Count: &n}
}

// PopularBooks lists the most rated titles.
//
// @Summary Most popular books
// @Description Titles ordered by number of ratings, then title.
// @Tags Books
// @Produce json
// @Param limit query int false "Maximum number of books" default(30)
// @Success 200 {object} APIResponse{data=[]BookCard}
// @Failure 400 {object} APIResponse "Invalid parameters"
// @Router /books/popular [get]
func (h *Handler) PopularBooks(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	limit, err := queryInt(r, "limit", h.cfg.Catalog.PopularLimit)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	req := popularRequest{Limit: limit}
	if !valid(rw, &req) {
		return
	}

	cards, err := h.popularCards(r.Context(), req.Limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.SuccessWithMeta(cards, countMeta(len(cards)))
}

func (h *Handler) popularCards(ctx context.Context, limit int) ([]BookCard, error) {
	books, err := h.catalog.PopularBooks(ctx, limit)
	if err != nil {
		return nil, err
	}
	return newBookCards(books, h.cfg.Catalog.PlaceholderImage), nil
}

// SearchBooks finds titles containing q, case-insensitively.
//
// @Summary Search books by title
// @Tags Books
// @Produce json
// @Param q query string true "Substring of the title (min 2 characters)"
// @Param limit query int false "Maximum number of books" default(20)
// @Success 200 {object} APIResponse{data=[]BookCard}
// @Failure 400 {object} APIResponse "Invalid parameters"
// @Router /books/search [get]
func (h *Handler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	limit, err := queryInt(r, "limit", defaultSearchLimit)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	req := searchRequest{Query: r.URL.Query().Get("q"), Limit: limit}
	if !valid(rw, &req) {
		return
	}

	books, err := h.catalog.SearchBooks(r.Context(), req.Query, req.Limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	cards := newBookCards(books, h.cfg.Catalog.PlaceholderImage)
	rw.SuccessWithMeta(cards, countMeta(len(cards)))
}

// SuggestTitles completes a title prefix against the served model.
//
// @Summary Title autocomplete
// @Description Titles of the served model starting with prefix, most rated first.
// @Tags Books
// @Produce json
// @Param prefix query string true "Title prefix, case-insensitive"
// @Param limit query int false "Maximum number of suggestions" default(10)
// @Success 200 {object} APIResponse{data=[]cache.Suggestion}
// @Failure 400 {object} APIResponse "Invalid parameters"
// @Failure 503 {object} APIResponse "No model loaded"
// @Router /books/suggest [get]
func (h *Handler) SuggestTitles(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	limit, err := queryInt(r, "limit", defaultSuggestLimit)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	req := suggestRequest{Prefix: r.URL.Query().Get("prefix"), Limit: limit}
	if !valid(rw, &req) {
		return
	}
	hd, ok := h.model(rw)
	if !ok {
		return
	}

	suggestions := h.titleIndex(hd).Suggest(req.Prefix, req.Limit)
	if suggestions == nil {
		suggestions = []cache.Suggestion{}
	}
	meta := countMeta(len(suggestions))
	meta.ModelVersion = hd.Version
	rw.SuccessWithMeta(suggestions, meta)
}

// BookDetail returns one book and its recommendations.
//
// @Summary Book detail with recommendations
// @Tags Books
// @Produce json
// @Param title query string true "Exact book title"
// @Param n query int false "Number of recommendations" default(5)
// @Success 200 {object} APIResponse{data=BookDetailView}
// @Failure 400 {object} APIResponse "Invalid parameters"
// @Failure 404 {object} APIResponse "Title not found"
// @Failure 503 {object} APIResponse "No model loaded"
// @Router /books/detail [get]
func (h *Handler) BookDetail(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	req, ok := h.parseRecommendationsRequest(rw, r)
	if !ok {
		return
	}
	hd, ok := h.model(rw)
	if !ok {
		return
	}

	view, err := h.buildDetail(r.Context(), hd, req.Title, req.N)
	if err != nil {
		writeDetailError(rw, r, req.Title, err)
		return
	}
	rw.SuccessWithMeta(view, &APIMeta{ModelVersion: hd.Version})
}

// buildDetail assembles the detail page for title under model hd.
func (h *Handler) buildDetail(ctx context.Context, hd *recommend.Handle, title string, n int) (*BookDetailView, error) {
	book, err := h.catalog.BookDetail(ctx, title)
	if err != nil {
		return nil, err
	}
	recs, err := h.recommendFor(ctx, hd, title, n)
	if err != nil {
		return nil, err
	}
	means, err := h.catalog.MeanRatings(ctx, recTitles(recs))
	if err != nil {
		return nil, err
	}

	placeholder := h.cfg.Catalog.PlaceholderImage
	return &BookDetailView{
		Book:            newBookCard(*book, placeholder),
		Recommendations: newRecommendationCards(recs, means, placeholder),
		ModelVersion:    hd.Version,
	}, nil
}

func writeDetailError(rw *ResponseWriter, r *http.Request, title string, err error) {
	if errors.Is(err, database.ErrBookNotFound) {
		rw.NotFound("Title not found: " + title)
		return
	}
	writeRecommendError(rw, r, title, err)
}
