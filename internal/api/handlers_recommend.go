// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/bookshelf/internal/cache"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
	"github.com/tomtom215/bookshelf/internal/recommend"
)

// RecommendationsResponse is the body of GET /recommendations.
type RecommendationsResponse struct {
	Title           string                     `json:"title"`
	N               int                        `json:"n"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
}

// ModelInfo describes the served model.
type ModelInfo struct {
	Version   int       `json:"version"`
	Rows      int       `json:"rows"`
	Cols      int       `json:"cols"`
	Coverage  float64   `json:"coverage"`
	Metric    string    `json:"metric"`
	Algorithm string    `json:"algorithm"`
	BuiltAt   time.Time `json:"built_at"`
	LoadedAt  time.Time `json:"loaded_at"`
}

func recommendResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, recommend.ErrNotFound):
		return "not_found"
	case errors.Is(err, recommend.ErrInvalidCount):
		return "invalid"
	default:
		return "error"
	}
}

// recommendFor answers from the cache when it can. Keys carry the model
// version, so a swap never serves neighbors computed on an older matrix.
func (h *Handler) recommendFor(ctx context.Context, hd *recommend.Handle, title string, n int) ([]recommend.Recommendation, error) {
	start := time.Now()
	key := cache.Key(hd.Version, title, n)
	if recs, ok := h.cache.Get(ctx, key); ok {
		metrics.RecordRecommend("ok", time.Since(start))
		return recs, nil
	}

	recs, err := recommend.Recommend(hd.Model, title, n)
	metrics.RecordRecommend(recommendResult(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	h.cache.Set(ctx, key, recs)
	return recs, nil
}

// writeRecommendError maps recommendation errors onto responses.
func writeRecommendError(rw *ResponseWriter, r *http.Request, title string, err error) {
	switch {
	case errors.Is(err, recommend.ErrNotFound):
		rw.NotFound("Title not found: " + title)
	case errors.Is(err, recommend.ErrInvalidCount):
		rw.BadRequest(err.Error())
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("title", title).Msg("Recommendation query failed")
		rw.InternalError("Failed to compute recommendations")
	}
}

// Recommendations returns the n nearest titles to title.
//
// @Summary Recommend similar books
// @Description Returns the n titles nearest to the given title by Euclidean distance between rating vectors. The title itself is never included.
// @Tags Recommendations
// @Produce json
// @Param title query string true "Exact book title"
// @Param n query int false "Number of recommendations" default(5)
// @Success 200 {object} APIResponse{data=RecommendationsResponse}
// @Failure 400 {object} APIResponse "Invalid parameters"
// @Failure 404 {object} APIResponse "Title not in the model"
// @Failure 503 {object} APIResponse "No model loaded"
// @Router /recommendations [get]
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	req, ok := h.parseRecommendationsRequest(rw, r)
	if !ok {
		return
	}
	hd, ok := h.model(rw)
	if !ok {
		return
	}

	recs, err := h.recommendFor(r.Context(), hd, req.Title, req.N)
	if err != nil {
		writeRecommendError(rw, r, req.Title, err)
		return
	}

	rw.SuccessWithMeta(RecommendationsResponse{
		Title:           req.Title,
		N:               req.N,
		Recommendations: recs,
	}, &APIMeta{ModelVersion: hd.Version})
}

// Model describes the served model.
//
// @Summary Served model metadata
// @Tags Recommendations
// @Produce json
// @Success 200 {object} APIResponse{data=ModelInfo}
// @Failure 503 {object} APIResponse "No model loaded"
// @Router /model [get]
func (h *Handler) Model(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hd, ok := h.model(rw)
	if !ok {
		return
	}

	state := hd.Model.IndexState()
	rw.Success(ModelInfo{
		Version:   hd.Version,
		Rows:      hd.Model.Rows(),
		Cols:      hd.Model.Cols(),
		Coverage:  hd.Coverage,
		Metric:    state.Metric,
		Algorithm: state.Algorithm,
		BuiltAt:   hd.BuiltAt,
		LoadedAt:  hd.LoadedAt,
	})
}
