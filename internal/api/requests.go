// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bookshelf/internal/validation"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

type popularRequest struct {
	Limit int `query:"limit" validate:"gte=1,lte=500"`
}

type searchRequest struct {
	Query string `query:"q" validate:"required,min=2,max=200"`
	Limit int    `query:"limit" validate:"gte=1,lte=500"`
}

type suggestRequest struct {
	Prefix string `query:"prefix" validate:"required,max=200"`
	Limit  int    `query:"limit" validate:"gte=1,lte=50"`
}

type recommendationsRequest struct {
	Title string `query:"title" validate:"required,booktitle"`
	N     int    `query:"n" validate:"gte=1"`
}

type sessionIDRequest struct {
	ID string `json:"id" validate:"required,uuid4"`
}

type selectRequest struct {
	Title string `json:"title" validate:"required,booktitle"`
}

// queryInt parses an optional integer parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parameter %q must be an integer", name)
	}
	return v, nil
}

// valid validates req and writes a 400 when it fails.
func valid(rw *ResponseWriter, req interface{}) bool {
	if verr := validation.ValidateStruct(req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return false
	}
	return true
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// parseRecommendationsRequest reads title and n, applying the configured
// default and cap for n.
func (h *Handler) parseRecommendationsRequest(rw *ResponseWriter, r *http.Request) (recommendationsRequest, bool) {
	n, err := queryInt(r, "n", h.cfg.Model.DefaultNeighbors)
	if err != nil {
		rw.BadRequest(err.Error())
		return recommendationsRequest{}, false
	}
	req := recommendationsRequest{Title: r.URL.Query().Get("title"), N: n}
	if !valid(rw, &req) {
		return req, false
	}
	if max := h.cfg.Model.MaxNeighbors; max > 0 && req.N > max {
		rw.ValidationError(fmt.Sprintf("n must be at most %d", max), map[string]interface{}{
			"field": "n",
			"tag":   "lte",
			"value": req.N,
		})
		return req, false
	}
	return req, true
}
