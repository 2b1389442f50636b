// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"net/http"
	"time"
)

// HealthLive reports that the process is up, regardless of dependencies.
//
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse "Service is alive"
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady returns 200 once a model is served and the catalog answers.
//
// @Summary Readiness probe
// @Description Ready once a model has been loaded and the catalog database is reachable.
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse "Service is ready"
// @Failure 503 {object} APIResponse "Service is not ready"
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	modelLoaded := h.models.Ready()
	catalogConnected := h.catalog != nil && h.catalog.Ping(r.Context()) == nil
	details := map[string]interface{}{
		"model_loaded":      modelLoaded,
		"model_version":     h.models.Version(),
		"catalog_connected": catalogConnected,
		"uptime":            time.Since(h.startTime).Seconds(),
	}

	if !modelLoaded || !catalogConnected {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service is not ready", details)
		return
	}
	rw.Success(details)
}
