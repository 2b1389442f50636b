// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"net/http"

	"github.com/tomtom215/bookshelf/internal/logging"
	ws "github.com/tomtom215/bookshelf/internal/websocket"
)

// WebSocket upgrades the connection and streams model_published messages.
//
// @Summary Model update stream
// @Description WebSocket that pushes a model_published message each time the server swaps in a new model.
// @Tags Recommendations
// @Success 101 "Switching protocols"
// @Failure 503 {object} APIResponse "WebSocket hub unavailable"
// @Router /ws [get]
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		NewResponseWriter(w, r).ServiceUnavailable("WebSocket service unavailable")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn)
	select {
	case h.hub.Register <- client:
		client.Start()
	case <-r.Context().Done():
		_ = conn.Close() //nolint:errcheck // request is gone
	}
}
