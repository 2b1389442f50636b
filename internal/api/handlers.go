// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/bookshelf/internal/cache"
	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/recommend"
	"github.com/tomtom215/bookshelf/internal/session"
	ws "github.com/tomtom215/bookshelf/internal/websocket"
)

// Catalog is the read side of the book catalog. *database.DB satisfies it.
type Catalog interface {
	PopularBooks(ctx context.Context, limit int) ([]database.Book, error)
	SearchBooks(ctx context.Context, term string, limit int) ([]database.Book, error)
	BookDetail(ctx context.Context, title string) (*database.Book, error)
	MeanRatings(ctx context.Context, titles []string) (map[string]float64, error)
	Ping(ctx context.Context) error
}

// Handler serves every API endpoint.
type Handler struct {
	catalog   Catalog
	models    *recommend.Holder
	cache     cache.Cache
	sessions  *session.Manager
	hub       *ws.Hub
	cfg       *config.Config
	startTime time.Time
	upgrader  websocket.Upgrader

	titles atomic.Pointer[versionedTitleIndex]
}

type versionedTitleIndex struct {
	version int
	index   *cache.TitleIndex
}

// Deps groups the collaborators of a Handler. Cache and Hub are optional.
type Deps struct {
	Catalog  Catalog
	Models   *recommend.Holder
	Cache    cache.Cache
	Sessions *session.Manager
	Hub      *ws.Hub
}

// NewHandler creates a Handler.
func NewHandler(cfg *config.Config, deps Deps) *Handler {
	h := &Handler{
		catalog:   deps.Catalog,
		models:    deps.Models,
		cache:     deps.Cache,
		sessions:  deps.Sessions,
		hub:       deps.Hub,
		cfg:       cfg,
		startTime: time.Now(),
	}
	if h.cache == nil {
		h.cache = cache.Noop{}
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return h
}

// checkWebSocketOrigin allows only origins listed in the CORS config.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Ctx(r.Context()).Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}
	for _, allowed := range h.cfg.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Ctx(r.Context()).Warn().Str("origin", origin).Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// model returns the served handle or writes a 503.
func (h *Handler) model(rw *ResponseWriter) (*recommend.Handle, bool) {
	hd := h.models.Load()
	if hd == nil {
		rw.ServiceUnavailable("No model loaded yet")
		return nil, false
	}
	return hd, true
}

// titleIndex returns the suggestion index for hd, building it once per
// model version. Weights are the number of ratings in each title's row.
func (h *Handler) titleIndex(hd *recommend.Handle) *cache.TitleIndex {
	if cur := h.titles.Load(); cur != nil && cur.version == hd.Version {
		return cur.index
	}

	labels := hd.Model.Labels()
	rowPtr := hd.Model.Matrix().RowPtr
	weights := make([]int, len(labels))
	for i := range labels {
		weights[i] = rowPtr[i+1] - rowPtr[i]
	}

	idx := cache.NewTitleIndex(labels, weights)
	h.titles.Store(&versionedTitleIndex{version: hd.Version, index: idx})
	return idx
}
