// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/session"
)

// SessionView is a session together with the page its view renders to.
// Exactly one of Listing and Detail is set.
type SessionView struct {
	Session *session.Session `json:"session"`
	Listing []BookCard       `json:"listing,omitempty"`
	Detail  *BookDetailView  `json:"detail,omitempty"`
}

// writeSessionError maps session errors onto responses.
func writeSessionError(rw *ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		rw.NotFound("Session not found")
	case errors.Is(err, session.ErrExpired):
		rw.Gone("Session expired")
	case errors.Is(err, session.ErrInvalidTransition):
		rw.Conflict(err.Error())
	case errors.Is(err, session.ErrConflict):
		rw.Conflict("Session is being changed by another request, retry")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Session operation failed")
		rw.InternalError("Session operation failed")
	}
}

// sessionID reads and validates the {id} path parameter.
func sessionID(rw *ResponseWriter, r *http.Request) (string, bool) {
	req := sessionIDRequest{ID: chi.URLParam(r, "id")}
	if !valid(rw, &req) {
		return "", false
	}
	return req.ID, true
}

// render resolves the page for s and writes it with the given status.
func (h *Handler) render(rw *ResponseWriter, r *http.Request, s *session.Session, created bool) {
	view, err := h.renderView(r.Context(), s)
	if err != nil {
		if errors.Is(err, errNoModel) {
			rw.ServiceUnavailable("No model loaded yet")
			return
		}
		if s.View.State == session.StateDetail {
			writeDetailError(rw, r, s.View.Title, err)
			return
		}
		rw.DatabaseError(err)
		return
	}

	if created {
		rw.Created(view)
		return
	}
	meta := &APIMeta{}
	if view.Detail != nil {
		meta.ModelVersion = view.Detail.ModelVersion
	}
	rw.SuccessWithMeta(view, meta)
}

var errNoModel = errors.New("no model loaded")

func (h *Handler) renderView(ctx context.Context, s *session.Session) (*SessionView, error) {
	out := &SessionView{Session: s}
	switch s.View.State {
	case session.StateDetail:
		hd := h.models.Load()
		if hd == nil {
			return nil, errNoModel
		}
		detail, err := h.buildDetail(ctx, hd, s.View.Title, h.cfg.Model.DefaultNeighbors)
		if err != nil {
			return nil, err
		}
		out.Detail = detail
	default:
		cards, err := h.popularCards(ctx, h.cfg.Catalog.PopularLimit)
		if err != nil {
			return nil, err
		}
		out.Listing = cards
	}
	return out, nil
}

// CreateSession starts a browsing session on the listing page.
//
// @Summary Create a browsing session
// @Tags Sessions
// @Produce json
// @Success 201 {object} APIResponse{data=SessionView}
// @Router /sessions [post]
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	s, err := h.sessions.Create(r.Context())
	if err != nil {
		writeSessionError(rw, r, err)
		return
	}
	h.render(rw, r, s, true)
}

// GetSession renders the session's current page.
//
// @Summary Render a session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} APIResponse{data=SessionView}
// @Failure 404 {object} APIResponse "Unknown session"
// @Failure 410 {object} APIResponse "Expired session"
// @Router /sessions/{id} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := sessionID(rw, r)
	if !ok {
		return
	}
	s, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		writeSessionError(rw, r, err)
		return
	}
	h.render(rw, r, s, false)
}

// SelectBook moves a session from the listing to a book's detail page.
//
// @Summary Open a book's detail page
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param body body selectRequest true "Book to open"
// @Success 200 {object} APIResponse{data=SessionView}
// @Failure 404 {object} APIResponse "Unknown session or title"
// @Failure 409 {object} APIResponse "Session is not on the listing page"
// @Router /sessions/{id}/select [post]
func (h *Handler) SelectBook(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := sessionID(rw, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if !valid(rw, &req) {
		return
	}

	// Unknown titles are refused before the transition so a session never
	// points at a page that cannot render.
	hd, ok := h.model(rw)
	if !ok {
		return
	}
	if _, found := hd.Model.Lookup(req.Title); !found {
		rw.NotFound("Title not found: " + req.Title)
		return
	}

	s, err := h.sessions.Select(r.Context(), id, req.Title)
	if err != nil {
		writeSessionError(rw, r, err)
		return
	}
	h.render(rw, r, s, false)
}

// Back returns a session from a detail page to the listing.
//
// @Summary Back to the listing
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} APIResponse{data=SessionView}
// @Failure 404 {object} APIResponse "Unknown session"
// @Failure 409 {object} APIResponse "Session is already on the listing page"
// @Router /sessions/{id}/back [post]
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := sessionID(rw, r)
	if !ok {
		return
	}
	s, err := h.sessions.Back(r.Context(), id)
	if err != nil {
		writeSessionError(rw, r, err)
		return
	}
	h.render(rw, r, s, false)
}

// DeleteSession ends a session. Deleting an unknown session succeeds.
//
// @Summary Delete a session
// @Tags Sessions
// @Param id path string true "Session ID"
// @Success 204
// @Router /sessions/{id} [delete]
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := sessionID(rw, r)
	if !ok {
		return
	}
	if err := h.sessions.Delete(r.Context(), id); err != nil {
		writeSessionError(rw, r, err)
		return
	}
	rw.NoContent()
}
