// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package websocket pushes model_published notifications to browsers so a
// listing page can refresh when the server swaps in a new model.
//
// Frames are JSON envelopes:
//
//	{"type": "model_published", "data": {"version": 3, "rows": 731, ...}}
//
// Clients may send {"type": "ping"} and receive {"type": "pong"}. The hub is
// run as a supervised service via RunWithContext; the HTTP handler upgrades
// the connection, registers a Client and calls Start.
package websocket
