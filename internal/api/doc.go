// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package api serves the book browsing and recommendation HTTP API.

Routes are mounted on a chi router (see SetupChi):

	GET    /api/v1/health/live
	GET    /api/v1/health/ready
	GET    /api/v1/model
	GET    /api/v1/recommendations?title=&n=
	GET    /api/v1/books/popular?limit=
	GET    /api/v1/books/search?q=&limit=
	GET    /api/v1/books/suggest?prefix=&limit=
	GET    /api/v1/books/detail?title=&n=
	POST   /api/v1/sessions
	GET    /api/v1/sessions/{id}
	DELETE /api/v1/sessions/{id}
	POST   /api/v1/sessions/{id}/select
	POST   /api/v1/sessions/{id}/back
	GET    /api/v1/ws
	GET    /metrics
	GET    /swagger/*

Every JSON response uses the APIResponse envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "NOT_FOUND", "message": "..."}, "meta": {...}}

Recommendation handlers read the model through recommend.Holder once per
request, so a concurrent swap never mixes two model versions in one
response. Results are cached under a key that includes the model version.

Sessions hold the browsing view (listing or detail of one title). GET on a
session renders the page its view describes; select and back move between
the two views and answer 409 when the move is not allowed from the current
view.
*/
package api
