// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package middleware provides HTTP instrumentation shared by the API routes.

PrometheusMetrics wraps a handler and records api_requests_total,
api_request_duration_seconds and api_active_requests. It is mounted on the
/api/v1 route group through the chi adapter in package api:

	r.Use(chiMiddleware(middleware.PrometheusMetrics))

CORS, rate limiting and request ids live in api/chi_middleware.go.
*/
package middleware
