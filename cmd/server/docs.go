// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// @title Bookshelf API
// @version 1.0
// @description Item-based book recommendations over the Book-Crossing dataset.
// @description
// @description ## Model
// @description
// @description Titles are rows of a title-by-user rating matrix. Recommendations are the
// @description nearest rows by Euclidean distance, excluding the queried title itself.
// @description Model-backed routes return 503 until the first model version is loaded.
// @description
// @description ## Rate Limiting
// @description
// @description Default rate limit: 100 requests per minute per IP address.
// @description
// @description ## Error Responses
// @description
// @description All error responses follow this format:
// @description ```json
// @description {
// @description   "success": false,
// @description   "error": {
// @description     "code": "NOT_FOUND",
// @description     "message": "Human-readable error message",
// @description     "request_id": "..."
// @description   },
// @description   "meta": {
// @description     "request_id": "...",
// @description     "timestamp": "2026-01-01T12:34:56Z"
// @description   }
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/bookshelf/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
//
// @tag.name Health
// @tag.description Liveness and readiness probes
//
// @tag.name Books
// @tag.description Catalog listing, search, title suggestions and detail pages
//
// @tag.name Recommendations
// @tag.description Nearest-neighbor recommendations and model metadata
//
// @tag.name Sessions
// @tag.description Browsing sessions moving between the listing and a detail page
package main
