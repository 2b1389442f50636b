// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package testinfra starts throwaway Docker containers for integration
// tests. Everything here is behind the integration build tag:
//
//	go test -tags integration ./internal/cache/...
//
// Tests call SkipIfNoDocker first so the suite degrades gracefully on
// machines without a Docker daemon.
package testinfra
