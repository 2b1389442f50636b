// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package metrics provides Prometheus metrics for Bookshelf.

All collectors are registered on the default registry through promauto and
exported by the API at /metrics:

	curl http://localhost:8080/metrics

# Available Metrics

  - api_*: request counts, latency and rate limit rejections
  - bookshelf_model_*: version, shape and coverage of the served model
  - bookshelf_pipeline_*: build stage durations and run outcomes
  - bookshelf_recommend_*: query latency and outcome
  - cache_*: hit, miss and eviction counts per cache backend
  - bookshelf_session*: view transitions and cleanup
  - circuit_breaker_*: Redis breaker state
  - duckdb_*: catalog query latency and errors

Callers use the Record* helpers rather than touching collectors directly.
*/
package metrics
