// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package main is the entry point for the Bookshelf API server.

The server loads the newest model version written by the build command
(cmd/build), serves recommendations and catalog pages over a JSON API and
keeps per-visitor browsing sessions. It never trains in the request path:
a new model arrives either through the store poller, a model.published
event, or the optional in-process rebuild service.

# Application Architecture

	bookshelf
	├── model-layer
	│   ├── model-reload          (store poll + event kick)
	│   ├── model-event-consumer  (watermill subscriber)
	│   └── rebuild-service       (only when MODEL_REBUILD > 0 or REBUILD_ON_STARTUP)
	├── session-layer
	│   ├── session-cleanup
	│   ├── cache-cleanup         (memory backend only)
	│   └── uptime
	└── api-layer
	    ├── websocket-hub
	    └── http-server

Initialization order:

 1. Configuration: koanf (defaults, config.yaml, environment)
 2. Logging: zerolog
 3. Catalog: DuckDB
 4. Artifact store and model holder
 5. Recommendation cache: memory, Redis or none
 6. Session store: Badger or memory
 7. Event bus: gochannel or NATS
 8. WebSocket hub, handlers, chi router
 9. Supervisor tree

The API answers 503 on model-backed routes until the first model is loaded.

# Configuration

	MODEL_DIR=/data/model        # artifact directory shared with cmd/build
	MODEL_RELOAD=1m              # store poll interval
	DEFAULT_NEIGHBORS=5
	MAX_NEIGHBORS=50
	DUCKDB_PATH=:memory:
	SESSION_STORE=badger         # badger or memory
	SESSION_TTL=24h
	CACHE_BACKEND=memory         # memory, redis or none
	REDIS_ADDR=127.0.0.1:6379
	EVENTS_BACKEND=gochannel     # gochannel or nats
	NATS_URL=nats://127.0.0.1:4222
	NATS_EMBEDDED=false
	HTTP_PORT=8080
	LOG_LEVEL=info
	LOG_FORMAT=json              # json or console

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains for
HTTP_SHUTDOWN_TIMEOUT, WebSocket clients are closed, and the stores are
closed after the tree has stopped.
*/
package main
