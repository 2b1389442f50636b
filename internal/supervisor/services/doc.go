// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package services provides suture.Service wrappers for Bookshelf components.

Each wrapper turns a component's lifecycle into suture's context-aware
Serve method and names itself through fmt.Stringer for supervisor logs.

# Available Services

Model layer:
  - ModelReloadService: loads the newest stored version into the
    recommend.Holder at startup, on a poll interval and on Notify
  - ModelEventService: forwards model.published events to the reloader
  - RebuildService: runs the build pipeline in-process on a schedule

Session layer:
  - PeriodicService: generic ticker used for session expiry, cache
    eviction and the uptime gauge

API layer:
  - HTTPServerService: *http.Server with bounded graceful shutdown
  - WebSocketHubService: the hub that pushes model_published messages

# Usage Example

	reloader := services.NewModelReloadService(store, holder, db, hub, services.ModelReloadConfig{
	    PollInterval: cfg.Model.ReloadInterval,
	}, logging.WithComponent("model"))
	tree.AddModelService(reloader)
	tree.AddModelService(services.NewModelEventService(bus, reloader, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, addr, 30*time.Second, logger))

# Error Handling

Serve returns ctx.Err() on shutdown. Work that fails inside a loop (a
reload, a build, a cleanup pass) is logged and retried on the next tick so
that one bad artifact does not cause restart storms. Only failures of the
component itself, such as the listener failing to bind, are returned for
the supervisor to act on.
*/
package services
