// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package supervisor runs the server's long-lived services under a suture v4
tree.

Services are grouped into three layers so a failure restarts only its own
layer:

	bookshelf
	├── model-layer
	│   ├── ModelReloadService     loads new versions from the artifact store
	│   ├── ModelEventService      turns model.published events into reloads
	│   └── RebuildService         optional in-process pipeline runs
	├── session-layer
	│   └── PeriodicService        expired sessions, expired cache entries
	└── api-layer
	    ├── HTTPServerService
	    └── WebSocketHubService

Supervisor events (start, failure, backoff) are logged through sutureslog
into the application's zerolog logger.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddModelService(services.NewModelReloadService(...))
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

The services themselves live in the services subpackage and depend only on
small interfaces, so each can be tested with a fake.
*/
package supervisor
