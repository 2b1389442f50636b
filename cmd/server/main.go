// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	_ "github.com/tomtom215/bookshelf/docs" // registers the swagger document
	"github.com/tomtom215/bookshelf/internal/api"
	"github.com/tomtom215/bookshelf/internal/cache"
	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/events"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
	"github.com/tomtom215/bookshelf/internal/pipeline"
	"github.com/tomtom215/bookshelf/internal/recommend"
	"github.com/tomtom215/bookshelf/internal/recommend/storage"
	"github.com/tomtom215/bookshelf/internal/session"
	"github.com/tomtom215/bookshelf/internal/supervisor"
	"github.com/tomtom215/bookshelf/internal/supervisor/services"
	ws "github.com/tomtom215/bookshelf/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // sequential setup
func main() {
	startTime := time.Now()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	metrics.SetAppInfo(version, runtime.Version())

	logging.Info().
		Str("version", version).
		Str("model_dir", cfg.Model.Dir).
		Str("catalog", cfg.Catalog.Path).
		Str("cache", cfg.Cache.Backend).
		Str("sessions", cfg.Session.Store).
		Str("events", cfg.Events.Backend).
		Msg("Starting Bookshelf")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(&cfg.Catalog)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open catalog database")
	}
	defer closeWithLog("catalog database", db.Close)

	store, err := storage.NewStore(cfg.Model.Dir)
	if err != nil {
		logging.Fatal().Err(err).Str("dir", cfg.Model.Dir).Msg("Failed to open model store")
	}
	holder := recommend.NewHolder()

	recCache, err := cache.New(ctx, &cfg.Cache)
	if err != nil {
		// A cache is an optimization; serve without one.
		logging.Warn().Err(err).Str("backend", cfg.Cache.Backend).Msg("Recommendation cache unavailable, continuing without it")
		recCache = cache.Noop{}
	}
	defer closeWithLog("recommendation cache", recCache.Close)

	sessionStore, err := session.NewStore(&cfg.Session)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer closeWithLog("session store", sessionStore.Close)
	sessions := session.NewManager(sessionStore, cfg.Session.TTL)

	if cfg.Session.Store == "memory" {
		logging.Warn().Msg("Session store is 'memory'; sessions are lost on restart (SESSION_STORE=badger persists them)")
	}

	bus, err := events.New(&cfg.Events)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event bus")
	}
	defer closeWithLog("event bus", bus.Close)

	hub := ws.NewHub()

	handler := api.NewHandler(cfg, api.Deps{
		Catalog:  db,
		Models:   holder,
		Cache:    recCache,
		Sessions: sessions,
		Hub:      hub,
	})
	middleware := api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security))
	router := api.NewRouter(handler, middleware)

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout + 5*time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// === MODEL LAYER ===

	reloader := services.NewModelReloadService(store, holder, db, hub, services.ModelReloadConfig{
		PollInterval: cfg.Model.ReloadInterval,
	}, logging.WithComponent("model"))
	tree.AddModelService(reloader)
	tree.AddModelService(services.NewModelEventService(bus, reloader, logging.WithComponent("model")))

	if cfg.Model.RebuildOnStartup || cfg.Model.RebuildInterval > 0 {
		builder := pipeline.New(cfg, store)
		builder.SetPublisher(bus)
		tree.AddModelService(services.NewRebuildService(builder, services.RebuildConfig{
			OnStartup: cfg.Model.RebuildOnStartup,
			Interval:  cfg.Model.RebuildInterval,
			Timeout:   cfg.Model.RebuildTimeout,
		}, reloader.Notify, logging.WithComponent("pipeline")))
		logging.Info().
			Bool("on_startup", cfg.Model.RebuildOnStartup).
			Dur("interval", cfg.Model.RebuildInterval).
			Msg("In-process rebuilds enabled")
	}

	// === SESSION LAYER ===

	tree.AddSessionService(services.NewPeriodicService("session-cleanup", cfg.Session.CleanupInterval,
		func(ctx context.Context) error {
			removed, err := sessions.Cleanup(ctx)
			if err == nil && removed > 0 {
				logging.Debug().Int("removed", removed).Msg("Expired sessions removed")
			}
			return err
		}, logging.WithComponent("session")))

	if mem, ok := recCache.(*cache.Memory); ok {
		tree.AddSessionService(services.NewPeriodicService("cache-cleanup", cfg.Cache.TTL,
			func(context.Context) error {
				mem.Cleanup()
				return nil
			}, logging.WithComponent("cache")))
	}

	tree.AddSessionService(services.NewPeriodicService("uptime", 15*time.Second,
		func(context.Context) error {
			metrics.UpdateUptime(startTime)
			return nil
		}, logging.WithComponent("metrics")))

	// === API LAYER ===

	tree.AddAPIService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, addr, cfg.Server.ShutdownTimeout, logging.WithComponent("http")))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	// errCh receives exactly one value and is never closed.
	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
		treeErr = <-errCh
	case treeErr = <-errCh:
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport() //nolint:errcheck // report is best effort at exit
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Bookshelf stopped")
}

func closeWithLog(what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logging.Error().Err(err).Str("component", what).Msg("Close failed")
	}
}
