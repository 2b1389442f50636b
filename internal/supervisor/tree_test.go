// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*mockService)(nil)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSupervisorTree_Defaults(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}
	if tree.Root() == nil {
		t.Fatal("Root() = nil")
	}
	if tree.config != DefaultTreeConfig() {
		t.Errorf("config = %+v, want defaults %+v", tree.config, DefaultTreeConfig())
	}

	tree, _ = NewSupervisorTree(quietLogger(), TreeConfig{FailureBackoff: time.Second})
	if tree.config.FailureBackoff != time.Second || tree.config.FailureThreshold != 5 {
		t.Errorf("config = %+v, want explicit backoff kept and threshold defaulted", tree.config)
	}
}

func TestSupervisorTree_StartsEveryLayer(t *testing.T) {
	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})

	services := map[string]*mockService{
		"model":   newMockService("model", 0),
		"session": newMockService("session", 0),
		"api":     newMockService("api", 0),
	}
	tree.AddModelService(services["model"])
	tree.AddSessionService(services["session"])
	tree.AddAPIService(services["api"])

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for name, svc := range services {
		for svc.starts.Load() < 1 {
			if time.Now().After(deadline) {
				t.Fatalf("%s service never started", name)
			}
			time.Sleep(5 * time.Millisecond)
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}
}

func TestSupervisorTree_RestartsFailingService(t *testing.T) {
	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	failing := newMockService("failing", 2)
	stable := newMockService("stable", 0)
	tree.AddModelService(failing)
	tree.AddAPIService(stable)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	for failing.starts.Load() < 3 {
		select {
		case <-ctx.Done():
			t.Fatalf("failing service started %d times, want >= 3", failing.starts.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	if stable.starts.Load() != 1 {
		t.Errorf("stable service started %d times, want 1", stable.starts.Load())
	}

	cancel()
	<-errCh
}
