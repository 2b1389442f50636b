// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/events"
	"github.com/tomtom215/bookshelf/internal/recommend/storage"
)

type chanNotifier chan int

func (c chanNotifier) Notify(version int) { c <- version }

var _ EventSource = (*events.Bus)(nil)

func TestModelEventService_ForwardsVersions(t *testing.T) {
	bus, err := events.New(&config.EventsConfig{Backend: "gochannel", Subject: "model.published"})
	if err != nil {
		t.Fatalf("events.New() error = %v", err)
	}
	defer bus.Close()

	got := make(chanNotifier, 16)
	svc := NewModelEventService(bus, got, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Serve(ctx) }()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		if err := bus.PublishModel(ctx, &storage.Manifest{Version: 9}); err != nil {
			t.Fatalf("PublishModel() error = %v", err)
		}
		select {
		case v := <-got:
			if v != 9 {
				t.Errorf("notified version = %d, want 9", v)
			}
			return
		case <-deadline:
			t.Fatal("no notification")
		case <-tick.C:
		}
	}
}
