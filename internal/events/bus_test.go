// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/recommend/storage"
)

// publishUntilReceived republishes until the consumer reports a delivery,
// since a subscription may not be live when the first message goes out.
func publishUntilReceived(t *testing.T, b *Bus, got <-chan ModelPublished) ModelPublished {
	t.Helper()

	ctx := context.Background()
	deadline := time.After(10 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

	for {
		if err := b.PublishModel(ctx, &storage.Manifest{Version: 7, Rows: 3, Cols: 4, Coverage: 0.25}); err != nil {
			t.Fatalf("PublishModel() error = %v", err)
		}
		select {
		case e := <-got:
			return e
		case <-deadline:
			t.Fatal("no event received")
		case <-tick.C:
		}
	}
}

func runConsumer(t *testing.T, b *Bus) (<-chan ModelPublished, context.CancelFunc) {
	t.Helper()
	got := make(chan ModelPublished, 64)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = b.Consume(ctx, func(_ context.Context, e ModelPublished) error {
			got <- e
			return nil
		})
	}()
	return got, cancel
}

func TestBus_GoChannelRoundTrip(t *testing.T) {
	b, err := New(&config.EventsConfig{Backend: "gochannel", Subject: "model.published"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer b.Close()

	got, cancel := runConsumer(t, b)
	defer cancel()

	e := publishUntilReceived(t, b, got)
	if e.Version != 7 || e.Rows != 3 || e.Coverage != 0.25 {
		t.Errorf("received %+v", e)
	}
}

func TestBus_EmbeddedNATSRoundTrip(t *testing.T) {
	b, err := New(&config.EventsConfig{
		Backend:      "nats",
		Embedded:     true,
		EmbeddedHost: "127.0.0.1",
		EmbeddedPort: -1,
		Subject:      "test.model.published",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer b.Close()

	if b.server == nil || !b.server.IsRunning() {
		t.Fatal("embedded server not running")
	}

	got, cancel := runConsumer(t, b)
	defer cancel()

	if e := publishUntilReceived(t, b, got); e.Version != 7 {
		t.Errorf("Version = %d, want 7", e.Version)
	}
}

func TestBus_DropsUndecodableAndContinues(t *testing.T) {
	b, err := New(&config.EventsConfig{Backend: "gochannel", Subject: "s"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer b.Close()

	got, cancel := runConsumer(t, b)
	defer cancel()

	// Give the subscription time to register, then send garbage first.
	time.Sleep(50 * time.Millisecond)
	if err := b.publisher.Publish("s", message.NewMessage(watermill.NewUUID(), []byte("nope"))); err != nil {
		t.Fatalf("Publish(raw) error = %v", err)
	}

	if e := publishUntilReceived(t, b, got); e.Version != 7 {
		t.Errorf("Version = %d, want 7", e.Version)
	}
}

func TestBus_HandlerErrorDoesNotStopConsumer(t *testing.T) {
	b, err := New(&config.EventsConfig{Backend: "gochannel", Subject: "s"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer b.Close()

	calls := make(chan struct{}, 64)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = b.Consume(ctx, func(context.Context, ModelPublished) error {
			calls <- struct{}{}
			return errors.New("reload failed")
		})
	}()

	seen := 0
	deadline := time.After(10 * time.Second)
	for seen < 2 {
		if err := b.PublishModel(context.Background(), &storage.Manifest{Version: 1}); err != nil {
			t.Fatalf("PublishModel() error = %v", err)
		}
		select {
		case <-calls:
			seen++
		case <-deadline:
			t.Fatalf("handler called %d times, want 2", seen)
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestBus_Closed(t *testing.T) {
	b, err := New(&config.EventsConfig{Backend: "gochannel", Subject: "s"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if err := b.Publish(context.Background(), ModelPublished{Version: 1}); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish() error = %v, want ErrClosed", err)
	}
	if err := b.Consume(context.Background(), nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Consume() error = %v, want ErrClosed", err)
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New(&config.EventsConfig{Backend: "kafka", Subject: "s"}); err == nil {
		t.Error("New() error = nil, want error")
	}
}
