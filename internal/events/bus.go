// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
	"github.com/tomtom215/bookshelf/internal/recommend/storage"
)

// ErrClosed is returned by operations on a closed Bus.
var ErrClosed = errors.New("event bus is closed")

// Handler processes one decoded event.
type Handler func(ctx context.Context, e ModelPublished) error

// Bus publishes and consumes model.published events on one subject.
type Bus struct {
	backend    string
	subject    string
	publisher  message.Publisher
	subscriber message.Subscriber
	server     *EmbeddedServer
	logger     zerolog.Logger

	// shared is set when publisher and subscriber are the same gochannel.
	shared bool

	mu     sync.RWMutex
	closed bool
}

// New connects the transport selected by cfg. With the nats backend and
// Embedded set, a NATS server is started first and the bus connects to it.
func New(cfg *config.EventsConfig) (*Bus, error) {
	wmLogger := watermill.NewSlogLogger(logging.NewSlogLogger())
	b := &Bus{
		backend: cfg.Backend,
		subject: cfg.Subject,
		logger:  logging.WithComponent("events").With().Str("backend", cfg.Backend).Logger(),
	}

	switch cfg.Backend {
	case "gochannel":
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, wmLogger)
		b.publisher = ch
		b.subscriber = ch
		b.shared = true
		return b, nil

	case "nats":
		url := cfg.NATSURL
		if cfg.Embedded {
			srv, err := NewEmbeddedServer(cfg.EmbeddedHost, cfg.EmbeddedPort)
			if err != nil {
				return nil, err
			}
			b.server = srv
			url = srv.ClientURL()
			b.logger.Info().Str("url", url).Msg("Embedded NATS server started")
		}
		if err := b.connectNATS(url, wmLogger); err != nil {
			b.shutdownServer()
			return nil, err
		}
		return b, nil

	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

func (b *Bus) natsOptions() []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name("bookshelf"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				b.logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			b.logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}
}

func (b *Bus) connectNATS(url string, wmLogger watermill.LoggerAdapter) error {
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: b.natsOptions(),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, wmLogger)
	if err != nil {
		return fmt.Errorf("create NATS publisher: %w", err)
	}

	// No queue group: every server replica must see every event.
	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		SubscribersCount: 1,
		CloseTimeout:     5 * time.Second,
		AckWaitTimeout:   30 * time.Second,
		NatsOptions:      b.natsOptions(),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, wmLogger)
	if err != nil {
		_ = pub.Close() //nolint:errcheck // already failing
		return fmt.Errorf("create NATS subscriber: %w", err)
	}

	b.publisher = pub
	b.subscriber = sub
	return nil
}

// Backend names the transport.
func (b *Bus) Backend() string { return b.backend }

// Publish sends e on the bus subject.
func (b *Bus) Publish(ctx context.Context, e ModelPublished) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	data, err := e.Encode()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := message.NewMessage(e.EventID, data)
	msg.SetContext(ctx)
	msg.Metadata.Set("version", fmt.Sprintf("%d", e.Version))

	err = b.publisher.Publish(b.subject, msg)
	metrics.RecordEventPublished(b.backend, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", b.subject, err)
	}

	b.logger.Info().Int("version", e.Version).Str("event_id", e.EventID).Msg("Model event published")
	return nil
}

// PublishModel announces a saved manifest. It lets the Bus serve as the
// build pipeline's publisher.
func (b *Bus) PublishModel(ctx context.Context, m *storage.Manifest) error {
	return b.Publish(ctx, NewModelPublished(m))
}

// Consume delivers events to fn until ctx is canceled or the subscription
// ends. Undecodable payloads and handler errors are logged and acked; the
// reload poller picks up anything an event fails to deliver.
func (b *Bus) Consume(ctx context.Context, fn Handler) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	messages, err := b.subscriber.Subscribe(ctx, b.subject)
	b.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.subject, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			b.handle(ctx, msg, fn)
		}
	}
}

func (b *Bus) handle(ctx context.Context, msg *message.Message, fn Handler) {
	defer msg.Ack()
	metrics.EventsConsumed.WithLabelValues(b.backend).Inc()

	e, err := Decode(msg.Payload)
	if err != nil {
		b.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping undecodable event")
		return
	}
	if err := fn(ctx, e); err != nil {
		b.logger.Error().Err(err).Int("version", e.Version).Msg("Model event handler failed")
	}
}

// Close releases the transport and stops an embedded server.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, err)
	}
	if !b.shared {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.shutdownServer()
	return errors.Join(errs...)
}

func (b *Bus) shutdownServer() {
	if b.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.server.Shutdown(ctx); err != nil {
		b.logger.Warn().Err(err).Msg("Embedded NATS shutdown incomplete")
	}
}
