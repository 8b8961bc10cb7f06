// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/upnext/internal/logging"
	"github.com/tomtom215/upnext/internal/metrics"
	"github.com/tomtom215/upnext/internal/session"
)

// DefaultTopic carries every session event.
const DefaultTopic = "upnext.session"

// ErrClosed is returned when the bus has been closed.
var ErrClosed = errors.New("event bus closed")

// Config configures the bus.
type Config struct {
	// Topic is the pub/sub topic name.
	Topic string `koanf:"topic"`

	// BufferSize is the per-subscriber output buffer.
	BufferSize int64 `koanf:"buffer_size" validate:"min=0"`
}

// DefaultConfig returns the default bus configuration.
func DefaultConfig() *Config {
	return &Config{Topic: DefaultTopic, BufferSize: 64}
}

// Bus publishes session events on an in-process watermill GoChannel.
// It implements session.Notifier.
type Bus struct {
	pubsub *gochannel.GoChannel
	topic  string
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewBus creates a bus.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBus(cfg *Config, logger zerolog.Logger) *Bus {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	wmLogger := watermill.NewSlogLogger(slog.New(logging.NewSlogHandlerWithLogger(logger)))
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.BufferSize,
	}, wmLogger)

	return &Bus{
		pubsub: pubsub,
		topic:  topic,
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// Topic returns the topic events are published on.
func (b *Bus) Topic() string {
	return b.topic
}

// Notify publishes ev. Failures are logged and counted, never returned.
func (b *Bus) Notify(ctx context.Context, ev session.Event) {
	if err := b.Publish(ctx, ev); err != nil {
		b.logger.Warn().Err(err).Str("event_type", string(ev.Type)).Msg("failed to publish session event")
	}
}

// Publish serializes and publishes ev.
func (b *Bus) Publish(ctx context.Context, ev session.Event) (err error) {
	defer func() { metrics.RecordEventPublished(b.topic, err) }()

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	payload, err := json.Marshal(&ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set("event_type", string(ev.Type))
	msg.Metadata.Set("session_id", ev.SessionID)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set("request_id", id)
	}

	if err := b.pubsub.Publish(b.topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Subscribe streams decoded events until ctx is done or the bus closes.
func (b *Bus) Subscribe(ctx context.Context) (<-chan session.Event, error) {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	msgs, err := b.pubsub.Subscribe(ctx, b.topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", b.topic, err)
	}

	out := make(chan session.Event)
	go func() {
		defer close(out)
		for msg := range msgs {
			var ev session.Event
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				b.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("dropping undecodable event")
				msg.Ack()
				continue
			}
			select {
			case out <- ev:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}()
	return out, nil
}

// Close shuts the bus down and ends all subscriptions.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}
