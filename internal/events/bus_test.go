// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/upnext/internal/metrics"
	"github.com/tomtom215/upnext/internal/session"
)

var _ session.Notifier = (*Bus)(nil)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(&Config{Topic: "test.roundtrip", BufferSize: 4}, zerolog.Nop())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	want := session.Event{
		Type:         session.EventVideoChanged,
		SessionID:    "s-1",
		VideoID:      "v2",
		CurrentIndex: 1,
		QueueLength:  5,
		At:           time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	bus.Notify(ctx, want)

	select {
	case got := <-sub:
		if got.Type != want.Type || got.SessionID != want.SessionID || got.VideoID != want.VideoID ||
			got.CurrentIndex != want.CurrentIndex || got.QueueLength != want.QueueLength || !got.At.Equal(want.At) {
			t.Errorf("event = %+v, want %+v", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	if n := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("test.roundtrip", "success")); n != 1 {
		t.Errorf("published success count = %v, want 1", n)
	}
}

func TestBus_SubscriptionEndsWithContext(t *testing.T) {
	bus := NewBus(&Config{Topic: "test.cancel"}, zerolog.Nop())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	cancel()

	select {
	case _, ok := <-sub:
		if ok {
			t.Error("expected closed channel after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not end")
	}
}

func TestBus_Closed(t *testing.T) {
	bus := NewBus(nil, zerolog.Nop())
	if bus.Topic() != DefaultTopic {
		t.Errorf("Topic() = %q, want %q", bus.Topic(), DefaultTopic)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	if err := bus.Publish(context.Background(), session.Event{Type: session.EventSessionCleared}); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish after close err = %v, want ErrClosed", err)
	}
	if _, err := bus.Subscribe(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Subscribe after close err = %v, want ErrClosed", err)
	}
}
