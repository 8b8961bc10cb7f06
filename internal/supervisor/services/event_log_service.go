// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/upnext/internal/metrics"
	"github.com/tomtom215/upnext/internal/session"
)

// EventSubscriber is satisfied by *events.Bus.
type EventSubscriber interface {
	Subscribe(ctx context.Context) (<-chan session.Event, error)
}

// errSubscriptionClosed makes suture restart the service when the bus drops
// the subscription while the service is still meant to run.
var errSubscriptionClosed = errors.New("event subscription closed")

// EventLogService writes every session event to the log at debug level and
// counts it by type.
type EventLogService struct {
	source EventSubscriber
	logger zerolog.Logger
	name   string
}

// NewEventLogService creates the service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEventLogService(source EventSubscriber, logger zerolog.Logger) *EventLogService {
	return &EventLogService{
		source: source,
		logger: logger.With().Str("service", "event-log").Logger(),
		name:   "event-log",
	}
}

// Serve implements suture.Service.
func (s *EventLogService) Serve(ctx context.Context) error {
	ch, err := s.source.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to session events: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errSubscriptionClosed
			}
			metrics.RecordEventObserved(string(ev.Type))
			s.logger.Debug().
				Str("type", string(ev.Type)).
				Str("session_id", ev.SessionID).
				Str("video_id", ev.VideoID).
				Int("current_index", ev.CurrentIndex).
				Int("queue_length", ev.QueueLength).
				Msg("session event")
		}
	}
}

// String implements fmt.Stringer.
func (s *EventLogService) String() string {
	return s.name
}
