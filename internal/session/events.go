// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package session

import (
	"context"
	"time"
)

// EventType names a session change.
type EventType string

const (
	EventSessionCreated  EventType = "session.created"
	EventSessionCleared  EventType = "session.cleared"
	EventVideoChanged    EventType = "video.changed"
	EventQueueChanged    EventType = "queue.changed"
	EventSettingsChanged EventType = "settings.changed"
)

// Event describes a change to the live session.
type Event struct {
	Type         EventType `json:"type"`
	SessionID    string    `json:"session_id"`
	VideoID      string    `json:"video_id,omitempty"`
	CurrentIndex int       `json:"current_index"`
	QueueLength  int       `json:"queue_length"`
	At           time.Time `json:"at"`
}

// Notifier receives session events. Implementations must not call back into the Store.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}
