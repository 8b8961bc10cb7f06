// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

/*
Package models defines the data structures shared by the upnext packages.

Key Components:

  - VideoItem: immutable recommendation unit, identity is by ID
  - PlaybackSession: the single live playback session (queue, history, settings)
  - ContextType: why a session exists (playlist, channel, search, feed, ...)
  - RepeatMode: off, all or one

Serialization:

PlaybackSession is persisted as JSON (goccy/go-json) under one durable key.
MarshalSession and UnmarshalSession own that layout; UnmarshalSession rejects
payloads that violate the session invariants so callers can treat them as absent.

Invariants:

  - queue ids are unique
  - 0 <= current_index < len(queue) whenever the queue is non-empty
  - len(history) <= HistoryLimit
*/
package models
