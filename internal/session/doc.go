// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

/*
Package session owns the live playback session and the queue navigator.

A Store holds exactly one models.PlaybackSession at a time. Create builds a
new one from a start video and a context:

  - PLAYLIST sessions play the playlist in stored order.
  - CHANNEL sessions play the channel's uploads newest first.
  - HOME_FEED, RELATED, SEARCH_RESULTS and MEDITATION sessions are filled
    by the recommender after the start video.

Every mutation is written through to a storage.KV so Resume can rehydrate
the session after a restart. Persisted data that fails validation is
discarded rather than repaired.

# Navigation

Next honors the repeat and shuffle settings and avoids replaying anything in
the recent history (the last models.HistoryLimit plays) while a fresher
video remains. Previous walks history backwards. SkipTo, AddToQueue,
RemoveFromQueue and ReorderQueue edit the queue while keeping the current
video current.

When an algorithmic queue runs out, Refill appends another batch of
recommendations seeded by the current video.

# Concurrency

All methods are safe for concurrent use. The recommender and catalog are
called without holding the store lock; a Create overtaken by a newer Create
or Clear returns ErrSuperseded and leaves the newer session in place.

# Events

When a Notifier is configured, the store emits an Event after each change,
outside the lock. The events package publishes them on the in-process bus.
*/
package session
