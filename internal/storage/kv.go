// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

// Package storage provides the key-value persistence port used by the
// playback session store, with in-memory and BadgerDB backends.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a key does not exist or has expired.
var ErrNotFound = errors.New("key not found")

// Well-known keys.
const (
	// SessionKey holds the durable PlaybackSession JSON.
	SessionKey = "upnext:session"

	// SeenKey holds the session-scoped JSON array of seen video ids.
	SeenKey = "upnext:seen"
)

// KV is a minimal byte-oriented key-value store.
type KV interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value without expiry.
	Set(ctx context.Context, key string, value []byte) error

	// SetWithTTL stores value that disappears after ttl. A non-positive ttl means no expiry.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	io.Closer
}

// Collector is implemented by backends that reclaim space in the background.
type Collector interface {
	// RunGC performs one collection pass. It returns once there is nothing
	// left worth reclaiming or ctx is done.
	RunGC(ctx context.Context) error
}
