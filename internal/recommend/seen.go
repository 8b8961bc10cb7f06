// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/upnext/internal/cache"
	"github.com/tomtom215/upnext/internal/metrics"
	"github.com/tomtom215/upnext/internal/storage"
)

// SeenTracker records which videos have been surfaced as recommendations
// during the browsing session. It keeps the most recent N ids and mirrors
// them to a TTL'd storage key so a reload within the session keeps them.
//
// Persistence failures are logged and counted; the in-memory set stays authoritative.
type SeenTracker struct {
	ids    *cache.LRUCache
	kv     storage.KV
	ttl    time.Duration
	logger zerolog.Logger
}

// NewSeenTracker creates a tracker bounded to capacity ids. kv may be nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSeenTracker(kv storage.KV, capacity int, ttl time.Duration, logger zerolog.Logger) *SeenTracker {
	return &SeenTracker{
		// The storage key carries the session TTL; entries themselves never expire in memory.
		ids:    cache.NewLRUCache(capacity, 0),
		kv:     kv,
		ttl:    ttl,
		logger: logger,
	}
}

// Load rehydrates the set from storage. A missing or unreadable key leaves it empty.
func (s *SeenTracker) Load(ctx context.Context) {
	if s.kv == nil {
		return
	}
	data, err := s.kv.Get(ctx, storage.SeenKey)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read seen ids")
		metrics.RecordPersistenceError(storage.SeenKey, "read")
		return
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		s.logger.Warn().Err(err).Msg("discarding unreadable seen ids")
		return
	}
	s.ids.Clear()
	s.ids.AddAll(ids)
}

// Record marks ids as seen, most recent last, and persists the set.
func (s *SeenTracker) Record(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	s.ids.AddAll(ids)
	s.persist(ctx)
}

// Contains reports whether id was seen.
func (s *SeenTracker) Contains(id string) bool {
	return s.ids.Contains(id)
}

// IDs returns the seen ids, oldest first.
func (s *SeenTracker) IDs() []string {
	return s.ids.Keys()
}

// Len returns the number of tracked ids.
func (s *SeenTracker) Len() int {
	return s.ids.Len()
}

// Set returns the ids as a lookup set.
func (s *SeenTracker) Set() map[string]struct{} {
	keys := s.ids.Keys()
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Reset clears the set and removes the persisted key.
func (s *SeenTracker) Reset(ctx context.Context) {
	s.ids.Clear()
	if s.kv == nil {
		return
	}
	if err := s.kv.Delete(ctx, storage.SeenKey); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear seen ids")
		metrics.RecordPersistenceError(storage.SeenKey, "delete")
	}
}

func (s *SeenTracker) persist(ctx context.Context) {
	if s.kv == nil {
		return
	}
	data, err := json.Marshal(s.ids.Keys())
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode seen ids")
		return
	}
	if err := s.kv.SetWithTTL(ctx, storage.SeenKey, data, s.ttl); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist seen ids")
		metrics.RecordPersistenceError(storage.SeenKey, "write")
	}
}
