// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// HistoryLimit bounds PlaybackSession.History (oldest evicted first).
const HistoryLimit = 50

// SessionSchemaVersion is the persisted layout version written by MarshalSession.
const SessionSchemaVersion = 1

// ErrMalformedSession is returned when a persisted session cannot be used.
var ErrMalformedSession = errors.New("malformed playback session")

// ContextType is the reason a playback session exists.
type ContextType string

const (
	// ContextPlaylist plays a stored playlist in position order.
	ContextPlaylist ContextType = "PLAYLIST"
	// ContextChannel plays a channel's uploads by recency.
	ContextChannel ContextType = "CHANNEL"
	// ContextSearchResults started from a search result.
	ContextSearchResults ContextType = "SEARCH_RESULTS"
	// ContextHomeFeed started from the home feed.
	ContextHomeFeed ContextType = "HOME_FEED"
	// ContextRelated started from a related-video rail.
	ContextRelated ContextType = "RELATED"
	// ContextMeditation started from the meditation section.
	ContextMeditation ContextType = "MEDITATION"
)

// Valid reports whether c is a known context type.
func (c ContextType) Valid() bool {
	switch c {
	case ContextPlaylist, ContextChannel, ContextSearchResults,
		ContextHomeFeed, ContextRelated, ContextMeditation:
		return true
	default:
		return false
	}
}

// Algorithmic reports whether the queue for c is built by the diversity pipeline.
func (c ContextType) Algorithmic() bool {
	switch c {
	case ContextHomeFeed, ContextRelated, ContextSearchResults, ContextMeditation:
		return true
	default:
		return false
	}
}

// RepeatMode controls what happens at the end of the queue.
type RepeatMode string

const (
	// RepeatOff stops at the end of the queue.
	RepeatOff RepeatMode = "off"
	// RepeatAll wraps to the start of the queue.
	RepeatAll RepeatMode = "all"
	// RepeatOne replays the current video.
	RepeatOne RepeatMode = "one"
)

// Valid reports whether r is a known repeat mode.
func (r RepeatMode) Valid() bool {
	return r == RepeatOff || r == RepeatAll || r == RepeatOne
}

// PlaybackSession is the mutable root entity of a playback session.
type PlaybackSession struct {
	Version      int         `json:"version"`
	SessionID    string      `json:"session_id"`
	StartVideoID string      `json:"start_video_id"`
	ContextType  ContextType `json:"context_type"`
	ContextID    string      `json:"context_id,omitempty"`
	Queue        []VideoItem `json:"queue"`
	History      []string    `json:"history"`
	CurrentIndex int         `json:"current_index"`
	PositionMS   int64       `json:"position_ms"`
	Autoplay     bool        `json:"autoplay"`
	Shuffle      bool        `json:"shuffle"`
	Repeat       RepeatMode  `json:"repeat"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Current returns the video at CurrentIndex, or nil when the queue is empty.
func (s *PlaybackSession) Current() *VideoItem {
	if s == nil || s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Queue) {
		return nil
	}
	return &s.Queue[s.CurrentIndex]
}

// LastPlayed returns the most recent history entry.
func (s *PlaybackSession) LastPlayed() (string, bool) {
	if s == nil || len(s.History) == 0 {
		return "", false
	}
	return s.History[len(s.History)-1], true
}

// AppendHistory records id as played and trims history to HistoryLimit.
func (s *PlaybackSession) AppendHistory(id string) {
	s.History = append(s.History, id)
	if over := len(s.History) - HistoryLimit; over > 0 {
		s.History = append([]string(nil), s.History[over:]...)
	}
}

// Clone returns a deep copy of the session.
func (s *PlaybackSession) Clone() *PlaybackSession {
	if s == nil {
		return nil
	}
	c := *s
	c.Queue = make([]VideoItem, len(s.Queue))
	for i := range s.Queue {
		c.Queue[i] = s.Queue[i].Clone()
	}
	c.History = append([]string(nil), s.History...)
	return &c
}

// Validate checks the structural invariants of the session.
func (s *PlaybackSession) Validate() error {
	if s.SessionID == "" {
		return fmt.Errorf("%w: missing session id", ErrMalformedSession)
	}
	if !s.ContextType.Valid() {
		return fmt.Errorf("%w: unknown context type %q", ErrMalformedSession, s.ContextType)
	}
	if !s.Repeat.Valid() {
		return fmt.Errorf("%w: unknown repeat mode %q", ErrMalformedSession, s.Repeat)
	}
	if len(s.History) > HistoryLimit {
		return fmt.Errorf("%w: history has %d entries", ErrMalformedSession, len(s.History))
	}
	seen := make(map[string]struct{}, len(s.Queue))
	for i := range s.Queue {
		id := s.Queue[i].ID
		if id == "" {
			return fmt.Errorf("%w: queue entry %d has no id", ErrMalformedSession, i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate queue id %q", ErrMalformedSession, id)
		}
		seen[id] = struct{}{}
	}
	if len(s.Queue) == 0 {
		if s.CurrentIndex != 0 {
			return fmt.Errorf("%w: index %d on empty queue", ErrMalformedSession, s.CurrentIndex)
		}
		return nil
	}
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Queue) {
		return fmt.Errorf("%w: index %d out of range [0,%d)", ErrMalformedSession, s.CurrentIndex, len(s.Queue))
	}
	return nil
}

// MarshalSession serializes the session for durable storage.
func MarshalSession(s *PlaybackSession) ([]byte, error) {
	out := *s
	out.Version = SessionSchemaVersion
	if out.Queue == nil {
		out.Queue = []VideoItem{}
	}
	if out.History == nil {
		out.History = []string{}
	}
	data, err := json.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return data, nil
}

// UnmarshalSession decodes and validates a persisted session.
func UnmarshalSession(data []byte) (*PlaybackSession, error) {
	var s PlaybackSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSession, err)
	}
	if s.Version != SessionSchemaVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedSession, s.Version)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
