// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/upnext/internal/metrics"
	"github.com/tomtom215/upnext/internal/models"
	"github.com/tomtom215/upnext/internal/recommend"
	"github.com/tomtom215/upnext/internal/storage"
	"github.com/tomtom215/upnext/internal/validation"
)

// Recommender produces diversity-ordered recommendations.
// *recommend.Recommender implements it.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) *recommend.Response
}

// Dependencies are the collaborators of a Store.
type Dependencies struct {
	// KV persists the session. Required.
	KV storage.KV

	// Catalog resolves playlist, channel and start-video lookups. Required.
	Catalog recommend.Catalog

	// Recommender builds algorithmic queues. Required.
	Recommender Recommender

	// Notifier receives change events. Optional.
	Notifier Notifier

	// Rand drives shuffle picks. Optional; seeded from the clock when nil.
	Rand *rand.Rand
}

// CreateParams describes how a session starts.
type CreateParams struct {
	// VideoID is the video the user started.
	VideoID string `json:"video_id" validate:"required,videoid"`

	// Video carries the start video's metadata when the caller has it.
	Video *models.VideoItem `json:"video,omitempty"`

	// ContextType is why the session exists.
	ContextType models.ContextType `json:"context_type" validate:"required,contexttype"`

	// ContextID references the playlist or channel for fixed-source contexts.
	ContextID string `json:"context_id,omitempty" validate:"omitempty,max=128"`

	// InitialQueue is used as the queue (deduplicated) when supplied.
	// Every entry must carry a valid video id.
	InitialQueue []models.VideoItem `json:"initial_queue,omitempty" validate:"omitempty,dive"`
}

// Store owns the single live PlaybackSession. Every method is safe for
// concurrent use; each navigator call is atomic with respect to the others.
//
// The session is persisted after every mutation. Persistence failures are
// logged and counted but never undo the in-memory change.
type Store struct {
	config      *Config
	logger      zerolog.Logger
	kv          storage.KV
	catalog     recommend.Catalog
	recommender Recommender
	notifier    Notifier

	// Overridable in tests.
	now   func() time.Time
	newID func() string

	mu      sync.Mutex
	rng     *rand.Rand
	session *models.PlaybackSession

	// exhausted is set when Next ran off the end of the queue. In-memory only.
	exhausted bool

	// generation increments on every Create and Clear so a Create that
	// awaited the catalog can tell it has been overtaken.
	generation uint64
}

// NewStore creates a Store. Call Resume to rehydrate a persisted session.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewStore(deps Dependencies, cfg *Config, logger zerolog.Logger) (*Store, error) {
	if deps.KV == nil {
		return nil, errors.New("session store requires a KV")
	}
	if deps.Catalog == nil {
		return nil, errors.New("session store requires a catalog")
	}
	if deps.Recommender == nil {
		return nil, errors.New("session store requires a recommender")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // shuffle order is not security sensitive
	}

	return &Store{
		config:      cfg,
		logger:      logger.With().Str("component", "session").Logger(),
		kv:          deps.KV,
		catalog:     deps.Catalog,
		recommender: deps.Recommender,
		notifier:    deps.Notifier,
		now:         time.Now,
		newID:       uuid.NewString,
		rng:         rng,
	}, nil
}

// Create builds a new session and replaces any existing one.
//
// The queue comes from params.InitialQueue when given, from the catalog for
// PLAYLIST and CHANNEL contexts, and from the recommender otherwise. The
// catalog work runs without holding the lock; if another Create or a Clear
// happened meanwhile the result is dropped and ErrSuperseded returned.
func (s *Store) Create(ctx context.Context, params CreateParams) (*models.PlaybackSession, error) {
	if verr := validation.ValidateStruct(&params); verr != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, verr)
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	queue, err := s.buildQueue(ctx, &params)
	if err != nil {
		return nil, err
	}

	startIdx := models.IndexOfVideo(queue, params.VideoID)
	sess := &models.PlaybackSession{
		Version:      models.SessionSchemaVersion,
		SessionID:    s.newID(),
		StartVideoID: params.VideoID,
		ContextType:  params.ContextType,
		ContextID:    params.ContextID,
		Queue:        queue,
		History:      []string{params.VideoID},
		CurrentIndex: startIdx,
		Autoplay:     s.config.DefaultAutoplay,
		Repeat:       s.config.DefaultRepeat,
		CreatedAt:    s.now().UTC(),
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug().
			Str("video_id", params.VideoID).
			Msg("discarding superseded session build")
		return nil, ErrSuperseded
	}
	s.session = sess
	s.exhausted = false
	s.persistLocked(ctx)
	ev := s.eventLocked(EventSessionCreated)
	snapshot := sess.Clone()
	s.mu.Unlock()

	metrics.RecordSessionCreated(string(params.ContextType), len(queue))
	s.logger.Info().
		Str("session_id", sess.SessionID).
		Str("context_type", string(sess.ContextType)).
		Str("start_video", sess.StartVideoID).
		Int("queue_length", len(queue)).
		Msg("playback session created")
	s.notify(ctx, ev)

	return snapshot, nil
}

// buildQueue assembles the queue for params. The start video is always present.
func (s *Store) buildQueue(ctx context.Context, p *CreateParams) ([]models.VideoItem, error) {
	if len(p.InitialQueue) > 0 {
		return s.withStart(ctx, p, models.DedupeVideos(p.InitialQueue))
	}

	switch p.ContextType {
	case models.ContextPlaylist:
		videos, err := s.catalog.QueryPlaylistVideos(ctx, p.ContextID)
		if err != nil {
			s.logger.Warn().Err(err).Str("playlist_id", p.ContextID).Msg("playlist fetch failed")
			videos = nil
		}
		return s.withStart(ctx, p, models.DedupeVideos(videos))

	case models.ContextChannel:
		start, err := s.resolveStart(ctx, p)
		if err != nil {
			return nil, err
		}
		channelID := p.ContextID
		if channelID == "" {
			channelID = start.ChannelID
		}
		videos, err := s.catalog.QueryChannelVideos(ctx, channelID, start.ID, s.config.ChannelQueueLimit)
		if err != nil {
			s.logger.Warn().Err(err).Str("channel_id", channelID).Msg("channel fetch failed")
			videos = nil
		}
		return prepend(*start, videos), nil

	default:
		start, err := s.resolveStart(ctx, p)
		if err != nil {
			return nil, err
		}
		resp := s.recommender.Recommend(ctx, recommend.Request{
			CurrentVideoID: start.ID,
			Category:       start.Category,
			ChannelID:      start.ChannelID,
			Count:          s.config.RecommendCount,
		})
		videos := resp.Videos
		if p.ContextType == models.ContextMeditation {
			videos = sameCategory(videos, start.Category)
		}
		return prepend(*start, videos), nil
	}
}

// withStart locates the start video in queue or inserts it at the front.
func (s *Store) withStart(ctx context.Context, p *CreateParams, queue []models.VideoItem) ([]models.VideoItem, error) {
	if models.IndexOfVideo(queue, p.VideoID) >= 0 {
		return queue, nil
	}
	start, err := s.resolveStart(ctx, p)
	if err != nil {
		return nil, err
	}
	return prepend(*start, queue), nil
}

// resolveStart returns the start video's metadata from params or the catalog.
func (s *Store) resolveStart(ctx context.Context, p *CreateParams) (*models.VideoItem, error) {
	if p.Video != nil && p.Video.ID == p.VideoID {
		v := p.Video.Clone()
		return &v, nil
	}
	v, err := s.catalog.GetVideo(ctx, p.VideoID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStartVideoUnknown, p.VideoID, err)
	}
	if v == nil {
		return nil, fmt.Errorf("%w: %s", ErrStartVideoUnknown, p.VideoID)
	}
	return v, nil
}

// Resume rehydrates the persisted session. Unreadable or invalid data is
// deleted and reported as no session.
func (s *Store) Resume(ctx context.Context) (*models.PlaybackSession, bool) {
	data, err := s.kv.Get(ctx, storage.SessionKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read persisted session")
		metrics.RecordPersistenceError(storage.SessionKey, "read")
		return nil, false
	}

	sess, err := models.UnmarshalSession(data)
	if err != nil {
		s.logger.Warn().Err(err).Msg("discarding malformed persisted session")
		metrics.RecordMalformedSession()
		if derr := s.kv.Delete(ctx, storage.SessionKey); derr != nil {
			metrics.RecordPersistenceError(storage.SessionKey, "delete")
		}
		return nil, false
	}

	s.mu.Lock()
	s.session = sess
	s.exhausted = false
	snapshot := sess.Clone()
	s.mu.Unlock()

	metrics.SetQueueLength(len(sess.Queue))
	s.logger.Info().
		Str("session_id", sess.SessionID).
		Int("queue_length", len(sess.Queue)).
		Int("current_index", sess.CurrentIndex).
		Msg("playback session resumed")
	return snapshot, true
}

// Clear ends the live session and erases it from storage.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	var ev Event
	hadSession := s.session != nil
	if hadSession {
		ev = s.eventLocked(EventSessionCleared)
	}
	s.session = nil
	s.exhausted = false
	s.generation++
	if err := s.kv.Delete(context.WithoutCancel(ctx), storage.SessionKey); err != nil {
		s.logger.Warn().Err(err).Msg("failed to erase persisted session")
		metrics.RecordPersistenceError(storage.SessionKey, "delete")
	}
	s.mu.Unlock()

	metrics.SetQueueLength(0)
	if hadSession {
		s.notify(ctx, ev)
	}
}

// Session returns a copy of the live session, or nil.
func (s *Store) Session() *models.PlaybackSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

// UpdatePosition records the playback position of the current video.
func (s *Store) UpdatePosition(ctx context.Context, positionMS int64) error {
	if positionMS < 0 {
		positionMS = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ErrNoSession
	}
	s.session.PositionMS = positionMS
	s.persistLocked(ctx)
	return nil
}

// SetAutoplay toggles autoplay.
func (s *Store) SetAutoplay(ctx context.Context, on bool) error {
	return s.updateSettings(ctx, func(sess *models.PlaybackSession) {
		sess.Autoplay = on
	})
}

// SetShuffle toggles shuffle. Enabling it clears the exhaustion state so a
// fresh shuffled pass does not inherit the end of a linear one.
func (s *Store) SetShuffle(ctx context.Context, on bool) error {
	return s.updateSettings(ctx, func(sess *models.PlaybackSession) {
		sess.Shuffle = on
		if on {
			s.exhausted = false
		}
	})
}

// SetRepeat sets the repeat mode.
func (s *Store) SetRepeat(ctx context.Context, mode models.RepeatMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: repeat mode %q", ErrInvalidParams, mode)
	}
	return s.updateSettings(ctx, func(sess *models.PlaybackSession) {
		sess.Repeat = mode
	})
}

func (s *Store) updateSettings(ctx context.Context, apply func(*models.PlaybackSession)) error {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return ErrNoSession
	}
	apply(s.session)
	s.persistLocked(ctx)
	ev := s.eventLocked(EventSettingsChanged)
	s.mu.Unlock()

	s.notify(ctx, ev)
	return nil
}

// persistLocked writes the session to storage. Caller holds mu.
func (s *Store) persistLocked(ctx context.Context) {
	if s.session == nil {
		return
	}
	metrics.SetQueueLength(len(s.session.Queue))

	data, err := models.MarshalSession(s.session)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode session")
		metrics.RecordPersistenceError(storage.SessionKey, "encode")
		return
	}
	// The write must land even if the caller's request was cancelled.
	if err := s.kv.Set(context.WithoutCancel(ctx), storage.SessionKey, data); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist session")
		metrics.RecordPersistenceError(storage.SessionKey, "write")
	}
}

// eventLocked snapshots the session into an event. Caller holds mu.
func (s *Store) eventLocked(t EventType) Event {
	ev := Event{Type: t, At: s.now().UTC()}
	if s.session == nil {
		return ev
	}
	ev.SessionID = s.session.SessionID
	ev.CurrentIndex = s.session.CurrentIndex
	ev.QueueLength = len(s.session.Queue)
	if cur := s.session.Current(); cur != nil {
		ev.VideoID = cur.ID
	}
	return ev
}

// notify delivers ev outside the lock.
func (s *Store) notify(ctx context.Context, ev Event) {
	if s.notifier == nil || ev.Type == "" {
		return
	}
	s.notifier.Notify(ctx, ev)
}

func prepend(start models.VideoItem, videos []models.VideoItem) []models.VideoItem {
	out := make([]models.VideoItem, 0, len(videos)+1)
	out = append(out, start)
	for i := range videos {
		if videos[i].ID != start.ID {
			out = append(out, videos[i])
		}
	}
	return models.DedupeVideos(out)
}

// sameCategory keeps videos in category. An empty category or an empty
// result leaves videos unfiltered.
func sameCategory(videos []models.VideoItem, category string) []models.VideoItem {
	if category == "" {
		return videos
	}
	out := make([]models.VideoItem, 0, len(videos))
	for i := range videos {
		if videos[i].Category == category {
			out = append(out, videos[i])
		}
	}
	if len(out) == 0 {
		return videos
	}
	return out
}
