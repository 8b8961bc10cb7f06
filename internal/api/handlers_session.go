// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/upnext/internal/logging"
	"github.com/tomtom215/upnext/internal/models"
	"github.com/tomtom215/upnext/internal/session"
)

const (
	defaultUpNextCount = 5
	maxUpNextCount     = 50
)

// Handler implements the HTTP endpoints.
type Handler struct {
	sessions SessionService
	events   EventSource
	checks   map[string]HealthCheck
}

// NewHandler creates a Handler.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		sessions: deps.Sessions,
		events:   deps.Events,
		checks:   deps.Checks,
	}
}

type createSessionRequest struct {
	VideoID      string             `json:"video_id" validate:"required,videoid"`
	Video        *models.VideoItem  `json:"video,omitempty"`
	ContextType  models.ContextType `json:"context_type" validate:"required,contexttype"`
	ContextID    string             `json:"context_id,omitempty" validate:"omitempty,max=128"`
	InitialQueue []models.VideoItem `json:"initial_queue,omitempty" validate:"max=500,dive"`
}

type addToQueueRequest struct {
	Video    models.VideoItem `json:"video"`
	PlayNext bool             `json:"play_next"`
}

type reorderRequest struct {
	From int `json:"from" validate:"min=0"`
	To   int `json:"to" validate:"min=0"`
}

type settingsRequest struct {
	Autoplay *bool              `json:"autoplay,omitempty"`
	Shuffle  *bool              `json:"shuffle,omitempty"`
	Repeat   *models.RepeatMode `json:"repeat,omitempty" validate:"omitempty,repeatmode"`
}

type positionRequest struct {
	PositionMS int64 `json:"position_ms"`
}

type sessionResponse struct {
	Session *models.PlaybackSession `json:"session"`
	Current *models.VideoItem       `json:"current"`
	State   session.QueueState      `json:"state"`
}

type navigationResponse struct {
	Video   *models.VideoItem       `json:"video"`
	State   session.QueueState      `json:"state"`
	Session *models.PlaybackSession `json:"session"`
}

type mutationResponse struct {
	Changed bool                    `json:"changed"`
	Session *models.PlaybackSession `json:"session"`
}

func (h *Handler) snapshot() *sessionResponse {
	s := h.sessions.Session()
	return &sessionResponse{Session: s, Current: s.Current(), State: h.sessions.State()}
}

// requireSession answers 404 and returns false when nothing is playing.
func (h *Handler) requireSession(w http.ResponseWriter) bool {
	if h.sessions.Session() == nil {
		respondError(w, http.StatusNotFound, "NO_SESSION", "no active playback session", nil)
		return false
	}
	return true
}

func (h *Handler) navigated(w http.ResponseWriter, r *http.Request, video *models.VideoItem) {
	respondJSON(w, r, http.StatusOK, &navigationResponse{
		Video:   video,
		State:   h.sessions.State(),
		Session: h.sessions.Session(),
	})
}

// GetSession returns the live session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w) {
		return
	}
	respondJSON(w, r, http.StatusOK, h.snapshot())
}

// CreateSession replaces the live session with a new one.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s, err := h.sessions.Create(r.Context(), session.CreateParams{
		VideoID:      req.VideoID,
		Video:        req.Video,
		ContextType:  req.ContextType,
		ContextID:    req.ContextID,
		InitialQueue: req.InitialQueue,
	})
	switch {
	case err == nil:
		respondJSON(w, r, http.StatusCreated, &sessionResponse{
			Session: s,
			Current: s.Current(),
			State:   h.sessions.State(),
		})
	case errors.Is(err, session.ErrInvalidParams):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, session.ErrStartVideoUnknown):
		respondError(w, http.StatusNotFound, "VIDEO_NOT_FOUND", "start video is not in the catalog", nil)
	case errors.Is(err, session.ErrSuperseded):
		respondError(w, http.StatusConflict, "SUPERSEDED", "a newer session replaced this request", nil)
	default:
		respondError(w, http.StatusInternalServerError, "SESSION_CREATE_FAILED", "failed to create session", err)
	}
}

// ClearSession ends the live session.
func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(r.Context())
	logging.Ctx(r.Context()).Debug().Msg("session cleared via API")
	w.WriteHeader(http.StatusNoContent)
}

// Next advances playback. A null video means the queue is exhausted.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w) {
		return
	}
	h.navigated(w, r, h.sessions.Next(r.Context()))
}

// Previous steps back through history.
func (h *Handler) Previous(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w) {
		return
	}
	h.navigated(w, r, h.sessions.Previous(r.Context()))
}

// SkipTo jumps to a queued video. Unknown ids return a null video.
func (h *Handler) SkipTo(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w) {
		return
	}
	h.navigated(w, r, h.sessions.SkipTo(r.Context(), chi.URLParam(r, "id")))
}

// Refill extends an exhausted algorithmic queue.
func (h *Handler) Refill(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w) {
		return
	}
	added := h.sessions.Refill(r.Context())
	respondJSON(w, r, http.StatusOK, map[string]any{
		"added":   added,
		"state":   h.sessions.State(),
		"session": h.sessions.Session(),
	})
}

// AddToQueue inserts a video after the current one or at the end.
func (h *Handler) AddToQueue(w http.ResponseWriter, r *http.Request) {
	var req addToQueueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !h.requireSession(w) {
		return
	}
	changed := h.sessions.AddToQueue(r.Context(), req.Video, req.PlayNext)
	respondJSON(w, r, http.StatusOK, &mutationResponse{Changed: changed, Session: h.sessions.Session()})
}

// RemoveFromQueue drops a video from the queue.
func (h *Handler) RemoveFromQueue(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w) {
		return
	}
	changed := h.sessions.RemoveFromQueue(r.Context(), chi.URLParam(r, "id"))
	respondJSON(w, r, http.StatusOK, &mutationResponse{Changed: changed, Session: h.sessions.Session()})
}

// ReorderQueue moves the item at from to position to.
func (h *Handler) ReorderQueue(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !h.requireSession(w) {
		return
	}
	changed := h.sessions.ReorderQueue(r.Context(), req.From, req.To)
	respondJSON(w, r, http.StatusOK, &mutationResponse{Changed: changed, Session: h.sessions.Session()})
}

// UpNext previews the coming videos. ?count defaults to 5, capped at 50.
func (h *Handler) UpNext(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w) {
		return
	}
	count := getIntParam(r, "count", defaultUpNextCount)
	if count < 1 {
		count = defaultUpNextCount
	}
	if count > maxUpNextCount {
		count = maxUpNextCount
	}
	videos := h.sessions.UpNext(count)
	if videos == nil {
		videos = []models.VideoItem{}
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"videos": videos,
		"state":  h.sessions.State(),
	})
}

// UpdateSettings changes autoplay, shuffle or repeat. Omitted fields are untouched.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Autoplay == nil && req.Shuffle == nil && req.Repeat == nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "no settings supplied", nil)
		return
	}

	ctx := r.Context()
	var err error
	if req.Autoplay != nil {
		err = h.sessions.SetAutoplay(ctx, *req.Autoplay)
	}
	if err == nil && req.Shuffle != nil {
		err = h.sessions.SetShuffle(ctx, *req.Shuffle)
	}
	if err == nil && req.Repeat != nil {
		err = h.sessions.SetRepeat(ctx, *req.Repeat)
	}
	if !h.sessionErr(w, err) {
		return
	}
	respondJSON(w, r, http.StatusOK, h.snapshot())
}

// UpdatePosition records the playback position. Negative values are clamped to 0.
func (h *Handler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !h.sessionErr(w, h.sessions.UpdatePosition(r.Context(), req.PositionMS)) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sessionErr maps a store error to a response. It returns true when err is nil.
func (h *Handler) sessionErr(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, session.ErrNoSession):
		respondError(w, http.StatusNotFound, "NO_SESSION", "no active playback session", nil)
	case errors.Is(err, session.ErrInvalidParams):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "session update failed", err)
	}
	return false
}
