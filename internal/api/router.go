// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tomtom215/upnext/internal/models"
	"github.com/tomtom215/upnext/internal/session"
)

// SessionService is the playback session surface the API drives.
// *session.Store implements it.
type SessionService interface {
	Create(ctx context.Context, params session.CreateParams) (*models.PlaybackSession, error)
	Session() *models.PlaybackSession
	Clear(ctx context.Context)

	Next(ctx context.Context) *models.VideoItem
	Previous(ctx context.Context) *models.VideoItem
	SkipTo(ctx context.Context, id string) *models.VideoItem
	Refill(ctx context.Context) int

	AddToQueue(ctx context.Context, item models.VideoItem, playNext bool) bool
	RemoveFromQueue(ctx context.Context, id string) bool
	ReorderQueue(ctx context.Context, from, to int) bool
	UpNext(count int) []models.VideoItem
	State() session.QueueState

	UpdatePosition(ctx context.Context, positionMS int64) error
	SetAutoplay(ctx context.Context, on bool) error
	SetShuffle(ctx context.Context, on bool) error
	SetRepeat(ctx context.Context, mode models.RepeatMode) error
}

// EventSource streams session events. *events.Bus implements it.
type EventSource interface {
	Subscribe(ctx context.Context) (<-chan session.Event, error)
}

// HealthCheck reports a dependency failure as a non-nil error.
type HealthCheck func(ctx context.Context) error

// Dependencies wires the router.
type Dependencies struct {
	Sessions SessionService

	// Events is optional; without it the events route answers 503.
	Events EventSource

	// Checks are run by GET /health, keyed by component name.
	Checks map[string]HealthCheck
}

// Router serves the local UI API.
type Router struct {
	handler    *Handler
	middleware *Middleware
	logger     zerolog.Logger
}

// NewRouter creates a router.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRouter(deps Dependencies, cfg *MiddlewareConfig, logger zerolog.Logger) *Router {
	return &Router{
		handler:    NewHandler(deps),
		middleware: NewMiddleware(cfg),
		logger:     logger.With().Str("component", "api").Logger(),
	}
}

// Handler builds the chi route tree.
func (router *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging(router.logger))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	r.Get("/health", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/session", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(PrometheusMetrics)

		// Event streams are flushed per message and stay uncompressed.
		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Compress(5, "application/json"))

			r.Get("/", router.handler.GetSession)
			r.Post("/", router.handler.CreateSession)
			r.Delete("/", router.handler.ClearSession)

			r.Post("/next", router.handler.Next)
			r.Post("/previous", router.handler.Previous)
			r.Post("/skip/{id}", router.handler.SkipTo)
			r.Post("/refill", router.handler.Refill)

			r.Post("/queue", router.handler.AddToQueue)
			r.Delete("/queue/{id}", router.handler.RemoveFromQueue)
			r.Post("/queue/reorder", router.handler.ReorderQueue)
			r.Get("/upnext", router.handler.UpNext)

			r.Put("/settings", router.handler.UpdateSettings)
			r.Put("/position", router.handler.UpdatePosition)
		})

		r.Get("/events", router.handler.Events)
	})

	return r
}
