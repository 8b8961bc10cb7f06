// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tomtom215/upnext/internal/api"
	"github.com/tomtom215/upnext/internal/catalog"
	"github.com/tomtom215/upnext/internal/config"
	"github.com/tomtom215/upnext/internal/events"
	"github.com/tomtom215/upnext/internal/logging"
	"github.com/tomtom215/upnext/internal/recommend"
	"github.com/tomtom215/upnext/internal/session"
	"github.com/tomtom215/upnext/internal/storage"
	"github.com/tomtom215/upnext/internal/supervisor"
	"github.com/tomtom215/upnext/internal/supervisor/services"
)

// app holds every long-lived component. close releases them in reverse
// construction order.
type app struct {
	logger  zerolog.Logger
	kv      storage.KV
	catalog *catalog.DuckDB
	breaker *catalog.BreakerCatalog
	bus     *events.Bus
	store   *session.Store
	handler http.Handler
	server  *http.Server
	tree    *supervisor.Tree
}

// run builds the app and serves until ctx is canceled.
func run(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg, logging.Logger())
	if err != nil {
		return err
	}
	defer a.close()

	err = a.tree.Serve(ctx)
	if report, rerr := a.tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		for _, svc := range report {
			a.logger.Warn().Str("service", svc.Name).Msg("service did not stop within timeout")
		}
	}
	return err
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (_ *app, err error) {
	a := &app{logger: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	a.kv, err = storage.Open(cfg.Storage.Type, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	logger.Info().Str("type", string(cfg.Storage.Type)).Str("path", cfg.Storage.Path).Msg("Storage opened")

	a.catalog, err = catalog.Open(&cfg.Catalog.DuckDB, logger)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if cfg.Catalog.SeedFile != "" {
		stats, serr := a.catalog.LoadSeedFile(ctx, cfg.Catalog.SeedFile)
		if serr != nil {
			return nil, fmt.Errorf("seed catalog: %w", serr)
		}
		logger.Info().
			Int("videos", stats.Videos).
			Int("playlists", stats.Playlists).
			Int("banned", stats.Banned).
			Msg("Catalog seeded")
	}
	a.breaker = catalog.NewBreakerCatalog(a.catalog, &cfg.Catalog.Breaker, logger)

	recommender, err := recommend.NewRecommender(a.breaker, a.kv, &cfg.Recommend, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("create recommender: %w", err)
	}
	recommender.LoadSeen(ctx)

	a.bus = events.NewBus(&cfg.Events, logger)

	a.store, err = session.NewStore(session.Dependencies{
		KV:          a.kv,
		Catalog:     a.breaker,
		Recommender: recommender,
		Notifier:    a.bus,
	}, &cfg.Playback, logger)
	if err != nil {
		return nil, fmt.Errorf("create session store: %w", err)
	}
	if s, ok := a.store.Resume(ctx); ok {
		logger.Info().
			Str("session_id", s.SessionID).
			Int("queue_length", len(s.Queue)).
			Int("current_index", s.CurrentIndex).
			Msg("Resumed playback session")
	}

	a.handler = api.NewRouter(api.Dependencies{
		Sessions: a.store,
		Events:   a.bus,
		Checks: map[string]api.HealthCheck{
			"catalog": a.catalog.Ping,
			"breaker": a.breakerCheck,
		},
	}, middlewareConfig(&cfg.Server), logger).Handler()

	a.server = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           a.handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	a.tree = supervisor.NewTree(slog.New(logging.NewSlogHandlerWithLogger(logger)), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if collector, ok := a.kv.(storage.Collector); ok {
		a.tree.AddDataService(services.NewStorageGCService(collector, cfg.Storage.GCInterval, logger))
	}
	a.tree.AddMessagingService(services.NewEventLogService(a.bus, logger))
	a.tree.AddAPIService(services.NewHTTPServerService(a.server, a.server.Addr, cfg.Server.ShutdownTimeout, logger))

	return a, nil
}

func (a *app) breakerCheck(context.Context) error {
	if state := a.breaker.State(); state == "open" {
		return errors.New("circuit open")
	}
	return nil
}

func middlewareConfig(s *config.ServerConfig) *api.MiddlewareConfig {
	mw := api.DefaultMiddlewareConfig()
	mw.CORSAllowedOrigins = s.CORSOrigins
	mw.RateLimitRequests = s.RateLimitReqs
	mw.RateLimitWindow = s.RateLimitWindow
	mw.RateLimitDisabled = s.RateLimitDisabled
	if s.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	return mw
}

func (a *app) close() {
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Error closing event bus")
		}
	}
	if a.catalog != nil {
		if err := a.catalog.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Error closing catalog")
		}
	}
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Error closing storage")
		}
	}
}
