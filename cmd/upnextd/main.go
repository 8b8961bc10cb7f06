// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

// Package main is the entry point for the upnext playback coordinator.
//
// upnextd owns the single "up next" playback session for a local video
// client. It builds diversity-ordered recommendation queues from a DuckDB
// video catalog, persists the session in BadgerDB, and serves a small HTTP
// API the UI layer drives.
//
// # Startup Order
//
//  1. Configuration (koanf: defaults, config.yaml, environment)
//  2. Logging (zerolog)
//  3. Session storage (BadgerDB or memory)
//  4. Catalog (DuckDB), optional seed file, circuit breaker
//  5. Recommender, with the persisted seen-id set
//  6. Event bus and session store, resuming any persisted session
//  7. Supervisor tree: storage GC, event log, HTTP server
//
// # Configuration
//
// Common environment variables:
//
//	UPNEXT_STORE=badger|memory   UPNEXT_STORE_PATH=/data/upnext
//	DUCKDB_PATH=/data/upnext.duckdb
//	CATALOG_SEED_FILE=/data/seed.json
//	HTTP_HOST=127.0.0.1  HTTP_PORT=8787
//	LOG_LEVEL=info  LOG_FORMAT=json|console
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains for
// up to server.shutdown_timeout, then storage and the catalog are closed.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/upnext/internal/config"
	"github.com/tomtom215/upnext/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.Logging)

	logging.Info().
		Str("store", string(cfg.Storage.Type)).
		Str("catalog", cfg.Catalog.DuckDB.Path).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting upnext")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("upnext stopped with error")
		stop()
		os.Exit(1)
	}
	logging.Info().Msg("upnext stopped")
}
