// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/upnext/internal/catalog"
	"github.com/tomtom215/upnext/internal/config"
	"github.com/tomtom215/upnext/internal/events"
	"github.com/tomtom215/upnext/internal/logging"
	"github.com/tomtom215/upnext/internal/recommend"
	"github.com/tomtom215/upnext/internal/session"
	"github.com/tomtom215/upnext/internal/storage"
)

const seedJSON = `{
  "videos": [
    {"id": "v1", "title": "Start", "channel_id": "c1", "category": "music"},
    {"id": "v2", "title": "Two", "channel_id": "c2", "category": "music"},
    {"id": "v3", "title": "Three", "channel_id": "c3", "category": "news"},
    {"id": "v4", "title": "Four", "channel_id": "c4", "category": "music"},
    {"id": "v5", "title": "Five", "channel_id": "c2", "category": "news"}
  ],
  "playlists": {"p1": ["v3", "v1"]},
  "banned_users": []
}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	seed := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(seed, []byte(seedJSON), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	rc := recommend.DefaultConfig()
	rc.Seed = 7

	return &config.Config{
		Logging: logging.DefaultConfig(),
		Storage: config.StorageConfig{Type: storage.StoreMemory, GCInterval: time.Hour},
		Catalog: config.CatalogConfig{
			DuckDB:   catalog.Config{Threads: 1, QueryTimeout: 5 * time.Second},
			SeedFile: seed,
			Breaker:  *catalog.DefaultBreakerConfig(),
		},
		Recommend: *rc,
		Playback:  *session.DefaultConfig(),
		Server: config.ServerConfig{
			Host:              "127.0.0.1",
			Port:              8787,
			ReadTimeout:       5 * time.Second,
			WriteTimeout:      5 * time.Second,
			ShutdownTimeout:   time.Second,
			RateLimitDisabled: true,
		},
		Events: *events.DefaultConfig(),
	}
}

func TestNewApp_ServesSeededCatalog(t *testing.T) {
	cfg := testConfig(t)
	a, err := newApp(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.close()

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health = %d: %s", rec.Code, rec.Body.String())
	}

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantIDs  []string
	}{
		{"playlist", `{"video_id":"v1","context_type":"PLAYLIST","context_id":"p1"}`, http.StatusCreated, []string{`"v3"`, `"v1"`}},
		{"home feed", `{"video_id":"v1","context_type":"HOME_FEED"}`, http.StatusCreated, []string{`"v1"`}},
		{"unknown start", `{"video_id":"zz","context_type":"HOME_FEED"}`, http.StatusNotFound, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/session", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			a.handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("create = %d: %s", rec.Code, rec.Body.String())
			}
			for _, id := range tt.wantIDs {
				if !strings.Contains(rec.Body.String(), id) {
					t.Errorf("response lacks %s: %s", id, rec.Body.String())
				}
			}
		})
	}
}

func TestNewApp_BadSeedFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.SeedFile = filepath.Join(t.TempDir(), "missing.json")

	if _, err := newApp(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatal("newApp succeeded with a missing seed file")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port
}

func TestRun_ServesUntilCanceled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Port = freePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg) }()

	url := fmt.Sprintf("http://%s/health", cfg.Server.Addr())
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(url) //nolint:gosec,noctx // test URL
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("server never became healthy: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("run = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}
