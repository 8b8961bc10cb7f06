// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package api

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/upnext/internal/models"
	"github.com/tomtom215/upnext/internal/recommend"
	"github.com/tomtom215/upnext/internal/session"
	"github.com/tomtom215/upnext/internal/storage"
)

var errNotFound = errors.New("not found")

type stubCatalog struct {
	videos map[string]models.VideoItem
}

func (c *stubCatalog) QueryEligibleVideos(context.Context, map[string]struct{}, int) ([]models.VideoItem, error) {
	return nil, nil
}

func (c *stubCatalog) QueryPlaylistVideos(context.Context, string) ([]models.VideoItem, error) {
	return nil, nil
}

func (c *stubCatalog) QueryChannelVideos(context.Context, string, string, int) ([]models.VideoItem, error) {
	return nil, nil
}

func (c *stubCatalog) QueryBannedUserIDs(context.Context) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (c *stubCatalog) GetVideo(_ context.Context, id string) (*models.VideoItem, error) {
	v, ok := c.videos[id]
	if !ok {
		return nil, errNotFound
	}
	return &v, nil
}

// stubRecommender returns batches in order, repeating the last one.
type stubRecommender struct {
	mu      sync.Mutex
	batches [][]models.VideoItem
	calls   int
}

func (r *stubRecommender) Recommend(context.Context, recommend.Request) *recommend.Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.calls
	if i >= len(r.batches) {
		i = len(r.batches) - 1
	}
	r.calls++
	return &recommend.Response{Videos: r.batches[i], Outcome: recommend.OutcomeOK}
}

func vid(id, channel string) models.VideoItem {
	return models.VideoItem{ID: id, Title: "Video " + id, ChannelID: channel}
}

type testAPI struct {
	store   *session.Store
	handler http.Handler
}

func newTestAPI(t *testing.T, cfg *MiddlewareConfig, events EventSource, checks map[string]HealthCheck) *testAPI {
	t.Helper()

	catalog := &stubCatalog{videos: map[string]models.VideoItem{
		"v0": vid("v0", "c0"),
	}}
	rec := &stubRecommender{batches: [][]models.VideoItem{
		{vid("r1", "c1"), vid("r2", "c2"), vid("r3", "c3"), vid("r4", "c4")},
		{vid("r5", "c5"), vid("r6", "c6")},
	}}

	store, err := session.NewStore(session.Dependencies{
		KV:          storage.NewMemoryKV(),
		Catalog:     catalog,
		Recommender: rec,
		Rand:        rand.New(rand.NewSource(1)),
	}, session.DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if cfg == nil {
		cfg = DefaultMiddlewareConfig()
		cfg.RateLimitDisabled = true
	}
	router := NewRouter(Dependencies{Sessions: store, Events: events, Checks: checks}, cfg, zerolog.Nop())
	return &testAPI{store: store, handler: router.Handler()}
}

// do sends a request and decodes the envelope when the body is JSON.
func (a *testAPI) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, *Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	if rec.Body.Len() == 0 {
		return rec, nil
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
	}
	return rec, &resp
}

// data re-decodes resp.Data into v.
func data(t *testing.T, resp *Response, v any) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("unmarshal data %s: %v", raw, err)
	}
}

func (a *testAPI) create(t *testing.T) {
	t.Helper()
	rec, _ := a.do(t, http.MethodPost, "/api/v1/session", map[string]any{
		"video_id":     "v0",
		"context_type": "HOME_FEED",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func ids(videos []models.VideoItem) []string {
	out := make([]string, len(videos))
	for i := range videos {
		out[i] = videos[i].ID
	}
	return out
}
