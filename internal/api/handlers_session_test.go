// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/tomtom215/upnext/internal/models"
	"github.com/tomtom215/upnext/internal/session"
)

func TestSession_Lifecycle(t *testing.T) {
	a := newTestAPI(t, nil, nil, nil)

	rec, resp := a.do(t, http.MethodGet, "/api/v1/session", nil)
	if rec.Code != http.StatusNotFound || resp.Error == nil || resp.Error.Code != "NO_SESSION" {
		t.Fatalf("GET before create = %d %+v", rec.Code, resp)
	}

	a.create(t)

	rec, resp = a.do(t, http.MethodGet, "/api/v1/session", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	var sr sessionResponse
	data(t, resp, &sr)
	if got := strings.Join(ids(sr.Session.Queue), ","); got != "v0,r1,r2,r3,r4" {
		t.Errorf("queue = %s", got)
	}
	if sr.Current == nil || sr.Current.ID != "v0" || sr.State != session.StateHasMore {
		t.Errorf("current/state = %+v/%s", sr.Current, sr.State)
	}

	steps := []struct {
		method, path string
		want         string
	}{
		{http.MethodPost, "/api/v1/session/next", "r1"},
		{http.MethodPost, "/api/v1/session/previous", "v0"},
		{http.MethodPost, "/api/v1/session/skip/r3", "r3"},
		{http.MethodPost, "/api/v1/session/skip/missing", ""},
	}
	for _, s := range steps {
		rec, resp = a.do(t, s.method, s.path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", s.path, rec.Code)
		}
		var nr navigationResponse
		data(t, resp, &nr)
		got := ""
		if nr.Video != nil {
			got = nr.Video.ID
		}
		if got != s.want {
			t.Errorf("%s video = %q, want %q", s.path, got, s.want)
		}
	}

	rec, resp = a.do(t, http.MethodGet, "/api/v1/session/upnext?count=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("upnext status = %d", rec.Code)
	}
	var up struct {
		Videos []models.VideoItem  `json:"videos"`
		State  session.QueueState `json:"state"`
	}
	data(t, resp, &up)
	if got := strings.Join(ids(up.Videos), ","); got != "r4" {
		t.Errorf("upnext = %s, want r4", got)
	}

	rec, _ = a.do(t, http.MethodDelete, "/api/v1/session", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %d", rec.Code)
	}
	rec, _ = a.do(t, http.MethodGet, "/api/v1/session", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET after clear = %d", rec.Code)
	}
}

func TestCreateSession_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		wantCode int
		wantErr  string
	}{
		{"invalid json", "{not json", http.StatusBadRequest, "INVALID_JSON"},
		{"missing video", map[string]any{"context_type": "HOME_FEED"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad context", map[string]any{"video_id": "v0", "context_type": "RADIO"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"video id with slash", map[string]any{"video_id": "a/b", "context_type": "HOME_FEED"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"initial queue entry without id", map[string]any{
			"video_id":      "v0",
			"context_type":  "SEARCH_RESULTS",
			"initial_queue": []map[string]string{{"id": "v0"}, {"title": "no id"}},
		}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown start", map[string]any{"video_id": "ghost", "context_type": "CHANNEL"}, http.StatusNotFound, "VIDEO_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAPI(t, nil, nil, nil)
			rec, resp := a.do(t, http.MethodPost, "/api/v1/session", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if resp.Error == nil || resp.Error.Code != tt.wantErr {
				t.Errorf("error = %+v, want %s", resp.Error, tt.wantErr)
			}
		})
	}
}

func TestCreateSession_SuppliedStartVideo(t *testing.T) {
	a := newTestAPI(t, nil, nil, nil)
	rec, resp := a.do(t, http.MethodPost, "/api/v1/session", map[string]any{
		"video_id":      "x9",
		"video":         vid("x9", "cx"),
		"context_type":  "SEARCH_RESULTS",
		"initial_queue": []models.VideoItem{vid("a", "c1"), vid("x9", "cx"), vid("a", "c1")},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	var sr sessionResponse
	data(t, resp, &sr)
	if got := strings.Join(ids(sr.Session.Queue), ","); got != "a,x9" {
		t.Errorf("queue = %s, want a,x9", got)
	}
	if sr.Session.CurrentIndex != 1 {
		t.Errorf("CurrentIndex = %d, want 1", sr.Session.CurrentIndex)
	}
}

func TestQueueMutations(t *testing.T) {
	a := newTestAPI(t, nil, nil, nil)

	rec, _ := a.do(t, http.MethodPost, "/api/v1/session/queue", map[string]any{"video": vid("q1", "c9")})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("add without session = %d, want 404", rec.Code)
	}

	a.create(t)

	tests := []struct {
		name        string
		method      string
		path        string
		body        any
		wantCode    int
		wantChanged bool
		wantQueue   string
	}{
		{"play next", http.MethodPost, "/api/v1/session/queue", map[string]any{"video": vid("q1", "c9"), "play_next": true}, http.StatusOK, true, "v0,q1,r1,r2,r3,r4"},
		{"duplicate", http.MethodPost, "/api/v1/session/queue", map[string]any{"video": vid("r2", "c2")}, http.StatusOK, false, "v0,q1,r1,r2,r3,r4"},
		{"append", http.MethodPost, "/api/v1/session/queue", map[string]any{"video": vid("q2", "c8")}, http.StatusOK, true, "v0,q1,r1,r2,r3,r4,q2"},
		{"remove", http.MethodDelete, "/api/v1/session/queue/r2", nil, http.StatusOK, true, "v0,q1,r1,r3,r4,q2"},
		{"remove unknown", http.MethodDelete, "/api/v1/session/queue/zz", nil, http.StatusOK, false, "v0,q1,r1,r3,r4,q2"},
		{"reorder", http.MethodPost, "/api/v1/session/queue/reorder", map[string]int{"from": 5, "to": 1}, http.StatusOK, true, "v0,q2,q1,r1,r3,r4"},
		{"reorder out of range", http.MethodPost, "/api/v1/session/queue/reorder", map[string]int{"from": 1, "to": 40}, http.StatusOK, false, "v0,q2,q1,r1,r3,r4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := a.do(t, tt.method, tt.path, tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
			}
			var mr mutationResponse
			data(t, resp, &mr)
			if mr.Changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", mr.Changed, tt.wantChanged)
			}
			if got := strings.Join(ids(mr.Session.Queue), ","); got != tt.wantQueue {
				t.Errorf("queue = %s, want %s", got, tt.wantQueue)
			}
		})
	}

	rec, resp := a.do(t, http.MethodPost, "/api/v1/session/queue", map[string]any{"video": map[string]string{"title": "no id"}})
	if rec.Code != http.StatusBadRequest || resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("add without id = %d %+v", rec.Code, resp.Error)
	}
	rec, _ = a.do(t, http.MethodPost, "/api/v1/session/queue/reorder", map[string]int{"from": -1, "to": 0})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative reorder = %d, want 400", rec.Code)
	}
}

func TestSettingsAndPosition(t *testing.T) {
	a := newTestAPI(t, nil, nil, nil)

	rec, _ := a.do(t, http.MethodPut, "/api/v1/session/position", map[string]int{"position_ms": 10})
	if rec.Code != http.StatusNotFound {
		t.Errorf("position without session = %d, want 404", rec.Code)
	}
	rec, _ = a.do(t, http.MethodPut, "/api/v1/session/settings", map[string]bool{"shuffle": true})
	if rec.Code != http.StatusNotFound {
		t.Errorf("settings without session = %d, want 404", rec.Code)
	}

	a.create(t)

	rec, _ = a.do(t, http.MethodPut, "/api/v1/session/settings", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty settings = %d, want 400", rec.Code)
	}
	rec, _ = a.do(t, http.MethodPut, "/api/v1/session/settings", map[string]string{"repeat": "sometimes"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad repeat = %d, want 400", rec.Code)
	}

	rec, resp := a.do(t, http.MethodPut, "/api/v1/session/settings", map[string]any{
		"autoplay": false,
		"shuffle":  true,
		"repeat":   "all",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("settings = %d (%s)", rec.Code, rec.Body.String())
	}
	var sr sessionResponse
	data(t, resp, &sr)
	if sr.Session.Autoplay || !sr.Session.Shuffle || sr.Session.Repeat != models.RepeatAll {
		t.Errorf("settings not applied: %+v", sr.Session)
	}

	rec, _ = a.do(t, http.MethodPut, "/api/v1/session/position", map[string]int{"position_ms": 4200})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("position = %d", rec.Code)
	}
	if got := a.store.Session().PositionMS; got != 4200 {
		t.Errorf("PositionMS = %d, want 4200", got)
	}
	a.do(t, http.MethodPut, "/api/v1/session/position", map[string]int{"position_ms": -5})
	if got := a.store.Session().PositionMS; got != 0 {
		t.Errorf("negative position stored as %d, want 0", got)
	}
}

func TestNext_ExhaustedThenRefill(t *testing.T) {
	a := newTestAPI(t, nil, nil, nil)
	a.create(t)

	for i := 0; i < 4; i++ {
		a.do(t, http.MethodPost, "/api/v1/session/next", nil)
	}
	rec, resp := a.do(t, http.MethodPost, "/api/v1/session/next", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("next status = %d", rec.Code)
	}
	var nr navigationResponse
	data(t, resp, &nr)
	if nr.Video != nil || nr.State != session.StateExhausted {
		t.Fatalf("past end: video=%+v state=%s", nr.Video, nr.State)
	}

	_, resp = a.do(t, http.MethodPost, "/api/v1/session/refill", nil)
	var refill struct {
		Added int                `json:"added"`
		State session.QueueState `json:"state"`
	}
	data(t, resp, &refill)
	if refill.Added != 2 || refill.State != session.StateHasMore {
		t.Errorf("refill = %+v, want 2 added and has_more", refill)
	}

	_, resp = a.do(t, http.MethodPost, "/api/v1/session/next", nil)
	data(t, resp, &nr)
	if nr.Video == nil || nr.Video.ID != "r5" {
		t.Errorf("next after refill = %+v, want r5", nr.Video)
	}
}
