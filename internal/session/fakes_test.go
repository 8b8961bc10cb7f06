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
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/upnext/internal/models"
	"github.com/tomtom215/upnext/internal/recommend"
	"github.com/tomtom215/upnext/internal/storage"
)

var errCatalogDown = errors.New("catalog unavailable")

func video(id, channel string) models.VideoItem {
	return models.VideoItem{ID: id, Title: "Video " + id, ChannelID: channel}
}

func videos(ids ...string) []models.VideoItem {
	out := make([]models.VideoItem, 0, len(ids))
	for i, id := range ids {
		out = append(out, video(id, fmt.Sprintf("c%d", i)))
	}
	return out
}

func queueIDs(items []models.VideoItem) []string {
	out := make([]string, 0, len(items))
	for i := range items {
		out = append(out, items[i].ID)
	}
	return out
}

// fakeCatalog serves fixed playlist, channel and video lookups.
type fakeCatalog struct {
	mu sync.Mutex

	byID      map[string]models.VideoItem
	playlists map[string][]models.VideoItem
	channels  map[string][]models.VideoItem
	err       error

	lastChannel string
	lastExclude string
}

func newFakeCatalog(items ...models.VideoItem) *fakeCatalog {
	c := &fakeCatalog{
		byID:      make(map[string]models.VideoItem),
		playlists: make(map[string][]models.VideoItem),
		channels:  make(map[string][]models.VideoItem),
	}
	for i := range items {
		c.byID[items[i].ID] = items[i]
	}
	return c
}

func (c *fakeCatalog) QueryEligibleVideos(ctx context.Context, exclude map[string]struct{}, limit int) ([]models.VideoItem, error) {
	return nil, nil
}

func (c *fakeCatalog) QueryPlaylistVideos(ctx context.Context, playlistID string) ([]models.VideoItem, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.playlists[playlistID], nil
}

func (c *fakeCatalog) QueryChannelVideos(ctx context.Context, channelID, excludeID string, limit int) ([]models.VideoItem, error) {
	c.mu.Lock()
	c.lastChannel = channelID
	c.lastExclude = excludeID
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	out := make([]models.VideoItem, 0)
	for _, v := range c.channels[channelID] {
		if v.ID != excludeID && len(out) < limit {
			out = append(out, v)
		}
	}
	return out, nil
}

func (c *fakeCatalog) QueryBannedUserIDs(ctx context.Context) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (c *fakeCatalog) GetVideo(ctx context.Context, id string) (*models.VideoItem, error) {
	v, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("video %s not found", id)
	}
	return &v, nil
}

// fakeRecommender returns a fixed list. When gate is set, Recommend blocks
// until it is closed.
type fakeRecommender struct {
	mu sync.Mutex

	videos  []models.VideoItem
	gate    chan struct{}
	started chan struct{}
	reqs    []recommend.Request
}

func (r *fakeRecommender) Recommend(ctx context.Context, req recommend.Request) *recommend.Response {
	r.mu.Lock()
	r.reqs = append(r.reqs, req)
	gate, started := r.gate, r.started
	out := append([]models.VideoItem(nil), r.videos...)
	r.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return &recommend.Response{Videos: out, Outcome: recommend.OutcomeOK}
}

func (r *fakeRecommender) requests() []recommend.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recommend.Request(nil), r.reqs...)
}

// recordingNotifier captures emitted events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(ctx context.Context, ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) types() []EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]EventType, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Type)
	}
	return out
}

type testEnv struct {
	store    *Store
	kv       *storage.MemoryKV
	catalog  *fakeCatalog
	rec      *fakeRecommender
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		kv:       storage.NewMemoryKV(),
		catalog:  newFakeCatalog(),
		rec:      &fakeRecommender{},
		notifier: &recordingNotifier{},
	}
	store, err := NewStore(Dependencies{
		KV:          env.kv,
		Catalog:     env.catalog,
		Recommender: env.rec,
		Notifier:    env.notifier,
		Rand:        rand.New(rand.NewSource(7)),
	}, DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	ids := 0
	store.newID = func() string {
		ids++
		return fmt.Sprintf("session-%d", ids)
	}
	store.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	env.store = store
	return env
}

// seed installs a session directly, bypassing Create.
func (e *testEnv) seed(queue []models.VideoItem, current int, history ...string) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	e.store.session = &models.PlaybackSession{
		Version:      models.SessionSchemaVersion,
		SessionID:    "seeded",
		StartVideoID: queue[0].ID,
		ContextType:  models.ContextHomeFeed,
		Queue:        queue,
		History:      history,
		CurrentIndex: current,
		Autoplay:     true,
		Repeat:       models.RepeatOff,
	}
	e.store.exhausted = false
}
