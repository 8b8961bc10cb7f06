// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tomtom215/upnext/internal/models"
)

var errCatalogDown = errors.New("catalog unavailable")

// mockCatalog implements Catalog over an in-memory slice.
type mockCatalog struct {
	mu sync.Mutex

	videos      []models.VideoItem
	banned      map[string]struct{}
	eligibleErr error
	bannedErr   error

	eligibleCalls int
	lastExclude   map[string]struct{}
}

func (m *mockCatalog) QueryEligibleVideos(ctx context.Context, exclude map[string]struct{}, limit int) ([]models.VideoItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.eligibleCalls++
	m.lastExclude = exclude
	if m.eligibleErr != nil {
		return nil, m.eligibleErr
	}

	out := make([]models.VideoItem, 0, len(m.videos))
	for i := range m.videos {
		if _, skip := exclude[m.videos[i].ID]; !skip {
			out = append(out, m.videos[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Views() > out[j].Views() })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockCatalog) QueryPlaylistVideos(ctx context.Context, playlistID string) ([]models.VideoItem, error) {
	return nil, nil
}

func (m *mockCatalog) QueryChannelVideos(ctx context.Context, channelID, excludeID string, limit int) ([]models.VideoItem, error) {
	return nil, nil
}

func (m *mockCatalog) QueryBannedUserIDs(ctx context.Context) (map[string]struct{}, error) {
	if m.bannedErr != nil {
		return nil, m.bannedErr
	}
	return m.banned, nil
}

func (m *mockCatalog) GetVideo(ctx context.Context, id string) (*models.VideoItem, error) {
	for i := range m.videos {
		if m.videos[i].ID == id {
			v := m.videos[i]
			return &v, nil
		}
	}
	return nil, fmt.Errorf("video %s not found", id)
}

// video builds a test video with a view count.
func video(id, channel, category string, views int64) models.VideoItem {
	return models.VideoItem{
		ID:        id,
		Title:     "Video " + id,
		ChannelID: channel,
		Category:  category,
		ViewCount: &views,
	}
}

// pool builds n videos per channel with descending views.
func pool(perChannel map[string]int) []models.VideoItem {
	channels := make([]string, 0, len(perChannel))
	for ch := range perChannel {
		channels = append(channels, ch)
	}
	sort.Strings(channels)

	var out []models.VideoItem
	for _, ch := range channels {
		for i := 0; i < perChannel[ch]; i++ {
			out = append(out, video(fmt.Sprintf("%s-%d", ch, i), ch, "", int64(1000-i)))
		}
	}
	return out
}
