// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package recommend

import (
	"math/rand"
	"sync"

	"github.com/tomtom215/upnext/internal/models"
)

// DiversityBuilder orders a candidate pool so that selections spread across
// channels. Build has no side effects apart from advancing the random source.
//
// The algorithm:
//  1. Group candidates by channel, keeping incoming (view count) order.
//  2. Split channels into those publishing in the preferred category and the
//     rest, shuffle each part (Fisher-Yates), preferred part first.
//  3. Round-robin: take each channel's first video, then its second, and so
//     on until the per-channel quota or the target is reached.
//  4. Reorder so no two adjacent videos share a channel when an alternative
//     remains.
type DiversityBuilder struct {
	maxPerChannel int

	// rng is shared across calls; guarded by mu.
	rng *rand.Rand
	mu  sync.Mutex
}

// NewDiversityBuilder creates a builder with the given per-channel quota and random source.
func NewDiversityBuilder(maxPerChannel int, rng *rand.Rand) *DiversityBuilder {
	if maxPerChannel < 1 {
		maxPerChannel = DefaultMaxPerChannel
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1)) //nolint:gosec // math/rand is fine for recommendation shuffling
	}
	return &DiversityBuilder{maxPerChannel: maxPerChannel, rng: rng}
}

// Build returns at most target videos from candidates.
func (b *DiversityBuilder) Build(candidates []models.VideoItem, preferredCategory string, target int) []models.VideoItem {
	if len(candidates) == 0 || target <= 0 {
		return []models.VideoItem{}
	}

	groups, order := groupByChannel(candidates)
	channels := b.prioritize(groups, order, preferredCategory)
	selected := b.roundRobin(groups, channels, target)

	return spreadChannels(selected)
}

// groupByChannel buckets candidates by channel key, returning channels in first-seen order.
func groupByChannel(candidates []models.VideoItem) (map[string][]models.VideoItem, []string) {
	groups := make(map[string][]models.VideoItem)
	order := make([]string, 0)
	for i := range candidates {
		key := candidates[i].ChannelKey()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], candidates[i])
	}
	return groups, order
}

func (b *DiversityBuilder) prioritize(groups map[string][]models.VideoItem, order []string, category string) []string {
	preferred := make([]string, 0, len(order))
	other := make([]string, 0, len(order))
	for _, ch := range order {
		if category != "" && hasCategory(groups[ch], category) {
			preferred = append(preferred, ch)
		} else {
			other = append(other, ch)
		}
	}

	b.mu.Lock()
	b.shuffle(preferred)
	b.shuffle(other)
	b.mu.Unlock()

	return append(preferred, other...)
}

// shuffle is an in-place Fisher-Yates shuffle. Caller holds mu.
func (b *DiversityBuilder) shuffle(s []string) {
	for i := len(s) - 1; i > 0; i-- {
		j := b.rng.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

func (b *DiversityBuilder) roundRobin(groups map[string][]models.VideoItem, channels []string, target int) []models.VideoItem {
	selected := make([]models.VideoItem, 0, target)
	for round := 0; round < b.maxPerChannel && len(selected) < target; round++ {
		for _, ch := range channels {
			if len(selected) >= target {
				break
			}
			if round < len(groups[ch]) {
				selected = append(selected, groups[ch][round])
			}
		}
	}
	return selected
}

// spreadChannels moves videos so adjacent entries differ in channel where possible.
// When only one channel remains the rest are appended as they are.
func spreadChannels(selected []models.VideoItem) []models.VideoItem {
	if len(selected) < 3 {
		return selected
	}

	remaining := append([]models.VideoItem(nil), selected[1:]...)
	result := make([]models.VideoItem, 0, len(selected))
	result = append(result, selected[0])

	for len(remaining) > 0 {
		last := result[len(result)-1].ChannelKey()
		pick := 0
		for i := range remaining {
			if remaining[i].ChannelKey() != last {
				pick = i
				break
			}
		}
		result = append(result, remaining[pick])
		remaining = append(remaining[:pick], remaining[pick+1:]...)
	}
	return result
}

func hasCategory(videos []models.VideoItem, category string) bool {
	for i := range videos {
		if videos[i].Category == category {
			return true
		}
	}
	return false
}

// UniqueChannels counts the distinct channels in videos.
func UniqueChannels(videos []models.VideoItem) int {
	seen := make(map[string]struct{}, len(videos))
	for i := range videos {
		seen[videos[i].ChannelKey()] = struct{}{}
	}
	return len(seen)
}
