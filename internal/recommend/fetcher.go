// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package recommend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/upnext/internal/metrics"
	"github.com/tomtom215/upnext/internal/models"
)

// Fetcher pulls the candidate pool for a recommendation build.
type Fetcher struct {
	catalog   Catalog
	seen      *SeenTracker
	poolLimit int
	logger    zerolog.Logger
}

// FetchResult is the filtered candidate pool.
type FetchResult struct {
	Candidates         []models.VideoItem
	ExhaustionFallback bool
}

// NewFetcher creates a fetcher over catalog that excludes ids tracked by seen.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewFetcher(catalog Catalog, seen *SeenTracker, poolLimit int, logger zerolog.Logger) *Fetcher {
	if poolLimit < 1 {
		poolLimit = DefaultPoolLimit
	}
	return &Fetcher{catalog: catalog, seen: seen, poolLimit: poolLimit, logger: logger}
}

// Fetch queries eligible videos excluding the current video and everything
// already seen. If that yields nothing while the seen set is non-empty, the
// seen set is reset and the query is issued once more excluding only the
// current video. Videos by banned authors are dropped afterwards.
func (f *Fetcher) Fetch(ctx context.Context, currentVideoID string) (*FetchResult, error) {
	exclude := f.seen.Set()
	if currentVideoID != "" {
		exclude[currentVideoID] = struct{}{}
	}

	candidates, err := f.catalog.QueryEligibleVideos(ctx, exclude, f.poolLimit)
	if err != nil {
		return nil, fmt.Errorf("query eligible videos: %w", err)
	}

	result := &FetchResult{}
	if len(candidates) == 0 && f.seen.Len() > 0 {
		f.logger.Info().
			Int("seen", f.seen.Len()).
			Msg("candidate pool exhausted, resetting seen ids")
		f.seen.Reset(ctx)
		metrics.RecordExhaustionFallback()
		result.ExhaustionFallback = true

		exclude = map[string]struct{}{}
		if currentVideoID != "" {
			exclude[currentVideoID] = struct{}{}
		}
		candidates, err = f.catalog.QueryEligibleVideos(ctx, exclude, f.poolLimit)
		if err != nil {
			return nil, fmt.Errorf("query eligible videos after reset: %w", err)
		}
	}

	result.Candidates = f.dropBanned(ctx, models.DedupeVideos(withoutID(candidates, currentVideoID)))
	return result, nil
}

// dropBanned removes videos whose owner is banned. A failed lookup skips the filter.
func (f *Fetcher) dropBanned(ctx context.Context, candidates []models.VideoItem) []models.VideoItem {
	if len(candidates) == 0 {
		return candidates
	}

	banned, err := f.catalog.QueryBannedUserIDs(ctx)
	if err != nil {
		f.logger.Warn().Err(err).Msg("banned user lookup failed, skipping author filter")
		return candidates
	}
	if len(banned) == 0 {
		return candidates
	}

	kept := candidates[:0]
	for i := range candidates {
		if _, ok := banned[candidates[i].Owner()]; ok {
			continue
		}
		kept = append(kept, candidates[i])
	}
	metrics.RecordBannedFiltered(len(candidates) - len(kept))
	return kept
}

func withoutID(videos []models.VideoItem, id string) []models.VideoItem {
	if id == "" {
		return videos
	}
	out := make([]models.VideoItem, 0, len(videos))
	for i := range videos {
		if videos[i].ID != id {
			out = append(out, videos[i])
		}
	}
	return out
}
