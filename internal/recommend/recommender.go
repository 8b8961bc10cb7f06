// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package recommend

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/upnext/internal/metrics"
	"github.com/tomtom215/upnext/internal/models"
	"github.com/tomtom215/upnext/internal/storage"
)

// Recommender runs fetch, diversity build and seen recording as one pipeline.
// It is safe for concurrent use.
type Recommender struct {
	config  *Config
	logger  zerolog.Logger
	seen    *SeenTracker
	fetcher *Fetcher
	builder *DiversityBuilder
}

// NewRecommender creates a pipeline over catalog. kv persists the seen-id set
// and may be nil. rng drives the diversity shuffle; nil derives one from
// cfg.Seed (or the clock when the seed is zero).
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRecommender(catalog Catalog, kv storage.KV, cfg *Config, rng *rand.Rand, logger zerolog.Logger) (*Recommender, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed)) //nolint:gosec // math/rand is fine for recommendation shuffling
	}

	logger = logger.With().Str("component", "recommend").Logger()
	seen := NewSeenTracker(kv, cfg.SeenCapacity, cfg.SeenTTL, logger)

	return &Recommender{
		config:  cfg,
		logger:  logger,
		seen:    seen,
		fetcher: NewFetcher(catalog, seen, cfg.PoolLimit, logger),
		builder: NewDiversityBuilder(cfg.MaxPerChannel, rng),
	}, nil
}

// Seen exposes the seen-id tracker.
func (r *Recommender) Seen() *SeenTracker {
	return r.seen
}

// LoadSeen rehydrates the seen-id set from storage.
func (r *Recommender) LoadSeen(ctx context.Context) {
	r.seen.Load(ctx)
}

// Recommend builds a diversity-ordered list for req. Catalog failures are
// logged and degrade to an empty list; Recommend never returns nil.
func (r *Recommender) Recommend(ctx context.Context, req Request) *Response {
	target := req.Count
	if target <= 0 {
		target = r.config.TargetCount
	}

	if r.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.QueryTimeout)
		defer cancel()
	}

	logger := r.logger.With().
		Str("current_video", req.CurrentVideoID).
		Str("category", req.Category).
		Int("target", target).
		Logger()

	fetched, err := r.fetcher.Fetch(ctx, req.CurrentVideoID)
	if err != nil {
		logger.Warn().Err(err).Msg("catalog fetch failed, returning no recommendations")
		metrics.RecordRecommendation(string(OutcomeCatalogError), 0, 0)
		return &Response{Videos: []models.VideoItem{}, Outcome: OutcomeCatalogError}
	}

	videos := r.builder.Build(fetched.Candidates, req.Category, target)

	ids := make([]string, len(videos))
	for i := range videos {
		ids[i] = videos[i].ID
	}
	// Persistence of the seen set must not be cut short by the query deadline.
	r.seen.Record(context.WithoutCancel(ctx), ids)

	resp := &Response{
		Videos:             videos,
		Outcome:            OutcomeOK,
		Candidates:         len(fetched.Candidates),
		UniqueChannels:     UniqueChannels(videos),
		ExhaustionFallback: fetched.ExhaustionFallback,
	}
	if len(videos) == 0 {
		resp.Outcome = OutcomeEmpty
	}

	metrics.RecordRecommendation(string(resp.Outcome), len(videos), resp.UniqueChannels)
	if len(videos) > 0 && resp.UniqueChannels < r.config.MinUniqueChannels {
		metrics.RecordBelowMinUniqueChannels()
		logger.Debug().
			Int("unique_channels", resp.UniqueChannels).
			Int("min_unique_channels", r.config.MinUniqueChannels).
			Int("candidates", resp.Candidates).
			Msg("recommendations below unique channel target")
	}

	logger.Debug().
		Int("candidates", resp.Candidates).
		Int("returned", len(videos)).
		Bool("exhaustion_fallback", resp.ExhaustionFallback).
		Msg("recommendation complete")

	return resp
}
