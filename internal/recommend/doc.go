// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

// Package recommend builds channel-diverse "up next" recommendation lists.
//
// # Architecture
//
// The pipeline has three parts, wired together by Recommender:
//
//   - SeenTracker: the most recent 100 ids surfaced this browsing session,
//     persisted under a TTL'd storage key
//   - Fetcher: pulls up to 200 eligible videos from the Catalog, excluding
//     the current and seen ids, with a single reset-and-retry when the pool
//     is exhausted, then drops videos by banned authors
//   - DiversityBuilder: a pure channel round-robin with a per-channel quota
//     of two and no adjacent same-channel entries when avoidable
//
// # Determinism
//
// The only random step is the channel shuffle inside DiversityBuilder. Its
// *rand.Rand is injected, so tests seed it and production seeds from the clock.
//
// # Quality target
//
// A build with fewer than MinUniqueChannels distinct channels is counted in
// upnext_recommend_below_min_unique_channels_total and logged at debug. It is
// never retried.
//
// # Usage
//
//	rec, err := recommend.NewRecommender(catalog, kv, recommend.DefaultConfig(), nil, logger)
//	rec.LoadSeen(ctx)
//	resp := rec.Recommend(ctx, recommend.Request{
//	    CurrentVideoID: "v1",
//	    Category:       "music",
//	})
//	queue := append([]models.VideoItem{start}, resp.Videos...)
//
// # Thread Safety
//
// Recommender, SeenTracker and DiversityBuilder are safe for concurrent use.
package recommend
