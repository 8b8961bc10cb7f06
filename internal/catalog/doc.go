// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

/*
Package catalog provides the video catalog behind recommend.Catalog.

DuckDB stores three tables:

  - videos: playable items with visibility, approval_status and hidden flags
  - playlist_items: playlist membership with a stored position
  - users: authors, with a banned flag

Only public, approved, non-hidden videos are eligible for recommendations
and channel queues. Playlists return their stored contents in position
order, and GetVideo resolves any id regardless of eligibility.

A catalog can be populated from a JSON seed file (see Seed) at startup.

BreakerCatalog wraps any Catalog with a sony/gobreaker circuit breaker.
It opens once at least 60% of ten or more calls fail, rejects calls with
gobreaker.ErrOpenState while open, and reports state through the
upnext_circuit_breaker_* metrics.

Example:

	db, err := catalog.Open(&catalog.Config{Path: "/data/catalog.duckdb"}, logger)
	if err != nil {
	    return err
	}
	defer db.Close()

	cat := catalog.NewBreakerCatalog(db, nil, logger)
	videos, err := cat.QueryEligibleVideos(ctx, nil, 200)
*/
package catalog
