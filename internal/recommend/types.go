// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package recommend

import (
	"context"

	"github.com/tomtom215/upnext/internal/models"
)

// Catalog is the external video catalog the pipeline reads from.
// It is typically implemented by the catalog package.
type Catalog interface {
	// QueryEligibleVideos returns public, approved, non-hidden videos not in
	// exclude, ordered by view count descending, at most limit.
	QueryEligibleVideos(ctx context.Context, exclude map[string]struct{}, limit int) ([]models.VideoItem, error)

	// QueryPlaylistVideos returns a playlist's videos in stored position order.
	QueryPlaylistVideos(ctx context.Context, playlistID string) ([]models.VideoItem, error)

	// QueryChannelVideos returns a channel's videos newest first, skipping excludeID.
	QueryChannelVideos(ctx context.Context, channelID, excludeID string, limit int) ([]models.VideoItem, error)

	// QueryBannedUserIDs returns the ids of banned authors.
	QueryBannedUserIDs(ctx context.Context) (map[string]struct{}, error)

	// GetVideo resolves a single video by id.
	GetVideo(ctx context.Context, id string) (*models.VideoItem, error)
}

// Request describes a recommendation request.
type Request struct {
	// CurrentVideoID is always excluded from the result.
	CurrentVideoID string

	// Category prioritizes channels that publish in it. Optional.
	Category string

	// ChannelID of the current video. Informational only.
	ChannelID string

	// Count is the target size. Zero uses Config.TargetCount.
	Count int
}

// Outcome labels how a build went.
type Outcome string

const (
	// OutcomeOK means at least one recommendation was produced.
	OutcomeOK Outcome = "ok"
	// OutcomeEmpty means the catalog had nothing eligible.
	OutcomeEmpty Outcome = "empty"
	// OutcomeCatalogError means the catalog failed and the result was degraded to empty.
	OutcomeCatalogError Outcome = "catalog_error"
)

// Response is the result of a recommendation build.
type Response struct {
	// Videos is the diversity-ordered list.
	Videos []models.VideoItem

	// Outcome classifies the build.
	Outcome Outcome

	// Candidates is the pool size after banned-author filtering.
	Candidates int

	// UniqueChannels counts distinct channels in Videos.
	UniqueChannels int

	// ExhaustionFallback is true when the seen set had to be reset.
	ExhaustionFallback bool
}
