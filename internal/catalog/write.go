// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/upnext/internal/models"
)

// VideoRecord is a catalog row: the playable item plus the moderation
// fields that decide eligibility.
type VideoRecord struct {
	models.VideoItem

	// Visibility is "public" for eligible videos. Empty means public.
	Visibility string `json:"visibility,omitempty"`

	// ApprovalStatus is "approved" for eligible videos. Empty means approved.
	ApprovalStatus string `json:"approval_status,omitempty"`

	// Hidden removes the video from recommendations.
	Hidden bool `json:"hidden,omitempty"`

	// CreatedAt orders channel queues. Zero means now.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// UpsertVideo inserts or replaces a video.
func (db *DuckDB) UpsertVideo(ctx context.Context, rec *VideoRecord) error {
	if rec.ID == "" {
		return errors.New("video id is required")
	}
	visibility := rec.Visibility
	if visibility == "" {
		visibility = VisibilityPublic
	}
	approval := rec.ApprovalStatus
	if approval == "" {
		approval = ApprovalApproved
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	var duration, views any
	if rec.DurationSeconds != nil {
		duration = *rec.DurationSeconds
	}
	if rec.ViewCount != nil {
		views = *rec.ViewCount
	}

	ctx, cancel := context.WithTimeout(ctx, db.timeout)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO videos (
			id, title, thumbnail_url, media_url, duration_seconds, view_count,
			channel_id, channel_name, category, owner_id,
			visibility, approval_status, hidden, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Title, nullString(rec.ThumbnailURL), nullString(rec.MediaURL), duration, views,
		nullString(rec.ChannelID), nullString(rec.ChannelName), nullString(rec.Category), nullString(rec.OwnerID),
		visibility, approval, rec.Hidden, created,
	)
	if err != nil {
		return fmt.Errorf("upsert video %s: %w", rec.ID, err)
	}
	return nil
}

// SetPlaylist replaces a playlist's contents with videoIDs in order.
func (db *DuckDB) SetPlaylist(ctx context.Context, playlistID string, videoIDs []string) error {
	ctx, cancel := context.WithTimeout(ctx, db.timeout)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin playlist update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_items WHERE playlist_id = ?`, playlistID); err != nil {
		return fmt.Errorf("clear playlist %s: %w", playlistID, err)
	}
	for pos, id := range videoIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO playlist_items (playlist_id, video_id, position) VALUES (?, ?, ?)`,
			playlistID, id, pos,
		); err != nil {
			return fmt.Errorf("add %s to playlist %s: %w", id, playlistID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit playlist %s: %w", playlistID, err)
	}
	return nil
}

// SetUserBanned marks a user as banned or clears the flag.
func (db *DuckDB) SetUserBanned(ctx context.Context, userID string, banned bool) error {
	ctx, cancel := context.WithTimeout(ctx, db.timeout)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO users (id, banned) VALUES (?, ?)`, userID, banned,
	); err != nil {
		return fmt.Errorf("set banned for %s: %w", userID, err)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
