// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// Seed is the on-disk format accepted by LoadSeedFile.
//
//	{
//	  "videos": [{"id": "v1", "title": "...", "channel_id": "c1", "view_count": 10}],
//	  "playlists": {"p1": ["v1", "v2"]},
//	  "banned_users": ["u9"]
//	}
type Seed struct {
	Videos      []VideoRecord       `json:"videos"`
	Playlists   map[string][]string `json:"playlists"`
	BannedUsers []string            `json:"banned_users"`
}

// SeedStats reports what a seed load wrote.
type SeedStats struct {
	Videos    int
	Playlists int
	Banned    int
}

// LoadSeedFile reads a Seed from path and applies it.
func (db *DuckDB) LoadSeedFile(ctx context.Context, path string) (*SeedStats, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return db.ApplySeed(ctx, &seed)
}

// ApplySeed upserts the seed's videos, playlists and banned users.
func (db *DuckDB) ApplySeed(ctx context.Context, seed *Seed) (*SeedStats, error) {
	stats := &SeedStats{}
	for i := range seed.Videos {
		if err := db.UpsertVideo(ctx, &seed.Videos[i]); err != nil {
			return stats, err
		}
		stats.Videos++
	}
	for id, items := range seed.Playlists {
		if err := db.SetPlaylist(ctx, id, items); err != nil {
			return stats, err
		}
		stats.Playlists++
	}
	for _, user := range seed.BannedUsers {
		if err := db.SetUserBanned(ctx, user, true); err != nil {
			return stats, err
		}
		stats.Banned++
	}

	db.logger.Info().
		Int("videos", stats.Videos).
		Int("playlists", stats.Playlists).
		Int("banned_users", stats.Banned).
		Msg("catalog seed applied")
	return stats, nil
}
