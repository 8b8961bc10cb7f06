// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package models

// UnknownChannelID is the synthetic channel bucket for videos without a channel.
const UnknownChannelID = "unknown"

// VideoItem is a single playable recommendation unit.
// Identity is by ID; every other field is display or selection metadata.
type VideoItem struct {
	// ID is the unique video identifier.
	ID string `json:"id" validate:"required,videoid"`

	// Title is the display title.
	Title string `json:"title"`

	// ThumbnailURL references the poster image.
	ThumbnailURL string `json:"thumbnail_url,omitempty"`

	// MediaURL references the playable media.
	MediaURL string `json:"media_url,omitempty"`

	// DurationSeconds is the video length, nil when unknown.
	DurationSeconds *int `json:"duration_seconds,omitempty"`

	// ViewCount is the number of views, nil when unknown.
	ViewCount *int64 `json:"view_count,omitempty"`

	// ChannelID identifies the publishing channel (the diversity unit).
	ChannelID string `json:"channel_id,omitempty"`

	// ChannelName is the channel display name.
	ChannelName string `json:"channel_name,omitempty"`

	// Category is an optional classification tag.
	Category string `json:"category,omitempty"`

	// OwnerID is the author's user id. Empty means the channel id is the owner.
	OwnerID string `json:"owner_id,omitempty"`
}

// ChannelKey returns the channel id used for diversity grouping.
func (v *VideoItem) ChannelKey() string {
	if v.ChannelID == "" {
		return UnknownChannelID
	}
	return v.ChannelID
}

// Owner returns the user id that authored the video.
func (v *VideoItem) Owner() string {
	if v.OwnerID != "" {
		return v.OwnerID
	}
	return v.ChannelID
}

// Views returns the view count or zero when unknown.
func (v *VideoItem) Views() int64 {
	if v.ViewCount == nil {
		return 0
	}
	return *v.ViewCount
}

// Clone returns a deep copy of the item.
func (v *VideoItem) Clone() VideoItem {
	c := *v
	if v.DurationSeconds != nil {
		d := *v.DurationSeconds
		c.DurationSeconds = &d
	}
	if v.ViewCount != nil {
		n := *v.ViewCount
		c.ViewCount = &n
	}
	return c
}

// DedupeVideos returns items with duplicate ids removed, keeping first occurrences.
func DedupeVideos(items []VideoItem) []VideoItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]VideoItem, 0, len(items))
	for i := range items {
		if _, dup := seen[items[i].ID]; dup {
			continue
		}
		seen[items[i].ID] = struct{}{}
		out = append(out, items[i])
	}
	return out
}

// IndexOfVideo returns the position of id in items, or -1.
func IndexOfVideo(items []VideoItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
