// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package session

import (
	"fmt"

	"github.com/tomtom215/upnext/internal/models"
)

// Config controls queue construction and default playback settings.
type Config struct {
	// RecommendCount is the number of recommendations after the start video
	// for algorithmic contexts.
	// Default: 20.
	RecommendCount int `koanf:"recommend_count" json:"recommend_count"`

	// ChannelQueueLimit caps the videos fetched for a CHANNEL session.
	// Default: 50.
	ChannelQueueLimit int `koanf:"channel_queue_limit" json:"channel_queue_limit"`

	// DefaultAutoplay is the autoplay setting of new sessions.
	// Default: true.
	DefaultAutoplay bool `koanf:"default_autoplay" json:"default_autoplay"`

	// DefaultRepeat is the repeat mode of new sessions.
	// Default: off.
	DefaultRepeat models.RepeatMode `koanf:"default_repeat" json:"default_repeat"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		RecommendCount:    20,
		ChannelQueueLimit: 50,
		DefaultAutoplay:   true,
		DefaultRepeat:     models.RepeatOff,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.RecommendCount < 1 {
		return fmt.Errorf("recommend_count must be positive, got %d", c.RecommendCount)
	}
	if c.ChannelQueueLimit < 1 {
		return fmt.Errorf("channel_queue_limit must be positive, got %d", c.ChannelQueueLimit)
	}
	if !c.DefaultRepeat.Valid() {
		return fmt.Errorf("default_repeat must be off, all or one, got %q", c.DefaultRepeat)
	}
	return nil
}
