// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package recommend

import (
	"fmt"
	"time"
)

// Pipeline defaults.
const (
	DefaultTargetCount       = 20
	DefaultPoolLimit         = 200
	DefaultMaxPerChannel     = 2
	DefaultMinUniqueChannels = 8
	DefaultSeenCapacity      = 100
	DefaultSeenTTL           = 12 * time.Hour
)

// Config controls the recommendation pipeline.
type Config struct {
	// TargetCount is the number of recommendations requested when the caller
	// does not specify one.
	// Default: 20.
	TargetCount int `koanf:"target_count" json:"target_count"`

	// PoolLimit caps the candidate pool fetched from the catalog.
	// Default: 200.
	PoolLimit int `koanf:"pool_limit" json:"pool_limit"`

	// MaxPerChannel is the round-robin quota per channel.
	// Default: 2.
	MaxPerChannel int `koanf:"max_per_channel" json:"max_per_channel"`

	// MinUniqueChannels is a quality target. Builds below it are counted and
	// logged, never retried.
	// Default: 8.
	MinUniqueChannels int `koanf:"min_unique_channels" json:"min_unique_channels"`

	// SeenCapacity bounds the seen-id tracker.
	// Default: 100.
	SeenCapacity int `koanf:"seen_capacity" json:"seen_capacity"`

	// SeenTTL is how long the seen-id set survives without being rewritten.
	// Default: 12h.
	SeenTTL time.Duration `koanf:"seen_ttl" json:"seen_ttl"`

	// QueryTimeout bounds a single fetch (including the exhaustion retry).
	// Zero leaves the deadline to the caller.
	QueryTimeout time.Duration `koanf:"query_timeout" json:"query_timeout"`

	// Seed fixes the diversity shuffle. Zero seeds from the clock.
	Seed int64 `koanf:"seed" json:"seed"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		TargetCount:       DefaultTargetCount,
		PoolLimit:         DefaultPoolLimit,
		MaxPerChannel:     DefaultMaxPerChannel,
		MinUniqueChannels: DefaultMinUniqueChannels,
		SeenCapacity:      DefaultSeenCapacity,
		SeenTTL:           DefaultSeenTTL,
		QueryTimeout:      10 * time.Second,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.TargetCount < 1 {
		return fmt.Errorf("target_count must be positive, got %d", c.TargetCount)
	}
	if c.PoolLimit < c.TargetCount {
		return fmt.Errorf("pool_limit must be >= target_count, got %d < %d", c.PoolLimit, c.TargetCount)
	}
	if c.MaxPerChannel < 1 {
		return fmt.Errorf("max_per_channel must be positive, got %d", c.MaxPerChannel)
	}
	if c.MinUniqueChannels < 0 {
		return fmt.Errorf("min_unique_channels must be non-negative, got %d", c.MinUniqueChannels)
	}
	if c.SeenCapacity < 1 {
		return fmt.Errorf("seen_capacity must be positive, got %d", c.SeenCapacity)
	}
	if c.SeenTTL < 0 {
		return fmt.Errorf("seen_ttl must be non-negative, got %v", c.SeenTTL)
	}
	if c.QueryTimeout < 0 {
		return fmt.Errorf("query_timeout must be non-negative, got %v", c.QueryTimeout)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
