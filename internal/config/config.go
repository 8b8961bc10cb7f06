// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/upnext/internal/catalog"
	"github.com/tomtom215/upnext/internal/events"
	"github.com/tomtom215/upnext/internal/logging"
	"github.com/tomtom215/upnext/internal/recommend"
	"github.com/tomtom215/upnext/internal/session"
	"github.com/tomtom215/upnext/internal/storage"
	"github.com/tomtom215/upnext/internal/validation"
)

// Config is the complete process configuration.
type Config struct {
	Logging   logging.Config   `koanf:"logging"`
	Storage   StorageConfig    `koanf:"storage"`
	Catalog   CatalogConfig    `koanf:"catalog"`
	Recommend recommend.Config `koanf:"recommend"`
	Playback  session.Config   `koanf:"playback"`
	Server    ServerConfig     `koanf:"server"`
	Events    events.Config    `koanf:"events"`
}

// StorageConfig selects where session state and seen ids live.
type StorageConfig struct {
	// Type is memory or badger.
	Type storage.StoreType `koanf:"type" validate:"oneof=memory badger"`

	// Path is the BadgerDB directory. Required for badger.
	Path string `koanf:"path"`

	// GCInterval is the pause between storage garbage collection passes.
	GCInterval time.Duration `koanf:"gc_interval" validate:"min=0"`
}

// CatalogConfig holds the video catalog database settings.
type CatalogConfig struct {
	DuckDB catalog.Config `koanf:"duckdb"`

	// SeedFile is an optional JSON file applied to the catalog at startup.
	SeedFile string `koanf:"seed_file"`

	Breaker catalog.BreakerConfig `koanf:"breaker"`
}

// ServerConfig holds the local HTTP API settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=0"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"min=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Addr returns host:port.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate checks struct tags first, then cross-field rules.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}
	if c.Storage.Type == storage.StoreBadger && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required when storage.type is %q", storage.StoreBadger)
	}
	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	if err := c.Playback.Validate(); err != nil {
		return fmt.Errorf("playback: %w", err)
	}
	if c.Playback.RecommendCount > c.Recommend.PoolLimit {
		return fmt.Errorf("playback.recommend_count (%d) exceeds recommend.pool_limit (%d)",
			c.Playback.RecommendCount, c.Recommend.PoolLimit)
	}
	if !c.Server.RateLimitDisabled && (c.Server.RateLimitReqs < 1 || c.Server.RateLimitWindow <= 0) {
		return fmt.Errorf("server rate limit needs positive rate_limit_reqs and rate_limit_window, or rate_limit_disabled")
	}
	return nil
}
