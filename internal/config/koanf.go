// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/upnext/internal/catalog"
	"github.com/tomtom215/upnext/internal/events"
	"github.com/tomtom215/upnext/internal/logging"
	"github.com/tomtom215/upnext/internal/recommend"
	"github.com/tomtom215/upnext/internal/session"
	"github.com/tomtom215/upnext/internal/storage"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/upnext/config.yaml",
	"/etc/upnext/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	duck := catalog.DefaultConfig()
	duck.Path = "/data/upnext.duckdb"

	return &Config{
		Logging: logging.DefaultConfig(),
		Storage: StorageConfig{
			Type:       storage.StoreBadger,
			Path:       "/data/upnext",
			GCInterval: 10 * time.Minute,
		},
		Catalog: CatalogConfig{
			DuckDB:  *duck,
			Breaker: *catalog.DefaultBreakerConfig(),
		},
		Recommend: *recommend.DefaultConfig(),
		Playback:  *session.DefaultConfig(),
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              8787,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     300,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Events: *events.DefaultConfig(),
	}
}

// Load builds the configuration from three layers, each overriding the last:
//  1. built-in defaults
//  2. an optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. environment variables listed in envMappings
func Load() (*Config, error) {
	return load(findConfigFile())
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns CONFIG_PATH if it exists, else the first existing
// default path, else "".
func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths arrive from env as comma-separated strings.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to config paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"log_level":     "logging.level",
	"log_format":    "logging.format",
	"log_caller":    "logging.caller",
	"log_timestamp": "logging.timestamp",

	"upnext_store":             "storage.type",
	"upnext_store_path":        "storage.path",
	"upnext_store_gc_interval": "storage.gc_interval",

	"duckdb_path":                   "catalog.duckdb.path",
	"duckdb_threads":                "catalog.duckdb.threads",
	"duckdb_max_memory":             "catalog.duckdb.max_memory",
	"duckdb_query_timeout":          "catalog.duckdb.query_timeout",
	"catalog_seed_file":             "catalog.seed_file",
	"catalog_breaker_timeout":       "catalog.breaker.timeout",
	"catalog_breaker_failure_ratio": "catalog.breaker.failure_ratio",

	"recommend_target_count":        "recommend.target_count",
	"recommend_pool_limit":          "recommend.pool_limit",
	"recommend_max_per_channel":     "recommend.max_per_channel",
	"recommend_min_unique_channels": "recommend.min_unique_channels",
	"recommend_seed":                "recommend.seed",
	"upnext_seen_capacity":          "recommend.seen_capacity",
	"upnext_seen_ttl":               "recommend.seen_ttl",

	"playback_recommend_count":     "playback.recommend_count",
	"playback_channel_queue_limit": "playback.channel_queue_limit",
	"playback_autoplay":            "playback.default_autoplay",
	"playback_repeat":              "playback.default_repeat",

	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",

	"events_topic":       "events.topic",
	"events_buffer_size": "events.buffer_size",
}

// envTransformFunc maps DUCKDB_PATH to catalog.duckdb.path and so on.
// Unknown variables map to "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
