// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

/*
Package config loads upnext configuration with koanf.

# Sources

Later layers override earlier ones:

  - built-in defaults (defaultConfig)
  - a YAML file: $CONFIG_PATH, ./config.yaml or /etc/upnext/config.yaml
  - environment variables from the envMappings table

Environment variables outside the table are ignored.

# Sections

	logging:   level, format, caller, timestamp
	storage:   type (memory|badger), path
	catalog:   duckdb {path, threads, max_memory, query_timeout}, seed_file,
	           breaker {max_requests, interval, timeout, min_requests, failure_ratio}
	recommend: target_count, pool_limit, max_per_channel, min_unique_channels,
	           seen_capacity, seen_ttl, query_timeout, seed
	playback:  recommend_count, channel_queue_limit, default_autoplay, default_repeat
	server:    host, port, timeouts, cors_origins, rate limit
	events:    topic, buffer_size

# Common environment variables

  - LOG_LEVEL, LOG_FORMAT
  - UPNEXT_STORE, UPNEXT_STORE_PATH, UPNEXT_SEEN_TTL
  - DUCKDB_PATH, CATALOG_SEED_FILE
  - RECOMMEND_TARGET_COUNT, RECOMMEND_SEED
  - HTTP_HOST, HTTP_PORT, CORS_ORIGINS (comma-separated)

# Validation

Load fails when struct tags (go-playground/validator) or the cross-field
checks in Config.Validate reject the result, for example badger storage
without a path or a recommend_count above the candidate pool limit.
*/
package config
