// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

/*
Package metrics provides Prometheus metrics for the playback coordinator.

Collectors are registered with the default registry through promauto and
exposed at /metrics by the local API. Callers use the Record* helpers rather
than touching collectors directly.

# Available Metrics

Recommendation:
  - upnext_recommend_builds_total{outcome}
  - upnext_recommend_output_size
  - upnext_recommend_unique_channels
  - upnext_recommend_below_min_unique_channels_total
  - upnext_recommend_exhaustion_fallbacks_total
  - upnext_recommend_banned_filtered_total

Catalog:
  - upnext_catalog_query_duration_seconds{query}
  - upnext_catalog_errors_total{query}
  - upnext_circuit_breaker_state{name}
  - upnext_circuit_breaker_requests_total{name,result}
  - upnext_circuit_breaker_state_transitions_total{name,from_state,to_state}

Session:
  - upnext_navigation_operations_total{op,result}
  - upnext_sessions_created_total{context_type}
  - upnext_session_queue_length
  - upnext_persistence_errors_total{key,op}
  - upnext_malformed_sessions_discarded_total

API and events:
  - upnext_api_requests_total{method,endpoint,status_code}
  - upnext_api_request_duration_seconds{method,endpoint}
  - upnext_events_published_total{topic,result}

# Example Queries

Share of builds short of the channel target:

	rate(upnext_recommend_below_min_unique_channels_total[1h])
	  / rate(upnext_recommend_builds_total[1h])

Catalog p95 latency:

	histogram_quantile(0.95, rate(upnext_catalog_query_duration_seconds_bucket[5m]))
*/
package metrics
