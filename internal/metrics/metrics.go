// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the playback coordinator:
// - Recommendation pipeline quality (size, channel spread, exhaustion)
// - Catalog query performance (DuckDB) and circuit breaker state
// - Queue navigation and session persistence
// - Local API latency
// - Storage maintenance and event delivery

var (
	// Recommendation Metrics
	RecommendBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upnext_recommend_builds_total",
			Help: "Total number of recommendation builds",
		},
		[]string{"outcome"}, // "ok", "empty", "catalog_error"
	)

	RecommendOutputSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "upnext_recommend_output_size",
			Help:    "Number of videos returned by a recommendation build",
			Buckets: []float64{0, 1, 2, 5, 10, 15, 20, 30, 50},
		},
	)

	RecommendUniqueChannels = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "upnext_recommend_unique_channels",
			Help:    "Distinct channels in a recommendation build",
			Buckets: []float64{0, 1, 2, 4, 6, 8, 10, 15, 20},
		},
	)

	RecommendBelowMinChannels = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upnext_recommend_below_min_unique_channels_total",
			Help: "Builds that fell short of the unique-channel quality target",
		},
	)

	RecommendExhaustionFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upnext_recommend_exhaustion_fallbacks_total",
			Help: "Times the seen-id set was reset because every eligible video had been shown",
		},
	)

	RecommendBannedFiltered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upnext_recommend_banned_filtered_total",
			Help: "Candidates dropped because their author is banned",
		},
	)

	// Catalog Metrics
	CatalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upnext_catalog_query_duration_seconds",
			Help:    "Duration of catalog queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	CatalogErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upnext_catalog_errors_total",
			Help: "Total number of failed catalog queries",
		},
		[]string{"query"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "upnext_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upnext_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upnext_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Navigation Metrics
	NavigationOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upnext_navigation_operations_total",
			Help: "Queue navigation operations by result",
		},
		[]string{"op", "result"}, // result: "moved", "none"
	)

	SessionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upnext_sessions_created_total",
			Help: "Playback sessions created by context type",
		},
		[]string{"context_type"},
	)

	SessionQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "upnext_session_queue_length",
			Help: "Length of the live session queue",
		},
	)

	// Persistence Metrics
	PersistenceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upnext_persistence_errors_total",
			Help: "Failed reads or writes of persisted state",
		},
		[]string{"key", "op"},
	)

	MalformedSessionsDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upnext_malformed_sessions_discarded_total",
			Help: "Persisted sessions discarded at resume because they were unreadable",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upnext_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upnext_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	// Event bus
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upnext_events_published_total",
			Help: "Session events published on the in-process bus",
		},
		[]string{"topic", "result"},
	)

	EventsObserved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upnext_events_observed_total",
			Help: "Session events seen by the event log service, by type",
		},
		[]string{"type"},
	)

	// Storage maintenance
	StorageGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upnext_storage_gc_runs_total",
			Help: "Storage garbage collection passes by result",
		},
		[]string{"result"}, // result: "success", "failure"
	)

	StorageGCDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "upnext_storage_gc_duration_seconds",
			Help:    "Duration of storage garbage collection passes",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
		},
	)
)

// RecordRecommendation records the outcome of a recommendation build.
func RecordRecommendation(outcome string, size, uniqueChannels int) {
	RecommendBuilds.WithLabelValues(outcome).Inc()
	RecommendOutputSize.Observe(float64(size))
	RecommendUniqueChannels.Observe(float64(uniqueChannels))
}

// RecordBelowMinUniqueChannels counts a build that missed the channel spread target.
func RecordBelowMinUniqueChannels() {
	RecommendBelowMinChannels.Inc()
}

// RecordExhaustionFallback counts a seen-id reset.
func RecordExhaustionFallback() {
	RecommendExhaustionFallbacks.Inc()
}

// RecordBannedFiltered counts candidates removed by the banned-author filter.
func RecordBannedFiltered(n int) {
	if n > 0 {
		RecommendBannedFiltered.Add(float64(n))
	}
}

// RecordCatalogQuery records a catalog query metric
func RecordCatalogQuery(query string, duration time.Duration, err error) {
	CatalogQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
	if err != nil {
		CatalogErrors.WithLabelValues(query).Inc()
	}
}

// RecordBreakerRequest records a call through a circuit breaker.
func RecordBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordBreakerTransition records a state change and updates the state gauge.
// States follow gobreaker: 0=closed, 1=half-open, 2=open.
func RecordBreakerTransition(name, from, to string, toState int) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(float64(toState))
}

// RecordNavigation records a navigator call; moved is false when it returned no video.
func RecordNavigation(op string, moved bool) {
	result := "moved"
	if !moved {
		result = "none"
	}
	NavigationOps.WithLabelValues(op, result).Inc()
}

// RecordSessionCreated records a new session and its queue length.
func RecordSessionCreated(contextType string, queueLen int) {
	SessionsCreated.WithLabelValues(contextType).Inc()
	SessionQueueLength.Set(float64(queueLen))
}

// SetQueueLength updates the live queue length gauge.
func SetQueueLength(n int) {
	SessionQueueLength.Set(float64(n))
}

// RecordPersistenceError counts a failed persistence operation.
func RecordPersistenceError(key, op string) {
	PersistenceErrors.WithLabelValues(key, op).Inc()
}

// RecordMalformedSession counts a discarded persisted session.
func RecordMalformedSession() {
	MalformedSessionsDiscarded.Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordEventPublished records a bus publish attempt.
func RecordEventPublished(topic string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	EventsPublished.WithLabelValues(topic, result).Inc()
}

// RecordStorageGC records one storage garbage collection pass.
func RecordStorageGC(d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	StorageGCRuns.WithLabelValues(result).Inc()
	StorageGCDuration.Observe(d.Seconds())
}

// RecordEventObserved counts a session event seen by a subscriber.
func RecordEventObserved(eventType string) {
	EventsObserved.WithLabelValues(eventType).Inc()
}
