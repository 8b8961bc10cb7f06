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

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/upnext/internal/metrics"
	"github.com/tomtom215/upnext/internal/models"
	"github.com/tomtom215/upnext/internal/recommend"
)

// BreakerConfig tunes the catalog circuit breaker.
type BreakerConfig struct {
	// Name labels metrics and logs.
	Name string `koanf:"name"`

	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32 `koanf:"max_requests" validate:"min=1"`

	// Interval resets the failure counts while closed.
	Interval time.Duration `koanf:"interval"`

	// Timeout is how long the breaker stays open before a trial.
	Timeout time.Duration `koanf:"timeout"`

	// MinRequests is the sample size needed before the breaker may open.
	MinRequests uint32 `koanf:"min_requests" validate:"min=1"`

	// FailureRatio opens the breaker once reached.
	FailureRatio float64 `koanf:"failure_ratio" validate:"gt=0,lte=1"`
}

// DefaultBreakerConfig opens after 60% failures over at least 10 calls.
func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		Name:         "catalog",
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// BreakerCatalog wraps a Catalog with a circuit breaker so a failing
// database is not hammered by every recommendation build.
//
// Unknown-video lookups and caller cancellations are not counted as failures.
type BreakerCatalog struct {
	next   recommend.Catalog
	cb     *gobreaker.CircuitBreaker[any]
	name   string
	logger zerolog.Logger
}

// NewBreakerCatalog wraps next.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBreakerCatalog(next recommend.Catalog, cfg *BreakerConfig, logger zerolog.Logger) *BreakerCatalog {
	if cfg == nil {
		cfg = DefaultBreakerConfig()
	}
	b := &BreakerCatalog{
		next:   next,
		name:   cfg.Name,
		logger: logger.With().Str("component", "catalog-breaker").Logger(),
	}

	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= cfg.FailureRatio {
				b.logger.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).
					Msg("opening catalog circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Info().
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("catalog circuit state transition")
			metrics.RecordBreakerTransition(name, stateToString(from), stateToString(to), stateToInt(to))
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrVideoNotFound) ||
				errors.Is(err, context.Canceled)
		},
	})
	return b
}

// State returns the breaker state as "closed", "half-open" or "open".
func (b *BreakerCatalog) State() string {
	return stateToString(b.cb.State())
}

func (b *BreakerCatalog) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	switch {
	case err == nil:
		metrics.RecordBreakerRequest(b.name, "success")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordBreakerRequest(b.name, "rejected")
		b.logger.Debug().Err(err).Msg("catalog call rejected")
	default:
		metrics.RecordBreakerRequest(b.name, "failure")
	}
	return result, err
}

// call runs fn through the breaker and restores its static type.
func call[T any](b *BreakerCatalog, fn func() (T, error)) (T, error) {
	var zero T
	result, err := b.execute(func() (any, error) { return fn() })
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// QueryEligibleVideos implements recommend.Catalog.
func (b *BreakerCatalog) QueryEligibleVideos(ctx context.Context, exclude map[string]struct{}, limit int) ([]models.VideoItem, error) {
	return call(b, func() ([]models.VideoItem, error) {
		return b.next.QueryEligibleVideos(ctx, exclude, limit)
	})
}

// QueryPlaylistVideos implements recommend.Catalog.
func (b *BreakerCatalog) QueryPlaylistVideos(ctx context.Context, playlistID string) ([]models.VideoItem, error) {
	return call(b, func() ([]models.VideoItem, error) {
		return b.next.QueryPlaylistVideos(ctx, playlistID)
	})
}

// QueryChannelVideos implements recommend.Catalog.
func (b *BreakerCatalog) QueryChannelVideos(ctx context.Context, channelID, excludeID string, limit int) ([]models.VideoItem, error) {
	return call(b, func() ([]models.VideoItem, error) {
		return b.next.QueryChannelVideos(ctx, channelID, excludeID, limit)
	})
}

// QueryBannedUserIDs implements recommend.Catalog.
func (b *BreakerCatalog) QueryBannedUserIDs(ctx context.Context) (map[string]struct{}, error) {
	return call(b, func() (map[string]struct{}, error) {
		return b.next.QueryBannedUserIDs(ctx)
	})
}

// GetVideo implements recommend.Catalog.
func (b *BreakerCatalog) GetVideo(ctx context.Context, id string) (*models.VideoItem, error) {
	return call(b, func() (*models.VideoItem, error) {
		return b.next.GetVideo(ctx, id)
	})
}

func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
