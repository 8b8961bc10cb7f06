// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/upnext/internal/metrics"
	"github.com/tomtom215/upnext/internal/storage"
)

// DefaultGCInterval is used when StorageGCService is given no interval.
const DefaultGCInterval = 10 * time.Minute

// gcPassTimeout bounds a single collection pass.
const gcPassTimeout = 5 * time.Minute

// StorageGCService runs storage garbage collection on a fixed interval.
// A failed pass is logged and retried on the next tick.
type StorageGCService struct {
	collector storage.Collector
	interval  time.Duration
	logger    zerolog.Logger
	name      string
}

// NewStorageGCService creates the service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewStorageGCService(collector storage.Collector, interval time.Duration, logger zerolog.Logger) *StorageGCService {
	if interval <= 0 {
		interval = DefaultGCInterval
	}
	return &StorageGCService{
		collector: collector,
		interval:  interval,
		logger:    logger.With().Str("service", "storage-gc").Logger(),
		name:      "storage-gc",
	}
}

// Serve implements suture.Service.
func (s *StorageGCService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("storage gc service starting")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("storage gc service shutting down")
			return ctx.Err()

		case <-ticker.C:
			if err := s.runOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Warn().Err(err).Msg("storage gc pass failed")
			}
		}
	}
}

func (s *StorageGCService) runOnce(ctx context.Context) error {
	passCtx, cancel := context.WithTimeout(ctx, gcPassTimeout)
	defer cancel()

	start := time.Now()
	err := s.collector.RunGC(passCtx)
	metrics.RecordStorageGC(time.Since(start), err)
	if err != nil {
		return err
	}

	s.logger.Debug().Dur("duration", time.Since(start)).Msg("storage gc pass complete")
	return nil
}

// String implements fmt.Stringer.
func (s *StorageGCService) String() string {
	return s.name
}
