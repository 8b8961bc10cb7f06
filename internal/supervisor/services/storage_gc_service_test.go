// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/upnext/internal/metrics"
)

type countingCollector struct {
	runs atomic.Int32
	err  error
	ran  chan struct{}
}

func (c *countingCollector) RunGC(context.Context) error {
	c.runs.Add(1)
	select {
	case c.ran <- struct{}{}:
	default:
	}
	return c.err
}

func TestStorageGCService_RunsOnInterval(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		result string
	}{
		{"success", nil, "success"},
		{"failure", errors.New("value log corrupt"), "failure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := &countingCollector{err: tt.err, ran: make(chan struct{}, 1)}
			before := testutil.ToFloat64(metrics.StorageGCRuns.WithLabelValues(tt.result))

			svc := NewStorageGCService(collector, 5*time.Millisecond, zerolog.Nop())
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- svc.Serve(ctx) }()

			select {
			case <-collector.ran:
			case <-time.After(2 * time.Second):
				t.Fatal("collector never ran")
			}
			cancel()
			if err := <-done; !errors.Is(err, context.Canceled) {
				t.Errorf("Serve = %v, want context.Canceled", err)
			}

			if got := testutil.ToFloat64(metrics.StorageGCRuns.WithLabelValues(tt.result)) - before; got < 1 {
				t.Errorf("gc runs{%s} delta = %v, want >= 1", tt.result, got)
			}
		})
	}
}

func TestStorageGCService_LogsFailure(t *testing.T) {
	var out bytes.Buffer
	collector := &countingCollector{err: errors.New("disk full"), ran: make(chan struct{}, 1)}
	svc := NewStorageGCService(collector, time.Hour, zerolog.New(&out))

	if err := svc.runOnce(context.Background()); err == nil {
		t.Fatal("runOnce returned nil for a failing collector")
	}
	if svc.String() != "storage-gc" {
		t.Errorf("String() = %q", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = svc.Serve(ctx)
	if !strings.Contains(out.String(), `"service":"storage-gc"`) {
		t.Errorf("log lines lack service field: %s", out.String())
	}
}

func TestNewStorageGCService_DefaultInterval(t *testing.T) {
	svc := NewStorageGCService(&countingCollector{}, 0, zerolog.Nop())
	if svc.interval != DefaultGCInterval {
		t.Errorf("interval = %v, want %v", svc.interval, DefaultGCInterval)
	}
}
