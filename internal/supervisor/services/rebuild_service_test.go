// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/bookshelf/internal/pipeline"
	"github.com/tomtom215/bookshelf/internal/recommend/storage"
)

type mockBuilder struct {
	runs atomic.Int32
	err  error
}

func (b *mockBuilder) Run(context.Context) (*storage.Manifest, error) {
	n := b.runs.Add(1)
	if b.err != nil {
		return nil, b.err
	}
	return &storage.Manifest{Version: int(n), Rows: 3, Cols: 4}, nil
}

func TestRebuildService(t *testing.T) {
	tests := []struct {
		name      string
		cfg       RebuildConfig
		err       error
		wait      time.Duration
		minRuns   int32
		maxRuns   int32
		wantBuilt bool
	}{
		{"startup only", RebuildConfig{OnStartup: true}, nil, 50 * time.Millisecond, 1, 1, true},
		{"disabled", RebuildConfig{}, nil, 50 * time.Millisecond, 0, 0, false},
		{"interval", RebuildConfig{Interval: 10 * time.Millisecond}, nil, 100 * time.Millisecond, 2, 100, true},
		{"failures are not fatal", RebuildConfig{OnStartup: true, Interval: 10 * time.Millisecond}, errors.New("csv missing"), 60 * time.Millisecond, 2, 100, false},
		{"build in progress", RebuildConfig{OnStartup: true}, pipeline.ErrBuildInProgress, 30 * time.Millisecond, 1, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := &mockBuilder{err: tt.err}
			var built atomic.Int32
			svc := NewRebuildService(builder, tt.cfg, func(int) { built.Add(1) }, zerolog.Nop())

			ctx, cancel := context.WithTimeout(context.Background(), tt.wait)
			defer cancel()
			if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("Serve() = %v, want DeadlineExceeded", err)
			}

			runs := builder.runs.Load()
			if runs < tt.minRuns || runs > tt.maxRuns {
				t.Errorf("runs = %d, want [%d, %d]", runs, tt.minRuns, tt.maxRuns)
			}
			if (built.Load() > 0) != tt.wantBuilt {
				t.Errorf("onBuilt calls = %d, want any = %v", built.Load(), tt.wantBuilt)
			}
		})
	}
}

func TestNewRebuildService_DefaultTimeout(t *testing.T) {
	svc := NewRebuildService(&mockBuilder{}, RebuildConfig{}, nil, zerolog.Nop())
	if svc.config.Timeout != 30*time.Minute {
		t.Errorf("Timeout = %v", svc.config.Timeout)
	}
	if svc.String() != "rebuild-service" {
		t.Errorf("String() = %q", svc.String())
	}
}
