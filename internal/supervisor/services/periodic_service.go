// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Task is one unit of periodic work.
type Task func(ctx context.Context) error

// PeriodicService runs a Task on a fixed interval. Task errors are logged
// and the schedule continues.
type PeriodicService struct {
	name     string
	interval time.Duration
	task     Task
	logger   zerolog.Logger
}

// NewPeriodicService creates a service named name. A non-positive interval
// means one minute.
func NewPeriodicService(name string, interval time.Duration, task Task, logger zerolog.Logger) *PeriodicService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PeriodicService{
		name:     name,
		interval: interval,
		task:     task,
		logger:   logger.With().Str("service", name).Logger(),
	}
}

// Serve implements suture.Service.
func (p *PeriodicService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.task(ctx); err != nil && ctx.Err() == nil {
				p.logger.Warn().Err(err).Msg("Periodic task failed")
			}
		}
	}
}

func (p *PeriodicService) String() string {
	return p.name
}
