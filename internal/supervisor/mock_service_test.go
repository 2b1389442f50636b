// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

// mockService runs until canceled, failing its first failFirst starts.
type mockService struct {
	name      string
	failFirst int32
	starts    atomic.Int32
}

func newMockService(name string, failFirst int32) *mockService {
	return &mockService{name: name, failFirst: failFirst}
}

func (m *mockService) Serve(ctx context.Context) error {
	if n := m.starts.Add(1); n <= m.failFirst {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockService) String() string { return m.name }
