// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package events

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/bookshelf/internal/recommend/storage"
)

func TestNewModelPublished(t *testing.T) {
	built := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := NewModelPublished(&storage.Manifest{Version: 4, BuiltAt: built, Rows: 10, Cols: 20, Coverage: 0.5})

	if e.EventID == "" {
		t.Error("EventID is empty")
	}
	if e.Version != 4 || e.Rows != 10 || e.Cols != 20 || e.Coverage != 0.5 || !e.BuiltAt.Equal(built) {
		t.Errorf("NewModelPublished() = %+v", e)
	}
	if e.PublishedAt.IsZero() {
		t.Error("PublishedAt is zero")
	}
}

func TestDecode(t *testing.T) {
	good, err := ModelPublished{EventID: "x", Version: 2}.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	tests := []struct {
		name    string
		payload []byte
		wantErr bool
	}{
		{"valid", good, false},
		{"not json", []byte("{"), true},
		{"zero version", []byte(`{"event_id":"x","version":0}`), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Decode(tt.payload)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidEvent) {
					t.Errorf("Decode() error = %v, want ErrInvalidEvent", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if e.Version != 2 {
				t.Errorf("Version = %d, want 2", e.Version)
			}
		})
	}
}
