// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package recommend

import (
	"sync/atomic"
	"time"
)

// Handle is a loaded model together with the metadata it was stored with.
type Handle struct {
	Model    *Model
	Version  int
	Coverage float64
	BuiltAt  time.Time
	LoadedAt time.Time
}

// Holder publishes the current Handle to concurrent readers. Swapping is
// atomic; a reader keeps using the Handle it loaded even if a newer one
// is stored meanwhile.
type Holder struct {
	cur atomic.Pointer[Handle]
}

// NewHolder returns an empty holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Load returns the current handle, or nil before the first Store.
func (h *Holder) Load() *Handle {
	return h.cur.Load()
}

// Store publishes hd and returns the previous handle.
func (h *Holder) Store(hd *Handle) *Handle {
	return h.cur.Swap(hd)
}

// Ready reports whether a model has been published.
func (h *Holder) Ready() bool {
	return h.cur.Load() != nil
}

// Version returns the published version, or 0 when empty.
func (h *Holder) Version() int {
	if hd := h.cur.Load(); hd != nil {
		return hd.Version
	}
	return 0
}
