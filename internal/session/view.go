// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package session

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a transition is not allowed from
// the current state.
var ErrInvalidTransition = errors.New("invalid view transition")

// State names a view state.
type State string

const (
	// StateListing shows the popular books.
	StateListing State = "listing"

	// StateDetail shows one book and its recommendations.
	StateDetail State = "detail"
)

// View is the browsing state of one session. The zero value is not valid;
// start from Listing().
//
// Transitions:
//
//	Listing --Select(title)--> Detail(title)
//	Detail  --Back()---------> Listing
//
// Views are values: a transition returns a new View and leaves the
// receiver unchanged.
type View struct {
	State State  `json:"state"`
	Title string `json:"title,omitempty"`
}

// Listing returns the initial view.
func Listing() View {
	return View{State: StateListing}
}

// Detail returns the detail view for title.
func Detail(title string) View {
	return View{State: StateDetail, Title: title}
}

// Select opens the detail view for title. It is only valid from Listing.
func (v View) Select(title string) (View, error) {
	if v.State != StateListing {
		return v, fmt.Errorf("%w: select from %s", ErrInvalidTransition, v.State)
	}
	if title == "" {
		return v, fmt.Errorf("%w: select requires a title", ErrInvalidTransition)
	}
	return Detail(title), nil
}

// Back returns to the listing. It is only valid from Detail.
func (v View) Back() (View, error) {
	if v.State != StateDetail {
		return v, fmt.Errorf("%w: back from %s", ErrInvalidTransition, v.State)
	}
	return Listing(), nil
}

// Valid reports whether v is one of the two well-formed states.
func (v View) Valid() bool {
	switch v.State {
	case StateListing:
		return v.Title == ""
	case StateDetail:
		return v.Title != ""
	default:
		return false
	}
}
