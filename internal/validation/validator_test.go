// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package validation

import (
	"context"
	"strings"
	"testing"

	"github.com/tomtom215/bookshelf/internal/dataset"
)

type recommendRequest struct {
	Title string `query:"title" validate:"required,booktitle"`
	N     int    `query:"n" validate:"min=1,max=50"`
}

type selectRequest struct {
	Title string `json:"title" validate:"required,booktitle"`
}

type namedRequest struct {
	Mode string `validate:"oneof=listing detail"`
}

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()
	if v1 == nil || v1 != v2 {
		t.Error("GetValidator() should return the same non-nil instance")
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{}
		wantField string
		wantTag   string
	}{
		{"valid", &recommendRequest{Title: "The Da Vinci Code", N: 5}, "", ""},
		{"valid with punctuation", &recommendRequest{Title: "Harry Potter and the Sorcerer's Stone (Book 1)", N: 50}, "", ""},
		{"missing title", &recommendRequest{N: 5}, "title", "required"},
		{"blank title", &recommendRequest{Title: "   ", N: 5}, "title", "booktitle"},
		{"control char", &recommendRequest{Title: "Dune\x00", N: 5}, "title", "booktitle"},
		{"newline", &recommendRequest{Title: "Dune\nMessiah", N: 5}, "title", "booktitle"},
		{"DEL", &recommendRequest{Title: "Dune\x7f", N: 5}, "title", "booktitle"},
		{"C1 punctuation", &recommendRequest{Title: "Ender\u0092s Game", N: 5}, "", ""},
		{"n too small", &recommendRequest{Title: "Dune", N: 0}, "n", "min"},
		{"n too large", &recommendRequest{Title: "Dune", N: 51}, "n", "max"},
		{"json tag name", &selectRequest{}, "title", "required"},
		{"go name fallback", &namedRequest{Mode: "grid"}, "Mode", "oneof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(tt.input)
			if tt.wantField == "" {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			errs := verr.Errors()
			if len(errs) != 1 {
				t.Fatalf("len(Errors()) = %d, want 1: %v", len(errs), verr)
			}
			if errs[0].Field() != tt.wantField || errs[0].Tag() != tt.wantTag {
				t.Errorf("error = %s/%s, want %s/%s", errs[0].Field(), errs[0].Tag(), tt.wantField, tt.wantTag)
			}
		})
	}
}

func TestValidateStruct_LongTitle(t *testing.T) {
	req := &recommendRequest{Title: strings.Repeat("a", MaxTitleLength+1), N: 1}
	if verr := ValidateStruct(req); verr == nil {
		t.Error("ValidateStruct() = nil, want booktitle error for oversized title")
	}
}

func TestValidateStruct_Latin1Title(t *testing.T) {
	// 0x92 is the Windows-1252 apostrophe; Latin-1 decodes it to U+0092.
	raw := "\"ISBN\";\"Book-Title\";\"Book-Author\";\"Year-Of-Publication\";\"Publisher\";\"Image-URL-S\";\"Image-URL-M\";\"Image-URL-L\"\n" +
		"\"1\";\"Ender\x92s Game\";\"Orson Scott Card\";\"1985\";\"Tor\";\"\";\"\";\"\"\n"
	books, _, err := dataset.ReadBooks(context.Background(), strings.NewReader(raw), dataset.DefaultOptions())
	if err != nil {
		t.Fatalf("ReadBooks() error = %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("ReadBooks() returned %d books, want 1", len(books))
	}
	if want := "Ender\u0092s Game"; books[0].Title != want {
		t.Fatalf("Title = %q, want %q", books[0].Title, want)
	}

	if verr := ValidateStruct(&recommendRequest{Title: books[0].Title, N: 5}); verr != nil {
		t.Errorf("ValidateStruct(recommend) = %v, want nil", verr)
	}
	if verr := ValidateStruct(&selectRequest{Title: books[0].Title}); verr != nil {
		t.Errorf("ValidateStruct(select) = %v, want nil", verr)
	}
}

func TestToAPIError(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		verr := ValidateStruct(&recommendRequest{Title: "Dune", N: 0})
		apiErr := verr.ToAPIError()
		if apiErr.Code != ErrorCode {
			t.Errorf("Code = %q, want %q", apiErr.Code, ErrorCode)
		}
		if apiErr.Message != "n must be at least 1" {
			t.Errorf("Message = %q", apiErr.Message)
		}
		if apiErr.Details["field"] != "n" {
			t.Errorf("Details[field] = %v, want n", apiErr.Details["field"])
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		verr := ValidateStruct(&recommendRequest{N: 99})
		apiErr := verr.ToAPIError()
		fields, ok := apiErr.Details["fields"].([]map[string]interface{})
		if !ok || len(fields) != 2 {
			t.Fatalf("Details[fields] = %v, want two entries", apiErr.Details["fields"])
		}
		if !strings.Contains(apiErr.Message, "title: title is required") {
			t.Errorf("Message = %q, want the title failure listed", apiErr.Message)
		}
	})

	t.Run("empty", func(t *testing.T) {
		apiErr := (&RequestValidationError{}).ToAPIError()
		if apiErr.Message != "Validation failed" {
			t.Errorf("Message = %q", apiErr.Message)
		}
	})
}
