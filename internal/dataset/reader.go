// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrMissingColumn is returned when a file header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Options controls how a file is decoded.
type Options struct {
	// Delimiter is the field separator; BX uses ';'.
	Delimiter rune

	// Encoding is latin1 or utf8.
	Encoding string
}

// DefaultOptions matches the published BX dump.
func DefaultOptions() Options {
	return Options{Delimiter: ';', Encoding: "latin1"}
}

// ctxCheckEvery is how many rows are read between context checks.
const ctxCheckEvery = 10000

// NormalizeColumn turns a raw header into its lookup key:
// "Year-Of-Publication" -> "year_of_publication".
func NormalizeColumn(name string) string {
	name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	name = strings.ToLower(name)
	return strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return '_'
		}
		return r
	}, name)
}

// columns maps normalized header names to field positions.
type columns map[string]int

func (c columns) get(rec []string, name string) string {
	return strings.TrimSpace(c.raw(rec, name))
}

// raw returns the field untouched. Titles keep surrounding whitespace so
// "Dune " and "Dune" stay separate rows, as in the source dump.
func (c columns) raw(rec []string, name string) string {
	idx, ok := c[name]
	if !ok || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}

// rowFunc parses one record. Returning false marks the row as skipped.
type rowFunc func(rec []string, cols columns) bool

// readTable streams a delimited file through fn.
func readTable(ctx context.Context, r io.Reader, name string, opts Options, required []string, fn rowFunc) (FileStats, error) {
	stats := FileStats{Name: name}

	decoded, err := decode(r, opts.Encoding)
	if err != nil {
		return stats, err
	}

	cr := csv.NewReader(decoded)
	cr.Comma = opts.Delimiter
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return stats, fmt.Errorf("read %s header: %w", name, err)
	}

	cols := make(columns, len(header))
	for i, h := range header {
		cols[NormalizeColumn(h)] = i
	}
	for _, req := range required {
		if _, ok := cols[req]; !ok {
			return stats, fmt.Errorf("%s: %w %q", name, ErrMissingColumn, req)
		}
	}
	width := len(header)

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		stats.Rows++
		if stats.Rows%ctxCheckEvery == 0 {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return stats, ctxErr
			}
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			stats.Skipped++
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("read %s: %w", name, err)
		}
		if len(rec) != width || !fn(rec, cols) {
			stats.Skipped++
		}
	}

	return stats, nil
}

func decode(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", "latin1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder().Reader(r), nil
	case "utf8", "utf-8":
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

// delimiterRune converts a configured delimiter string to a rune.
func delimiterRune(s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter must be one character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

func openReader(path, name string) (*os.File, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}
