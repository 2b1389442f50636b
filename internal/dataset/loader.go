// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package dataset

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/logging"
)

var (
	booksRequired   = []string{"isbn", "book_title", "book_author", "year_of_publication", "publisher"}
	usersRequired   = []string{"user_id", "location"}
	ratingsRequired = []string{"user_id", "isbn", "book_rating"}
)

// ReadBooks parses a BX-Books table. The large cover URL column is optional.
func ReadBooks(ctx context.Context, r io.Reader, opts Options) ([]Book, FileStats, error) {
	var books []Book
	stats, err := readTable(ctx, r, "books", opts, booksRequired, func(rec []string, c columns) bool {
		b := Book{
			ISBN:      c.get(rec, "isbn"),
			Title:     c.raw(rec, "book_title"),
			Author:    c.get(rec, "book_author"),
			Year:      c.get(rec, "year_of_publication"),
			Publisher: c.get(rec, "publisher"),
			ImageURL:  c.get(rec, "image_url_l"),
		}
		if b.ISBN == "" || strings.TrimSpace(b.Title) == "" {
			return false
		}
		books = append(books, b)
		return true
	})
	return books, stats, err
}

// ReadUsers parses a BX-Users table.
func ReadUsers(ctx context.Context, r io.Reader, opts Options) ([]User, FileStats, error) {
	var users []User
	stats, err := readTable(ctx, r, "users", opts, usersRequired, func(rec []string, c columns) bool {
		id, err := strconv.ParseInt(c.get(rec, "user_id"), 10, 64)
		if err != nil {
			return false
		}
		u := User{ID: id, Location: c.get(rec, "location")}
		if age, err := strconv.Atoi(c.get(rec, "age")); err == nil && age > 0 {
			u.Age = age
		}
		users = append(users, u)
		return true
	})
	return users, stats, err
}

// ReadRatings parses a BX-Book-Ratings table. Rows with a non-numeric
// user id or rating are skipped.
func ReadRatings(ctx context.Context, r io.Reader, opts Options) ([]Rating, FileStats, error) {
	var ratings []Rating
	stats, err := readTable(ctx, r, "ratings", opts, ratingsRequired, func(rec []string, c columns) bool {
		id, err := strconv.ParseInt(c.get(rec, "user_id"), 10, 64)
		if err != nil {
			return false
		}
		value, err := strconv.Atoi(c.get(rec, "book_rating"))
		if err != nil {
			return false
		}
		isbn := c.get(rec, "isbn")
		if isbn == "" {
			return false
		}
		ratings = append(ratings, Rating{UserID: id, ISBN: isbn, Value: value})
		return true
	})
	return ratings, stats, err
}

// Load reads the three files named in cfg concurrently.
func Load(ctx context.Context, cfg *config.DatasetConfig) (*Dataset, error) {
	delim, err := delimiterRune(cfg.Delimiter)
	if err != nil {
		return nil, err
	}
	opts := Options{Delimiter: delim, Encoding: cfg.Encoding}
	logger := logging.WithComponent("dataset")
	start := time.Now()

	ds := &Dataset{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		f, err := openReader(cfg.BooksPath, "books")
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }() //nolint:errcheck // read-only file
		ds.Books, ds.BooksStats, err = ReadBooks(gctx, f, opts)
		return err
	})

	g.Go(func() error {
		f, err := openReader(cfg.UsersPath, "users")
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }() //nolint:errcheck // read-only file
		ds.Users, ds.UsersStats, err = ReadUsers(gctx, f, opts)
		return err
	})

	g.Go(func() error {
		f, err := openReader(cfg.RatingsPath, "ratings")
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }() //nolint:errcheck // read-only file
		ds.Ratings, ds.RatingsStats, err = ReadRatings(gctx, f, opts)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	for _, s := range []FileStats{ds.BooksStats, ds.UsersStats, ds.RatingsStats} {
		level := zerolog.InfoLevel
		if s.Skipped > 0 {
			level = zerolog.WarnLevel
		}
		logger.WithLevel(level).Str("file", s.Name).Int("rows", s.Rows).Int("skipped", s.Skipped).Msg("Dataset file loaded")
	}
	logger.Info().Dur("duration", time.Since(start)).Msg("Dataset loaded")

	return ds, nil
}
