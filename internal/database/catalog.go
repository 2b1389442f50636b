// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/bookshelf/internal/database/query"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
	"github.com/tomtom215/bookshelf/internal/recommend/storage"
)

// Book is one catalog row.
type Book struct {
	Title       string  `json:"title"`
	ISBN        string  `json:"isbn"`
	Author      string  `json:"author"`
	Year        string  `json:"year"`
	Publisher   string  `json:"publisher"`
	ImageURL    string  `json:"image_url"`
	RatingCount int     `json:"rating_count"`
	MeanRating  float64 `json:"mean_rating"`
}

const bookColumns = "title, isbn, author, year, publisher, image_url, rating_count, mean_rating"

// ReplaceCatalog swaps the catalog contents for entries in one transaction.
func (db *DB) ReplaceCatalog(ctx context.Context, version int, entries []storage.CatalogEntry) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("replace", "books", time.Since(start), err) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog replace: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() //nolint:errcheck // already failing
		}
	}()

	// Recreating the table instead of DELETE keeps the primary key check
	// from seeing the rows being replaced.
	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS books"); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}
	if _, err = tx.ExecContext(ctx, booksTableDDL); err != nil {
		return fmt.Errorf("recreate catalog: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO books ("+bookColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare catalog insert: %w", err)
	}
	defer func() { _ = stmt.Close() }() //nolint:errcheck // closed with the transaction

	for _, e := range entries {
		if _, err = stmt.ExecContext(ctx, e.Title, e.ISBN, e.Author, e.Year, e.Publisher, e.ImageURL, e.RatingCount, e.MeanRating); err != nil {
			return fmt.Errorf("insert %q: %w", e.Title, err)
		}
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO catalog_meta (id, version, loaded_at) VALUES (1, ?, ?)`,
		version, time.Now().UTC()); err != nil {
		return fmt.Errorf("record catalog version: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog replace: %w", err)
	}

	logger := logging.WithComponent("catalog")
	logger.Info().
		Int("version", version).
		Int("books", len(entries)).
		Dur("duration", time.Since(start)).
		Msg("Catalog replaced")
	return nil
}

// Version returns the model version the catalog was loaded from, or 0.
func (db *DB) Version(ctx context.Context) (int, error) {
	var v int
	err := db.conn.QueryRowContext(ctx, "SELECT version FROM catalog_meta WHERE id = 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read catalog version: %w", err)
	}
	return v, nil
}

// PopularBooks returns up to limit books by rating count, most rated first.
// Ties are ordered by title so the listing is stable.
func (db *DB) PopularBooks(ctx context.Context, limit int) ([]Book, error) {
	return db.listBooks(ctx, "popular", query.NewWhereBuilder(), limit)
}

// SearchBooks returns up to limit books whose title contains term,
// case-insensitively, most rated first.
func (db *DB) SearchBooks(ctx context.Context, term string, limit int) ([]Book, error) {
	return db.listBooks(ctx, "search", query.NewWhereBuilder().AddTitleContains(term), limit)
}

func (db *DB) listBooks(ctx context.Context, op string, wb *query.WhereBuilder, limit int) (books []Book, err error) {
	if limit < 1 {
		return nil, fmt.Errorf("limit must be >= 1, got %d", limit)
	}
	start := time.Now()
	defer func() { metrics.RecordDBQuery(op, "books", time.Since(start), err) }()

	where, args := wb.BuildWithPrefix()
	q := fmt.Sprintf("SELECT %s FROM books %s ORDER BY rating_count DESC, title ASC LIMIT ?", bookColumns, where)
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s books: %w", op, err)
	}
	defer func() { _ = rows.Close() }() //nolint:errcheck // read-only query

	books = make([]Book, 0, limit)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s books: %w", op, err)
	}
	return books, nil
}

// BookDetail returns the catalog row for title.
func (db *DB) BookDetail(ctx context.Context, title string) (book *Book, err error) {
	start := time.Now()
	defer func() {
		qerr := err
		if errors.Is(err, ErrBookNotFound) {
			qerr = nil
		}
		metrics.RecordDBQuery("detail", "books", time.Since(start), qerr)
	}()

	row := db.conn.QueryRowContext(ctx, "SELECT "+bookColumns+" FROM books WHERE title = ?", title)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrBookNotFound, title)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// MeanRatings returns the mean rating of each title that is in the catalog.
// Unknown titles are absent from the result.
func (db *DB) MeanRatings(ctx context.Context, titles []string) (out map[string]float64, err error) {
	out = make(map[string]float64, len(titles))
	if len(titles) == 0 {
		return out, nil
	}
	start := time.Now()
	defer func() { metrics.RecordDBQuery("mean_ratings", "books", time.Since(start), err) }()

	where, args := query.NewWhereBuilder().AddTitles(titles).BuildWithPrefix()
	rows, err := db.conn.QueryContext(ctx, "SELECT title, mean_rating FROM books "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query mean ratings: %w", err)
	}
	defer func() { _ = rows.Close() }() //nolint:errcheck // read-only query

	for rows.Next() {
		var title string
		var mean float64
		if err = rows.Scan(&title, &mean); err != nil {
			return nil, fmt.Errorf("scan mean rating: %w", err)
		}
		out[title] = mean
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mean ratings: %w", err)
	}
	return out, nil
}

// Count returns the number of catalog rows.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM books").Scan(&n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(s scanner) (Book, error) {
	var b Book
	var author, year, publisher, image sql.NullString
	err := s.Scan(&b.Title, &b.ISBN, &author, &year, &publisher, &image, &b.RatingCount, &b.MeanRating)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return b, err
		}
		return b, fmt.Errorf("scan book: %w", err)
	}
	b.Author = author.String
	b.Year = year.String
	b.Publisher = publisher.String
	b.ImageURL = image.String
	return b, nil
}
