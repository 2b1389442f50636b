// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package database

import (
	"context"
	"fmt"
	"time"
)

const booksTableDDL = `CREATE TABLE IF NOT EXISTS books (
	title        VARCHAR PRIMARY KEY,
	isbn         VARCHAR NOT NULL,
	author       VARCHAR,
	year         VARCHAR,
	publisher    VARCHAR,
	image_url    VARCHAR,
	rating_count INTEGER NOT NULL,
	mean_rating  DOUBLE NOT NULL
)`

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// createTables creates the catalog tables. Both are rebuilt on every
// model swap, so there are no migrations.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		booksTableDDL,
		`CREATE TABLE IF NOT EXISTS catalog_meta (
			id        INTEGER PRIMARY KEY,
			version   INTEGER NOT NULL,
			loaded_at TIMESTAMP NOT NULL
		)`,
	}

	for _, q := range queries {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}
