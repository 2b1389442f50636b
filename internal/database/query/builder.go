// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package query builds parameterized WHERE clauses for the catalog queries.
package query

import (
	"fmt"
	"strings"
)

// WhereBuilder constructs SQL WHERE clauses with parameterized arguments.
//
//	wb := query.NewWhereBuilder()
//	wb.AddTitles([]string{"Dune", "Emma"})
//	wb.AddMinRatings(50)
//	whereClause, args := wb.Build()
//	// title IN (?, ?) AND rating_count >= ?
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: []string{},
		args:    []interface{}{},
	}
}

// AddClause adds a raw condition with its arguments.
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddIn adds "column IN (?, ...)". An empty value list is skipped.
func (wb *WhereBuilder) AddIn(column string, values []string) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		wb.args = append(wb.args, v)
	}
	wb.clauses = append(wb.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
	return wb
}

// AddTitles filters to the given exact titles.
func (wb *WhereBuilder) AddTitles(titles []string) *WhereBuilder {
	return wb.AddIn("title", titles)
}

// AddTitleContains adds a case-insensitive substring match on title.
// LIKE wildcards in term are escaped so they match literally.
func (wb *WhereBuilder) AddTitleContains(term string) *WhereBuilder {
	term = strings.TrimSpace(term)
	if term == "" {
		return wb
	}
	return wb.AddClause(`title ILIKE ? ESCAPE '\'`, "%"+EscapeLike(term)+"%")
}

// AddMinRatings keeps titles with at least n ratings. n <= 0 is skipped.
func (wb *WhereBuilder) AddMinRatings(n int) *WhereBuilder {
	if n <= 0 {
		return wb
	}
	return wb.AddClause("rating_count >= ?", n)
}

// Build joins the clauses with AND. An empty builder yields "1=1".
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix returns the clause with a "WHERE " prefix.
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	whereClause, args := wb.Build()
	return "WHERE " + whereClause, args
}

// Count returns the number of clauses added.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty reports whether no clauses have been added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE metacharacters with a backslash.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
