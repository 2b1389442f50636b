// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package dataset reads the Book-Crossing (BX) dump: books, users and
// ratings, each a delimited text file with a header row.
//
// Header names are normalized before lookup ("Book-Title" becomes
// "book_title"), so column order in the files does not matter. Rows that
// cannot be parsed are skipped and counted; they never fail a load.
package dataset

// Book is one row of BX-Books.
type Book struct {
	ISBN      string `json:"isbn"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Year      string `json:"year"`
	Publisher string `json:"publisher"`
	ImageURL  string `json:"image_url,omitempty"`
}

// User is one row of BX-Users. Age is 0 when the dump has NULL.
type User struct {
	ID       int64  `json:"id"`
	Location string `json:"location"`
	Age      int    `json:"age,omitempty"`
}

// Rating is one row of BX-Book-Ratings. Value 0 is an implicit rating in
// the BX dump and is kept as-is.
type Rating struct {
	UserID int64  `json:"user_id"`
	ISBN   string `json:"isbn"`
	Value  int    `json:"value"`
}

// FileStats records what happened while reading one file.
type FileStats struct {
	Name    string `json:"name"`
	Rows    int    `json:"rows"`
	Skipped int    `json:"skipped"`
}

// Dataset is the fully loaded dump.
type Dataset struct {
	Books   []Book
	Users   []User
	Ratings []Rating

	BooksStats   FileStats
	UsersStats   FileStats
	RatingsStats FileStats
}
