// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package dataset

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tomtom215/bookshelf/internal/config"
)

const booksCSV = `"ISBN";"Book-Title";"Book-Author";"Year-Of-Publication";"Publisher";"Image-URL-S";"Image-URL-M";"Image-URL-L"
"0195153448";"Classical Mythology";"Mark P. O. Morford";"2002";"Oxford University Press";"s";"m";"http://img/l1.jpg"
"0002005018";"Clara Callan";"Richard Bruce Wright";"2001";"HarperFlamingo Canada";"s";"m";"http://img/l2.jpg"
"broken";"row";"with";"too";"few"
"0060973129";"Decision in Normandy";"Carlo D'Este";"1991";"HarperPerennial";"s";"m";""
`

const ratingsCSV = `"User-ID";"ISBN";"Book-Rating"
"276725";"034545104X";"0"
"276726";"0155061224";"5"
"not-a-number";"0446520802";"3"
"276727";"0446520802";"x"
"276729";"052165615X";"3"
`

const usersCSV = `"User-ID";"Location";"Age"
"1";"nyc, new york, usa";NULL
"2";"stockton, california, usa";"18"
"oops";"nowhere";"3"
`

func TestNormalizeColumn(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Book-Title", "book_title"},
		{"Year-Of-Publication", "year_of_publication"},
		{" User-ID ", "user_id"},
		{"Image URL L", "image_url_l"},
		{"\ufeffISBN", "isbn"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeColumn(tt.in); got != tt.want {
				t.Errorf("NormalizeColumn(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestReadBooks(t *testing.T) {
	books, stats, err := ReadBooks(context.Background(), strings.NewReader(booksCSV), DefaultOptions())
	if err != nil {
		t.Fatalf("ReadBooks() error = %v", err)
	}
	if len(books) != 3 {
		t.Fatalf("len(books) = %d, want 3", len(books))
	}
	if stats.Rows != 4 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, want 4 rows and 1 skipped", stats)
	}
	if books[0].Title != "Classical Mythology" || books[0].ImageURL != "http://img/l1.jpg" {
		t.Errorf("books[0] = %+v", books[0])
	}
	if books[2].ImageURL != "" {
		t.Errorf("books[2].ImageURL = %q, want empty", books[2].ImageURL)
	}
}

func TestReadBooks_Latin1(t *testing.T) {
	// 0xE9 is 'é' in ISO-8859-1 and an invalid byte in UTF-8.
	raw := []byte("ISBN;Book-Title;Book-Author;Year-Of-Publication;Publisher\n1;Caf\xe9;A;2000;P\n")

	books, _, err := ReadBooks(context.Background(), bytes.NewReader(raw), DefaultOptions())
	if err != nil {
		t.Fatalf("ReadBooks() error = %v", err)
	}
	if len(books) != 1 || books[0].Title != "Café" {
		t.Errorf("books = %+v, want decoded title Café", books)
	}
}

func TestReadBooks_TitleWhitespaceKept(t *testing.T) {
	raw := "ISBN;Book-Title;Book-Author;Year-Of-Publication;Publisher\n" +
		"1;Dune;A;1965;P\n" +
		"2;Dune ;A;1965;P\n" +
		"3;   ;A;1965;P\n"

	books, stats, err := ReadBooks(context.Background(), strings.NewReader(raw), DefaultOptions())
	if err != nil {
		t.Fatalf("ReadBooks() error = %v", err)
	}
	if stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1 (blank title)", stats.Skipped)
	}
	if len(books) != 2 || books[0].Title != "Dune" || books[1].Title != "Dune " {
		t.Errorf("titles = %+v, want distinct %q and %q", books, "Dune", "Dune ")
	}
}

func TestReadRatings_SkipsMalformed(t *testing.T) {
	ratings, stats, err := ReadRatings(context.Background(), strings.NewReader(ratingsCSV), DefaultOptions())
	if err != nil {
		t.Fatalf("ReadRatings() error = %v", err)
	}
	if len(ratings) != 3 {
		t.Fatalf("len(ratings) = %d, want 3", len(ratings))
	}
	if stats.Skipped != 2 {
		t.Errorf("stats.Skipped = %d, want 2", stats.Skipped)
	}
	want := Rating{UserID: 276726, ISBN: "0155061224", Value: 5}
	if ratings[1] != want {
		t.Errorf("ratings[1] = %+v, want %+v", ratings[1], want)
	}
}

func TestReadUsers_NullAge(t *testing.T) {
	users, stats, err := ReadUsers(context.Background(), strings.NewReader(usersCSV), DefaultOptions())
	if err != nil {
		t.Fatalf("ReadUsers() error = %v", err)
	}
	if len(users) != 2 || stats.Skipped != 1 {
		t.Fatalf("users = %+v stats = %+v", users, stats)
	}
	if users[0].Age != 0 {
		t.Errorf("users[0].Age = %d, want 0 for NULL", users[0].Age)
	}
	if users[1].Age != 18 {
		t.Errorf("users[1].Age = %d, want 18", users[1].Age)
	}
}

func TestReadRatings_MissingColumn(t *testing.T) {
	_, _, err := ReadRatings(context.Background(), strings.NewReader("User-ID;ISBN\n1;2\n"), DefaultOptions())
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("ReadRatings() error = %v, want ErrMissingColumn", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", name, err)
		}
		return p
	}

	cfg := &config.DatasetConfig{
		BooksPath:   write("books.csv", booksCSV),
		UsersPath:   write("users.csv", usersCSV),
		RatingsPath: write("ratings.csv", ratingsCSV),
		Delimiter:   ";",
		Encoding:    "latin1",
	}

	ds, err := Load(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(ds.Books) != 3 || len(ds.Users) != 2 || len(ds.Ratings) != 3 {
		t.Errorf("Load() counts = %d/%d/%d, want 3/2/3", len(ds.Books), len(ds.Users), len(ds.Ratings))
	}
	if ds.RatingsStats.Skipped != 2 {
		t.Errorf("RatingsStats.Skipped = %d, want 2", ds.RatingsStats.Skipped)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg := &config.DatasetConfig{
		BooksPath:   filepath.Join(t.TempDir(), "nope.csv"),
		UsersPath:   filepath.Join(t.TempDir(), "nope.csv"),
		RatingsPath: filepath.Join(t.TempDir(), "nope.csv"),
		Delimiter:   ";",
	}
	if _, err := Load(context.Background(), cfg); err == nil {
		t.Error("Load() error = nil, want open failure")
	}
}
