// Package catalog holds the normalized book records that flow from the
// fetchers through the harvester into the relational loader.
package catalog

import "time"

// Book is one normalized volume ready to be loaded.
// Pointer fields distinguish "not set" from zero values.
type Book struct {
	// GoogleBooksID is the external catalog identifier and the idempotency key.
	GoogleBooksID string

	Title         string
	Description   *string
	Language      *string
	AverageRating *float64
	RatingsCount  *int
	ISBN13        *string
	PublishedDate *time.Time
	PageCount     *int

	Authors []string
	Genres  []string
}

// AuthorProfile is the best-effort author record assembled from OpenLibrary.
type AuthorProfile struct {
	Name      string
	BirthDate *time.Time
	Biography *string
}

// EditionData is the edition record looked up from OpenLibrary by ISBN-13.
type EditionData struct {
	// OpenLibraryID is the secondary bibliographic identifier, e.g. "OL7353617M".
	OpenLibraryID string
	PublishedDate *time.Time
	PageCount     *int
}
