package loader

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lepinkainen/bookworm/internal/catalog"
	"github.com/lepinkainen/bookworm/internal/errors"
)

const dateLayout = "2006-01-02"

// AuthorEnricher supplies profile data for newly seen authors.
type AuthorEnricher interface {
	FetchAuthor(ctx context.Context, name string) catalog.AuthorProfile
}

// EditionEnricher supplies edition data by ISBN-13.
type EditionEnricher interface {
	FetchEdition(ctx context.Context, isbn13 string) (*catalog.EditionData, bool)
}

// Result summarizes one Load call.
type Result struct {
	Books          int
	AuthorsCreated int
	AuthorsReused  int
	GenresCreated  int
	GenresReused   int
	BookAuthors    int
	BookGenres     int
	Editions       int
	EditionsFailed int
}

// Loader upserts batches of books with their authors, genres and editions.
type Loader struct {
	store    *Store
	authors  AuthorEnricher
	editions EditionEnricher
}

// Option configures a Loader.
type Option func(*Loader)

// WithAuthorEnricher enables profile lookups for authors not yet stored.
func WithAuthorEnricher(e AuthorEnricher) Option {
	return func(l *Loader) {
		l.authors = e
	}
}

// WithEditionEnricher enables the edition step.
func WithEditionEnricher(e EditionEnricher) Option {
	return func(l *Loader) {
		l.editions = e
	}
}

// New creates a Loader writing to store.
func New(store *Store, opts ...Option) *Loader {
	l := &Loader{store: store}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// batch holds the state of one Load transaction.
type batch struct {
	*Loader
	tx        *sql.Tx
	authorIDs map[string]int64
	genreIDs  map[string]int64
	result    Result
}

// Load writes books in a single transaction.
//
// Loading the same book twice resolves to the existing row. Failures in the
// edition step are rolled back to a savepoint and logged; any other failure
// rolls back the whole batch and is returned as a *errors.BatchError.
func (l *Loader) Load(ctx context.Context, books []catalog.Book) (Result, error) {
	if len(books) == 0 {
		return Result{}, nil
	}

	tx, err := l.store.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, errors.NewBatchError("", fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() {
		// Rollback if we don't commit - ignore errors as they're expected if transaction was committed
		_ = tx.Rollback()
	}()

	b := &batch{
		Loader:    l,
		tx:        tx,
		authorIDs: make(map[string]int64),
		genreIDs:  make(map[string]int64),
	}

	for _, book := range books {
		if err := b.loadBook(ctx, book); err != nil {
			slog.Error("Rolling back batch", "title", book.Title, "google_books_id", book.GoogleBooksID, "error", err)
			return Result{}, errors.NewBatchError(book.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Result{}, errors.NewBatchError("", fmt.Errorf("failed to commit transaction: %w", err))
	}

	slog.Info("Loaded books",
		"books", b.result.Books,
		"authors_created", b.result.AuthorsCreated,
		"genres_created", b.result.GenresCreated,
		"editions", b.result.Editions,
	)
	return b.result, nil
}

func (b *batch) loadBook(ctx context.Context, book catalog.Book) error {
	if book.GoogleBooksID == "" || book.Title == "" {
		return fmt.Errorf("book is missing its id or title")
	}

	bookID, err := b.upsertBook(ctx, book)
	if err != nil {
		return err
	}
	b.result.Books++

	for _, name := range book.Authors {
		authorID, err := b.authorID(ctx, name)
		if err != nil {
			return err
		}
		n, err := b.exec(ctx, `INSERT INTO book_authors (book_id, author_id) VALUES (?, ?) ON CONFLICT DO NOTHING`, bookID, authorID)
		if err != nil {
			return fmt.Errorf("failed to link author %q: %w", name, err)
		}
		b.result.BookAuthors += int(n)
	}

	for _, name := range book.Genres {
		genreID, err := b.genreID(ctx, name)
		if err != nil {
			return err
		}
		n, err := b.exec(ctx, `INSERT INTO book_genres (book_id, genre_id) VALUES (?, ?) ON CONFLICT DO NOTHING`, bookID, genreID)
		if err != nil {
			return fmt.Errorf("failed to link genre %q: %w", name, err)
		}
		b.result.BookGenres += int(n)
	}

	if b.editions != nil {
		b.editionStep(ctx, bookID, book)
	}
	return nil
}

func (b *batch) upsertBook(ctx context.Context, book catalog.Book) (int64, error) {
	var id int64
	err := b.queryRow(ctx, `
		INSERT INTO books (title, description, language, google_books_id, average_rating, ratings_count, isbn_13, published_date, page_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (google_books_id) DO UPDATE SET google_books_id = excluded.google_books_id
		RETURNING book_id`,
		book.Title,
		book.Description,
		book.Language,
		book.GoogleBooksID,
		book.AverageRating,
		book.RatingsCount,
		book.ISBN13,
		dateArg(book.PublishedDate),
		book.PageCount,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert book: %w", err)
	}
	return id, nil
}

// authorID resolves name to a key: run cache first, then the store, then a
// new row enriched with the author's profile when enrichment is enabled.
func (b *batch) authorID(ctx context.Context, name string) (int64, error) {
	if id, ok := b.authorIDs[name]; ok {
		b.result.AuthorsReused++
		return id, nil
	}

	id, found, err := b.lookupID(ctx, `SELECT author_id FROM authors WHERE name = ?`, name)
	if err != nil {
		return 0, fmt.Errorf("failed to look up author %q: %w", name, err)
	}
	if found {
		b.authorIDs[name] = id
		b.result.AuthorsReused++
		return id, nil
	}

	profile := catalog.AuthorProfile{Name: name}
	if b.authors != nil {
		profile = b.authors.FetchAuthor(ctx, name)
	}

	err = b.queryRow(ctx, `
		INSERT INTO authors (name, date_of_birth, biography) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET name = excluded.name
		RETURNING author_id`,
		name, dateArg(profile.BirthDate), profile.Biography,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert author %q: %w", name, err)
	}

	b.authorIDs[name] = id
	b.result.AuthorsCreated++
	return id, nil
}

func (b *batch) genreID(ctx context.Context, name string) (int64, error) {
	if id, ok := b.genreIDs[name]; ok {
		b.result.GenresReused++
		return id, nil
	}

	id, found, err := b.lookupID(ctx, `SELECT genre_id FROM genres WHERE name = ?`, name)
	if err != nil {
		return 0, fmt.Errorf("failed to look up genre %q: %w", name, err)
	}
	if found {
		b.genreIDs[name] = id
		b.result.GenresReused++
		return id, nil
	}

	err = b.queryRow(ctx, `
		INSERT INTO genres (name) VALUES (?)
		ON CONFLICT (name) DO UPDATE SET name = excluded.name
		RETURNING genre_id`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert genre %q: %w", name, err)
	}

	b.genreIDs[name] = id
	b.result.GenresCreated++
	return id, nil
}

// editionStep runs inside a savepoint so a failure only discards its own writes.
func (b *batch) editionStep(ctx context.Context, bookID int64, book catalog.Book) {
	if _, err := b.tx.ExecContext(ctx, "SAVEPOINT edition_step"); err != nil {
		slog.Warn("Skipping edition step", "title", book.Title, "error", err)
		b.result.EditionsFailed++
		return
	}

	inserted, err := b.writeEdition(ctx, bookID, book)
	if err != nil {
		slog.Warn("Edition step failed", "title", book.Title, "error", err)
		b.result.EditionsFailed++
		if _, rbErr := b.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT edition_step"); rbErr != nil {
			slog.Error("Failed to roll back edition step", "title", book.Title, "error", rbErr)
		}
	} else {
		b.result.Editions += inserted
	}

	if _, err := b.tx.ExecContext(ctx, "RELEASE SAVEPOINT edition_step"); err != nil {
		slog.Error("Failed to release edition savepoint", "title", book.Title, "error", err)
	}
}

func (b *batch) writeEdition(ctx context.Context, bookID int64, book catalog.Book) (int, error) {
	isbn := ""
	if book.ISBN13 != nil {
		isbn = *book.ISBN13
	}

	if edition, ok := b.editions.FetchEdition(ctx, isbn); ok {
		if _, err := b.exec(ctx, `UPDATE books SET open_library_id = ? WHERE book_id = ?`, edition.OpenLibraryID, bookID); err != nil {
			return 0, fmt.Errorf("failed to backfill open_library_id: %w", err)
		}

		published := edition.PublishedDate
		if published == nil {
			published = book.PublishedDate
		}
		pages := edition.PageCount
		if pages == nil {
			pages = book.PageCount
		}

		n, err := b.exec(ctx, `
			INSERT INTO editions (book_id, open_library_id, isbn_13, published_date, page_count)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (open_library_id) DO NOTHING`,
			bookID, edition.OpenLibraryID, book.ISBN13, dateArg(published), pages,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert edition %s: %w", edition.OpenLibraryID, err)
		}
		return int(n), nil
	}

	// At most one bare edition per book
	var exists int
	err := b.queryRow(ctx, `SELECT 1 FROM editions WHERE book_id = ? AND open_library_id IS NULL LIMIT 1`, bookID).Scan(&exists)
	if err == nil {
		return 0, nil
	}
	if !stdErrors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to check bare edition: %w", err)
	}

	if _, err := b.exec(ctx, `
		INSERT INTO editions (book_id, isbn_13, published_date, page_count) VALUES (?, ?, ?, ?)`,
		bookID, book.ISBN13, dateArg(book.PublishedDate), book.PageCount,
	); err != nil {
		return 0, fmt.Errorf("failed to insert bare edition: %w", err)
	}
	return 1, nil
}

func (b *batch) lookupID(ctx context.Context, query string, args ...any) (int64, bool, error) {
	var id int64
	err := b.queryRow(ctx, query, args...).Scan(&id)
	if stdErrors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (b *batch) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return b.tx.QueryRowContext(ctx, b.store.Rebind(query), args...)
}

func (b *batch) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := b.tx.ExecContext(ctx, b.store.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// dateArg binds a date as YYYY-MM-DD, which both SQLite TEXT and
// PostgreSQL DATE columns accept.
func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(dateLayout)
}
