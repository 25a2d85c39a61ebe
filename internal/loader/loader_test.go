package loader

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lepinkainen/bookworm/internal/catalog"
	"github.com/lepinkainen/bookworm/internal/errors"
	"github.com/lepinkainen/bookworm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	env := testutil.NewTestEnv(t)

	store, err := Open(context.Background(), testutil.SQLitePath(env, "books"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

func dune() catalog.Book {
	return catalog.Book{
		GoogleBooksID: "abc",
		Title:         "Dune",
		Description:   ptr("Desert planet."),
		Language:      ptr("en"),
		AverageRating: ptr(4.5),
		RatingsCount:  ptr(120),
		ISBN13:        ptr("9780441013593"),
		PublishedDate: date(1965, time.August, 1),
		PageCount:     ptr(412),
		Authors:       []string{"Frank Herbert"},
		Genres:        []string{"Science Fiction"},
	}
}

func count(t *testing.T, store *Store, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, store.DB().QueryRow(query, args...).Scan(&n))
	return n
}

type fakeAuthors struct {
	calls    []string
	profiles map[string]catalog.AuthorProfile
}

func (f *fakeAuthors) FetchAuthor(_ context.Context, name string) catalog.AuthorProfile {
	f.calls = append(f.calls, name)
	if p, ok := f.profiles[name]; ok {
		return p
	}
	return catalog.AuthorProfile{Name: name}
}

type fakeEditions map[string]catalog.EditionData

func (f fakeEditions) FetchEdition(_ context.Context, isbn string) (*catalog.EditionData, bool) {
	e, ok := f[isbn]
	if !ok {
		return nil, false
	}
	return &e, true
}

func TestLoad_SingleBook(t *testing.T) {
	store := newTestStore(t)

	res, err := New(store).Load(context.Background(), []catalog.Book{dune()})
	require.NoError(t, err)
	assert.Equal(t, Result{Books: 1, AuthorsCreated: 1, GenresCreated: 1, BookAuthors: 1, BookGenres: 1}, res)

	var (
		title, language, published string
		rating                    float64
		pages                     int
	)
	require.NoError(t, store.DB().QueryRow(
		`SELECT title, language, average_rating, published_date, page_count FROM books WHERE google_books_id = 'abc'`,
	).Scan(&title, &language, &rating, &published, &pages))
	assert.Equal(t, "Dune", title)
	assert.Equal(t, "en", language)
	assert.InDelta(t, 4.5, rating, 0.0001)
	assert.Equal(t, "1965-08-01", published)
	assert.Equal(t, 412, pages)
}

func TestLoad_NullableFields(t *testing.T) {
	store := newTestStore(t)

	book := catalog.Book{GoogleBooksID: "bare", Title: "Bare", Authors: []string{"Anon"}}
	_, err := New(store).Load(context.Background(), []catalog.Book{book})
	require.NoError(t, err)

	var rating sql.NullFloat64
	var published sql.NullString
	require.NoError(t, store.DB().QueryRow(`SELECT average_rating, published_date FROM books WHERE google_books_id = 'bare'`).Scan(&rating, &published))
	assert.False(t, rating.Valid)
	assert.False(t, published.Valid)
}

func TestLoad_DuplicateIDIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	l := New(store)

	_, err := l.Load(context.Background(), []catalog.Book{dune(), dune()})
	require.NoError(t, err)
	_, err = l.Load(context.Background(), []catalog.Book{dune()})
	require.NoError(t, err)

	assert.Equal(t, 1, count(t, store, `SELECT COUNT(*) FROM books`))
	assert.Equal(t, 1, count(t, store, `SELECT COUNT(*) FROM authors`))
	assert.Equal(t, 1, count(t, store, `SELECT COUNT(*) FROM book_authors`))
	assert.Equal(t, 1, count(t, store, `SELECT COUNT(*) FROM book_genres`))
}

func TestLoad_SharedAuthor(t *testing.T) {
	store := newTestStore(t)
	authors := &fakeAuthors{profiles: map[string]catalog.AuthorProfile{
		"Frank Herbert": {Name: "Frank Herbert", BirthDate: date(1920, time.October, 8), Biography: ptr("Wrote Dune.")},
	}}

	messiah := dune()
	messiah.GoogleBooksID = "def"
	messiah.Title = "Dune Messiah"

	res, err := New(store, WithAuthorEnricher(authors)).Load(context.Background(), []catalog.Book{dune(), messiah})
	require.NoError(t, err)

	assert.Equal(t, 1, res.AuthorsCreated)
	assert.Equal(t, 1, res.AuthorsReused)
	assert.Equal(t, []string{"Frank Herbert"}, authors.calls, "enrichment runs once per new author")

	assert.Equal(t, 1, count(t, store, `SELECT COUNT(*) FROM authors`))
	assert.Equal(t, 2, count(t, store, `SELECT COUNT(*) FROM book_authors`))

	var born, bio string
	require.NoError(t, store.DB().QueryRow(`SELECT date_of_birth, biography FROM authors WHERE name = 'Frank Herbert'`).Scan(&born, &bio))
	assert.Equal(t, "1920-10-08", born)
	assert.Equal(t, "Wrote Dune.", bio)
}

func TestLoad_ExistingAuthorNotEnrichedAgain(t *testing.T) {
	store := newTestStore(t)
	authors := &fakeAuthors{}
	l := New(store, WithAuthorEnricher(authors))

	_, err := l.Load(context.Background(), []catalog.Book{dune()})
	require.NoError(t, err)

	other := dune()
	other.GoogleBooksID = "xyz"
	res, err := l.Load(context.Background(), []catalog.Book{other})
	require.NoError(t, err)

	assert.Equal(t, 0, res.AuthorsCreated)
	assert.Equal(t, 1, res.AuthorsReused)
	assert.Len(t, authors.calls, 1)
}

func TestLoad_RollsBackWholeBatch(t *testing.T) {
	store := newTestStore(t)

	broken := dune()
	broken.GoogleBooksID = "broken"
	broken.Title = "Out Of Range"
	broken.AverageRating = ptr(7.0) // rejected by the CHECK constraint

	_, err := New(store).Load(context.Background(), []catalog.Book{dune(), broken})
	require.Error(t, err)
	assert.True(t, errors.IsBatchError(err))

	var batchErr *errors.BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, "Out Of Range", batchErr.Title)

	assert.Equal(t, 0, count(t, store, `SELECT COUNT(*) FROM books`))
	assert.Equal(t, 0, count(t, store, `SELECT COUNT(*) FROM authors`))
}

func TestLoad_MissingTitleFailsBatch(t *testing.T) {
	store := newTestStore(t)

	_, err := New(store).Load(context.Background(), []catalog.Book{{GoogleBooksID: "x"}})
	assert.True(t, errors.IsBatchError(err))
}

func TestLoad_EditionBackfill(t *testing.T) {
	store := newTestStore(t)
	editions := fakeEditions{"9780441013593": {OpenLibraryID: "OL7353617M", PageCount: ptr(528)}}
	l := New(store, WithEditionEnricher(editions))

	res, err := l.Load(context.Background(), []catalog.Book{dune()})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Editions)

	var olid string
	require.NoError(t, store.DB().QueryRow(`SELECT open_library_id FROM books WHERE google_books_id = 'abc'`).Scan(&olid))
	assert.Equal(t, "OL7353617M", olid)

	var pages int
	var published string
	require.NoError(t, store.DB().QueryRow(`SELECT page_count, published_date FROM editions WHERE open_library_id = 'OL7353617M'`).Scan(&pages, &published))
	assert.Equal(t, 528, pages)
	assert.Equal(t, "1965-08-01", published, "missing edition date falls back to the book's")

	_, err = l.Load(context.Background(), []catalog.Book{dune()})
	require.NoError(t, err)
	assert.Equal(t, 1, count(t, store, `SELECT COUNT(*) FROM editions`))
}

func TestLoad_BareEditionOncePerBook(t *testing.T) {
	store := newTestStore(t)
	l := New(store, WithEditionEnricher(fakeEditions{}))

	for range 2 {
		_, err := l.Load(context.Background(), []catalog.Book{dune()})
		require.NoError(t, err)
	}

	assert.Equal(t, 1, count(t, store, `SELECT COUNT(*) FROM editions WHERE open_library_id IS NULL`))
	assert.Equal(t, 0, count(t, store, `SELECT COUNT(*) FROM books WHERE open_library_id IS NOT NULL`))
}

func TestLoad_EditionFailureIsContained(t *testing.T) {
	store := newTestStore(t)
	_, err := store.DB().Exec(`
		CREATE TRIGGER reject_edition BEFORE INSERT ON editions
		WHEN NEW.open_library_id = 'OLBAD'
		BEGIN SELECT RAISE(ABORT, 'edition rejected'); END`)
	require.NoError(t, err)

	second := dune()
	second.GoogleBooksID = "def"
	second.Title = "Children of Dune"
	second.ISBN13 = ptr("9780441104024")

	editions := fakeEditions{
		"9780441013593": {OpenLibraryID: "OLBAD"},
		"9780441104024": {OpenLibraryID: "OL1M"},
	}

	res, err := New(store, WithEditionEnricher(editions)).Load(context.Background(), []catalog.Book{dune(), second})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Books)
	assert.Equal(t, 1, res.Editions)
	assert.Equal(t, 1, res.EditionsFailed)

	var olid sql.NullString
	require.NoError(t, store.DB().QueryRow(`SELECT open_library_id FROM books WHERE google_books_id = 'abc'`).Scan(&olid))
	assert.False(t, olid.Valid, "backfill is undone with the failed edition insert")

	assert.Equal(t, 2, count(t, store, `SELECT COUNT(*) FROM books`))
	assert.Equal(t, 1, count(t, store, `SELECT COUNT(*) FROM editions WHERE open_library_id = 'OL1M'`))
}

func TestLoad_Empty(t *testing.T) {
	store := newTestStore(t)
	res, err := New(store).Load(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}
