package migrate

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/lepinkainen/bookworm/internal/catalog"
	"github.com/lepinkainen/bookworm/internal/datastore"
	"github.com/lepinkainen/bookworm/internal/loader"
	"github.com/lepinkainen/bookworm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	batches  map[string][][]datastore.Document
	indexed  bool
	failOn   string
	inserted int
}

func newRecordingSink() *recordingSink {
	return &recordingSink{batches: map[string][][]datastore.Document{}}
}

func (s *recordingSink) Connect(context.Context) error { return nil }
func (s *recordingSink) Close(context.Context) error   { return nil }

func (s *recordingSink) InsertDocuments(_ context.Context, collection string, docs []datastore.Document) error {
	if collection == s.failOn {
		return stdErrors.New("sink unavailable")
	}
	s.batches[collection] = append(s.batches[collection], docs)
	s.inserted += len(docs)
	return nil
}

func (s *recordingSink) EnsureIndexes(context.Context) error {
	s.indexed = true
	return nil
}

func (s *recordingSink) docs(collection string) []datastore.Document {
	var out []datastore.Document
	for _, b := range s.batches[collection] {
		out = append(out, b...)
	}
	return out
}

type countingObserver map[string]int

func (o countingObserver) DocumentsMigrated(collection string, n int) { o[collection] += n }

func ptr[T any](v T) *T { return &v }

func seededStore(t *testing.T, books ...catalog.Book) *loader.Store {
	t.Helper()
	env := testutil.NewTestEnv(t)

	store, err := loader.Open(context.Background(), testutil.SQLitePath(env, "relational"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.EnsureSchema(context.Background()))

	if len(books) > 0 {
		_, err = loader.New(store).Load(context.Background(), books)
		require.NoError(t, err)
	}
	return store
}

func TestRun_DenormalizesBooks(t *testing.T) {
	published := time.Date(1965, time.August, 1, 0, 0, 0, 0, time.UTC)
	store := seededStore(t, catalog.Book{
		GoogleBooksID: "abc",
		Title:         "Dune",
		Language:      ptr("en"),
		AverageRating: ptr(4.5),
		RatingsCount:  ptr(120),
		PublishedDate: &published,
		Authors:       []string{"Frank Herbert", "Brian Herbert"},
		Genres:        []string{"Science Fiction"},
	})
	sink := newRecordingSink()
	obs := countingObserver{}

	summary, err := New(store, sink, 0, obs).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Genres: 1, Authors: 2, Books: 1, Batches: 3}, summary)
	assert.True(t, sink.indexed)
	assert.Equal(t, countingObserver{"genres": 1, "authors": 2, "books": 1}, obs)

	books := sink.docs(datastore.BooksCollection)
	require.Len(t, books, 1)
	book := books[0]
	assert.Equal(t, int64(1), book["_id"])
	assert.Equal(t, "Dune", book["title"])
	assert.Equal(t, 4.5, book["average_rating"])
	assert.Equal(t, "1965-08-01", book["published_date"])
	assert.Nil(t, book["description"])
	assert.Nil(t, book["open_library_id"])

	authors := book["authors"].([]map[string]any)
	require.Len(t, authors, 2)
	names := []any{authors[0]["name"], authors[1]["name"]}
	assert.ElementsMatch(t, []any{"Frank Herbert", "Brian Herbert"}, names)

	genres := book["genres"].([]map[string]any)
	require.Len(t, genres, 1)
	assert.Equal(t, map[string]any{"id": int64(1), "name": "Science Fiction"}, genres[0])
}

func TestRun_ReusesSurrogateKeys(t *testing.T) {
	store := seededStore(t,
		catalog.Book{GoogleBooksID: "a", Title: "First", Authors: []string{"Ann"}, Genres: []string{"Poetry"}},
		catalog.Book{GoogleBooksID: "b", Title: "Second", Authors: []string{"Bob", "Ann"}},
	)
	sink := newRecordingSink()

	_, err := New(store, sink, 10, nil).Run(context.Background())
	require.NoError(t, err)

	authors := sink.docs(datastore.AuthorsCollection)
	require.Len(t, authors, 2)
	assert.Equal(t, datastore.Document{"_id": int64(1), "name": "Ann"}, authors[0])
	assert.Equal(t, datastore.Document{"_id": int64(2), "name": "Bob"}, authors[1])

	second := sink.docs(datastore.BooksCollection)[1]
	ids := []any{}
	for _, a := range second["authors"].([]map[string]any) {
		ids = append(ids, a["id"])
	}
	assert.ElementsMatch(t, []any{int64(1), int64(2)}, ids)
}

func TestRun_EmptyRelationsBecomeEmptyArrays(t *testing.T) {
	store := seededStore(t)
	_, err := store.DB().Exec(`INSERT INTO books (title, google_books_id) VALUES ('Orphan', 'orphan')`)
	require.NoError(t, err)
	sink := newRecordingSink()

	_, err = New(store, sink, 0, nil).Run(context.Background())
	require.NoError(t, err)

	book := sink.docs(datastore.BooksCollection)[0]
	require.NotNil(t, book["authors"])
	require.NotNil(t, book["genres"])
	assert.Empty(t, book["authors"])
	assert.Empty(t, book["genres"])

	data, err := json.Marshal(book)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"authors":[]`)
	assert.Contains(t, string(data), `"genres":[]`)
}

func TestRun_FlushesInBatches(t *testing.T) {
	var books []catalog.Book
	for i := range 5 {
		books = append(books, catalog.Book{
			GoogleBooksID: fmt.Sprintf("id-%d", i),
			Title:         fmt.Sprintf("Book %d", i),
			Authors:       []string{"Same Author"},
		})
	}
	store := seededStore(t, books...)
	sink := newRecordingSink()

	summary, err := New(store, sink, 2, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Books)

	batches := sink.batches[datastore.BooksCollection]
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 2)
	assert.Len(t, batches[2], 1)
}

func TestRun_SinkFailureStops(t *testing.T) {
	store := seededStore(t, catalog.Book{GoogleBooksID: "a", Title: "A", Authors: []string{"Ann"}})
	sink := newRecordingSink()
	sink.failOn = datastore.AuthorsCollection

	summary, err := New(store, sink, 0, nil).Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, summary.Books)
	assert.False(t, sink.indexed)
}

func TestRun_IntoSQLiteDocuments(t *testing.T) {
	store := seededStore(t, catalog.Book{
		GoogleBooksID: "abc",
		Title:         "Dune",
		Language:      ptr("en"),
		Authors:       []string{"Frank Herbert"},
	})

	env := testutil.NewTestEnv(t)
	sink := datastore.NewSQLiteStore(testutil.SQLitePath(env, "documents"))
	require.NoError(t, sink.Connect(context.Background()))
	t.Cleanup(func() { _ = sink.Close(context.Background()) })

	summary, err := New(store, sink, 0, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Books)
}

func TestDecodeRefs(t *testing.T) {
	refs, err := decodeRefs(`[{"id":1,"name":"A"},{"id":1,"name":"A"},{"id":2,"name":"B"}]`)
	require.NoError(t, err)
	assert.Len(t, refs, 2)

	refs, err = decodeRefs("")
	require.NoError(t, err)
	assert.NotNil(t, refs)
	assert.Empty(t, refs)

	_, err = decodeRefs("{not json")
	require.Error(t, err)
}
