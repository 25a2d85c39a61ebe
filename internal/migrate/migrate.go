// Package migrate copies the relational store into a document store.
package migrate

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lepinkainen/bookworm/internal/datastore"
	"github.com/lepinkainen/bookworm/internal/loader"
)

// DefaultBatchSize is the number of documents inserted per batch.
const DefaultBatchSize = 1000

// Observer is notified after every inserted batch.
type Observer interface {
	DocumentsMigrated(collection string, n int)
}

// Summary counts the migrated documents per collection.
type Summary struct {
	Genres  int
	Authors int
	Books   int
	Batches int
}

// Migrator reads a completed relational store and writes it to a sink.
// It always performs a full copy.
type Migrator struct {
	source    *loader.Store
	sink      datastore.Store
	batchSize int
	observer  Observer
}

// New creates a Migrator. A non-positive batchSize uses DefaultBatchSize.
func New(source *loader.Store, sink datastore.Store, batchSize int, observer Observer) *Migrator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Migrator{source: source, sink: sink, batchSize: batchSize, observer: observer}
}

// Run migrates genres, authors and books in that order, then creates the
// sink's query indexes.
func (m *Migrator) Run(ctx context.Context) (Summary, error) {
	var summary Summary
	var err error

	if summary.Genres, err = m.copyNamed(ctx, datastore.GenresCollection, genresQuery, &summary); err != nil {
		return summary, err
	}
	if summary.Authors, err = m.copyNamed(ctx, datastore.AuthorsCollection, authorsQuery, &summary); err != nil {
		return summary, err
	}
	if summary.Books, err = m.copyBooks(ctx, &summary); err != nil {
		return summary, err
	}

	if err := m.sink.EnsureIndexes(ctx); err != nil {
		return summary, fmt.Errorf("failed to create indexes: %w", err)
	}

	slog.Info("Migration complete",
		"genres", summary.Genres,
		"authors", summary.Authors,
		"books", summary.Books,
		"batches", summary.Batches,
	)
	return summary, nil
}

// copyNamed migrates an (id, name) lookup table.
func (m *Migrator) copyNamed(ctx context.Context, collection, query string, summary *Summary) (int, error) {
	rows, err := m.source.DB().QueryContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", collection, err)
	}
	defer func() { _ = rows.Close() }()

	w := m.newWriter(collection, summary)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return w.total, fmt.Errorf("failed to scan %s row: %w", collection, err)
		}
		if err := w.add(ctx, datastore.Document{"_id": id, "name": name}); err != nil {
			return w.total, err
		}
	}
	if err := rows.Err(); err != nil {
		return w.total, fmt.Errorf("failed to read %s: %w", collection, err)
	}
	err = w.flush(ctx)
	return w.total, err
}

func (m *Migrator) copyBooks(ctx context.Context, summary *Summary) (int, error) {
	rows, err := m.source.DB().QueryContext(ctx, booksQuery(m.source.Dialect()))
	if err != nil {
		return 0, fmt.Errorf("failed to read books: %w", err)
	}
	defer func() { _ = rows.Close() }()

	w := m.newWriter(datastore.BooksCollection, summary)
	for rows.Next() {
		doc, err := scanBook(rows)
		if err != nil {
			return w.total, err
		}
		if err := w.add(ctx, doc); err != nil {
			return w.total, err
		}
	}
	if err := rows.Err(); err != nil {
		return w.total, fmt.Errorf("failed to read books: %w", err)
	}
	err = w.flush(ctx)
	return w.total, err
}

func scanBook(rows *sql.Rows) (datastore.Document, error) {
	var (
		id                                           int64
		title, googleID                              string
		description, language, olid, isbn, published sql.NullString
		rating                                       sql.NullFloat64
		ratingsCount, pageCount                      sql.NullInt64
		authorsJSON, genresJSON                      string
	)
	if err := rows.Scan(&id, &title, &description, &language, &googleID, &olid,
		&rating, &ratingsCount, &isbn, &published, &pageCount, &authorsJSON, &genresJSON); err != nil {
		return nil, fmt.Errorf("failed to scan book row: %w", err)
	}

	authors, err := decodeRefs(authorsJSON)
	if err != nil {
		return nil, fmt.Errorf("book %d authors: %w", id, err)
	}
	genres, err := decodeRefs(genresJSON)
	if err != nil {
		return nil, fmt.Errorf("book %d genres: %w", id, err)
	}

	return datastore.Document{
		"_id":             id,
		"title":           title,
		"description":     nullString(description),
		"language":        nullString(language),
		"google_books_id": googleID,
		"open_library_id": nullString(olid),
		"average_rating":  nullFloat(rating),
		"ratings_count":   nullInt(ratingsCount),
		"isbn_13":         nullString(isbn),
		"published_date":  isoDate(published),
		"page_count":      nullInt(pageCount),
		"authors":         authors,
		"genres":          genres,
	}, nil
}

type ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// decodeRefs turns an aggregated JSON array into {id, name} sub-documents,
// dropping repeated ids. The result is never nil.
func decodeRefs(raw string) ([]map[string]any, error) {
	var refs []ref
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &refs); err != nil {
			return nil, fmt.Errorf("failed to decode aggregate: %w", err)
		}
	}

	out := make([]map[string]any, 0, len(refs))
	seen := make(map[int64]bool, len(refs))
	for _, r := range refs {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, map[string]any{"id": r.ID, "name": r.Name})
	}
	return out, nil
}

func nullString(s sql.NullString) any {
	if !s.Valid {
		return nil
	}
	return s.String
}

func nullFloat(f sql.NullFloat64) any {
	if !f.Valid {
		return nil
	}
	return f.Float64
}

func nullInt(n sql.NullInt64) any {
	if !n.Valid {
		return nil
	}
	return n.Int64
}

// isoDate renders a stored date as YYYY-MM-DD, or nil when it is missing or unreadable.
func isoDate(s sql.NullString) any {
	if !s.Valid || len(s.String) < len("2006-01-02") {
		return nil
	}
	t, err := time.Parse("2006-01-02", s.String[:len("2006-01-02")])
	if err != nil {
		return nil
	}
	return t.Format("2006-01-02")
}

// writer buffers documents and flushes them to the sink in fixed-size batches.
type writer struct {
	m          *Migrator
	collection string
	buf        []datastore.Document
	total      int
	summary    *Summary
}

func (m *Migrator) newWriter(collection string, summary *Summary) *writer {
	return &writer{
		m:          m,
		collection: collection,
		buf:        make([]datastore.Document, 0, m.batchSize),
		summary:    summary,
	}
}

func (w *writer) add(ctx context.Context, doc datastore.Document) error {
	w.buf = append(w.buf, doc)
	if len(w.buf) >= w.m.batchSize {
		return w.flush(ctx)
	}
	return nil
}

func (w *writer) flush(ctx context.Context) error {
	if len(w.buf) == 0 {
		return nil
	}

	if err := w.m.sink.InsertDocuments(ctx, w.collection, w.buf); err != nil {
		return fmt.Errorf("failed to insert %s batch: %w", w.collection, err)
	}

	w.total += len(w.buf)
	w.summary.Batches++
	if w.m.observer != nil {
		w.m.observer.DocumentsMigrated(w.collection, len(w.buf))
	}
	slog.Debug("Inserted batch", "collection", w.collection, "documents", len(w.buf), "total", w.total)

	// The sink may keep the slice, so start a fresh buffer
	w.buf = make([]datastore.Document, 0, w.m.batchSize)
	return nil
}
