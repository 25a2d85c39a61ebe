package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps each collection as a table of JSON documents.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLiteStore instance
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{
		dbPath: dbPath,
	}
}

// Connect opens the database and creates the collection tables
func (s *SQLiteStore) Connect(ctx context.Context) error {
	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	s.db = db

	for collection := range validCollections {
		schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			_id INTEGER PRIMARY KEY,
			doc TEXT NOT NULL CHECK (json_valid(doc))
		)`, collection)
		if _, err := s.db.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("failed to create table %s: %w", collection, err)
		}
	}
	return nil
}

// InsertDocuments inserts docs into the collection table in one transaction
func (s *SQLiteStore) InsertDocuments(ctx context.Context, collection string, docs []Document) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback if we don't commit - ignore errors as they're expected if transaction was committed
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (_id, doc) VALUES (?, ?)", collection))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, doc["_id"], string(data)); err != nil {
			return fmt.Errorf("failed to insert document %v: %w", doc["_id"], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// EnsureIndexes indexes books by language and title
func (s *SQLiteStore) EnsureIndexes(ctx context.Context) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_books_language ON books (json_extract(doc, '$.language'))`,
		`CREATE INDEX IF NOT EXISTS idx_books_title ON books (json_extract(doc, '$.title'))`,
	}
	for _, stmt := range indexes {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close(context.Context) error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
