// Package loader writes normalized books into the relational store.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL flavour of a Store.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "pgx"
)

// DialectFor picks the dialect from a connection string. postgres:// and
// postgresql:// URLs and libpq key/value strings ("host=db dbname=books")
// select PostgreSQL, anything else is a SQLite path or DSN.
func DialectFor(dsn string) Dialect {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return Postgres
	}
	if isKeyValueDSN(lower) {
		return Postgres
	}
	return SQLite
}

// isKeyValueDSN reports whether every field of dsn is a bare key=value pair.
func isKeyValueDSN(dsn string) bool {
	if strings.Contains(dsn, "://") || strings.HasPrefix(dsn, "file:") {
		return false
	}
	fields := strings.Fields(dsn)
	if len(fields) == 0 {
		return false
	}
	for _, field := range fields {
		key, _, ok := strings.Cut(field, "=")
		if !ok || key == "" || strings.TrimLeft(key, "abcdefghijklmnopqrstuvwxyz_") != "" {
			return false
		}
	}
	return true
}

// Store is a database/sql handle that knows its dialect.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// sqlOpen is swapped in tests.
var sqlOpen = sql.Open

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("empty database connection string")
	}

	dialect := DialectFor(dsn)
	db, err := sqlOpen(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	if dialect == SQLite {
		// Single writer keeps SQLite from returning SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", dialect, err)
	}

	if dialect == SQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	return &Store{db: db, dialect: dialect}, nil
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the SQL flavour of the store.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Rebind rewrites ? placeholders into the dialect's form.
func (s *Store) Rebind(query string) string {
	return Rebind(s.dialect, query)
}

// Rebind rewrites ? placeholders to $1, $2, ... for PostgreSQL and leaves
// SQLite queries untouched. Queries must not contain literal question marks.
func Rebind(dialect Dialect, query string) string {
	if dialect != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// EnsureSchema creates the relational tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaFor(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
