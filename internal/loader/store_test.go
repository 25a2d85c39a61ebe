package loader

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"testing"

	"github.com/lepinkainen/bookworm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectFor(t *testing.T) {
	assert.Equal(t, Postgres, DialectFor("postgres://user@localhost/books"))
	assert.Equal(t, Postgres, DialectFor("POSTGRESQL://user@localhost/books"))
	assert.Equal(t, SQLite, DialectFor("books.db"))
	assert.Equal(t, SQLite, DialectFor("file:books.db?cache=shared"))
	assert.Equal(t, Postgres, DialectFor("host=localhost dbname=books user=bookworm sslmode=disable"))
	assert.Equal(t, Postgres, DialectFor("dbname=books"))
	assert.Equal(t, SQLite, DialectFor("./exports/run=1.db"))
	assert.Equal(t, SQLite, DialectFor("my books.db"))
}

func TestRebind(t *testing.T) {
	query := `INSERT INTO t (a, b) VALUES (?, ?) RETURNING id`
	assert.Equal(t, `INSERT INTO t (a, b) VALUES ($1, $2) RETURNING id`, Rebind(Postgres, query))
	assert.Equal(t, query, Rebind(SQLite, query))
}

func TestOpen_PicksDriver(t *testing.T) {
	var driver string
	prev := sqlOpen
	sqlOpen = func(name, dsn string) (*sql.DB, error) {
		driver = name
		return nil, stdErrors.New("no server")
	}
	t.Cleanup(func() { sqlOpen = prev })

	_, err := Open(context.Background(), "postgres://localhost/books")
	require.Error(t, err)
	assert.Equal(t, "pgx", driver)
}

func TestOpen_KeyValueDSNUsesPgx(t *testing.T) {
	var driver, gotDSN string
	prev := sqlOpen
	sqlOpen = func(name, dsn string) (*sql.DB, error) {
		driver, gotDSN = name, dsn
		return nil, stdErrors.New("no server")
	}
	t.Cleanup(func() { sqlOpen = prev })

	_, err := Open(context.Background(), "host=localhost dbname=books")
	require.Error(t, err)
	assert.Equal(t, "pgx", driver)
	assert.Equal(t, "host=localhost dbname=books", gotDSN)
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	require.Error(t, err)
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	env := testutil.NewTestEnv(t)
	store, err := Open(context.Background(), testutil.SQLitePath(env, "schema"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, store.EnsureSchema(context.Background()))

	for _, table := range []string{"books", "authors", "genres", "book_authors", "book_genres", "editions"} {
		var name string
		err := store.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}
