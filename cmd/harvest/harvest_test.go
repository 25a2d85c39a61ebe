package harvest

import (
	"context"
	"testing"
	"time"

	"github.com/lepinkainen/bookworm/internal/config"
	"github.com/lepinkainen/bookworm/internal/loader"
	"github.com/lepinkainen/bookworm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(env *testutil.TestEnv, apiURL string) config.Config {
	return config.Config{
		GoogleBooksBaseURL: apiURL,
		OpenLibraryBaseURL: apiURL,
		DatabaseDSN:        testutil.SQLitePath(env, "books"),
		BatchSize:          40,
		TargetTotal:        100,
		PerQueryCap:        1000,
		MigrateBatchSize:   1000,
		CacheTTL:           time.Hour,
		MetricsFile:        env.Path("harvest.prom"),
	}
}

func TestRun_QueryFile(t *testing.T) {
	env := testutil.NewTestEnv(t)
	apis := testutil.NewFakeAPIs(t,
		testutil.FakeVolume{ID: "1", Title: "The Hobbit", Authors: []string{"J. R. R. Tolkien"}, Categories: []string{"Fantasy"}},
		testutil.FakeVolume{ID: "2", Title: "Foundation", Authors: []string{"Isaac Asimov"}, Categories: []string{"Science Fiction"}},
	)
	queries := env.WriteFileString("queries.yaml", `
static: ["inauthor:tolkien", "inauthor:asimov"]
base_terms: []
`)

	cfg := testConfig(env, apis.URL)
	require.NoError(t, Run(context.Background(), cfg, Options{QueriesFile: queries}))

	// Both queries see the same two volumes; the second adds nothing new
	store, err := loader.Open(context.Background(), cfg.DatabaseDSN)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	var books, genres int
	require.NoError(t, store.DB().QueryRow(`SELECT COUNT(*) FROM books`).Scan(&books))
	require.NoError(t, store.DB().QueryRow(`SELECT COUNT(*) FROM genres`).Scan(&genres))
	assert.Equal(t, 2, books)
	assert.Equal(t, 2, genres)

	// Each query pages until the empty page
	assert.Equal(t, 4, apis.Requests("/volumes"))

	metrics := env.ReadFileString("harvest.prom")
	assert.Contains(t, metrics, `bookworm_volumes_rejected_total{reason="duplicate"} 2`)
	assert.Contains(t, metrics, "bookworm_books_loaded_total 2")
}

func TestRun_MissingQueryFile(t *testing.T) {
	env := testutil.NewTestEnv(t)
	cfg := testConfig(env, "http://127.0.0.1:1")

	err := Run(context.Background(), cfg, Options{QueriesFile: env.Path("nope.yaml")})
	require.Error(t, err)
	assert.False(t, env.FileExists("books.db"))
}
