package cmd

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"
	"github.com/lepinkainen/bookworm/cmd/harvest"
	"github.com/lepinkainen/bookworm/internal/config"
	"github.com/lepinkainen/bookworm/internal/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func resetCmdState(t *testing.T) {
	origLoad, origHarvest, origMigrate := runLoad, runHarvest, runMigrate

	t.Cleanup(func() {
		runLoad, runHarvest, runMigrate = origLoad, origHarvest, origMigrate
		viper.Reset()
	})

	viper.Reset()
	config.SetDefaults()
}

func parseCLI(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()

	originalArgs := os.Args
	os.Args = append([]string{"bookworm"}, args...)
	t.Cleanup(func() { os.Args = originalArgs })

	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("bookworm"),
		kong.UsageOnError(),
		kong.Exit(func(code int) {
			t.Fatalf("unexpected Kong exit %d", code)
		}),
	)
	ctx.BindTo(context.Background(), (*context.Context)(nil))
	updateGlobalConfig(cli)

	return cli, ctx
}

func TestCLIDefaultFlags(t *testing.T) {
	resetCmdState(t)

	cli, _ := parseCLI(t, "migrate")

	assert.Zero(t, cli.DB)
	assert.Zero(t, cli.CacheDBFile)
	assert.False(t, cli.Debug)
	assert.Equal(t, "./bookworm.db", viper.GetString(config.KeyDatabaseDSN))
	assert.Equal(t, "720h", viper.GetString(config.KeyCacheTTL))
}

func TestUpdateGlobalConfig(t *testing.T) {
	resetCmdState(t)

	updateGlobalConfig(&CLI{
		DB:          "postgres://localhost/books",
		CacheDBFile: "/tmp/cache.db",
		CacheTTL:    "12h",
		MetricsFile: "/tmp/bookworm.prom",
	})

	assert.Equal(t, "postgres://localhost/books", viper.GetString(config.KeyDatabaseDSN))
	assert.Equal(t, "/tmp/cache.db", viper.GetString(config.KeyCacheDBFile))
	assert.Equal(t, 12*time.Hour, viper.GetDuration(config.KeyCacheTTL))
	assert.Equal(t, "/tmp/bookworm.prom", viper.GetString(config.KeyMetricsFile))
}

func TestLoadCommand(t *testing.T) {
	resetCmdState(t)

	var gotCfg config.Config
	var gotQuery string
	runLoad = func(_ context.Context, cfg config.Config, query string) error {
		gotCfg, gotQuery = cfg, query
		return nil
	}

	_, ctx := parseCLI(t, "--db", "/tmp/books.db", "load", "subject:fantasy", "-n", "25", "--no-enrich")
	require.NoError(t, ctx.Run())

	assert.Equal(t, "subject:fantasy", gotQuery)
	assert.Equal(t, "/tmp/books.db", gotCfg.DatabaseDSN)
	assert.Equal(t, 25, gotCfg.TargetTotal)
	assert.False(t, gotCfg.EnrichAuthors)
	assert.False(t, gotCfg.EnrichEditions)
}

func TestLoadCommandWithoutQuery(t *testing.T) {
	resetCmdState(t)

	gotQuery := "unset"
	runLoad = func(_ context.Context, cfg config.Config, query string) error {
		gotQuery = query
		assert.True(t, cfg.EnrichAuthors)
		return nil
	}

	_, ctx := parseCLI(t, "load")
	require.NoError(t, ctx.Run())
	assert.Equal(t, "", gotQuery)
}

func TestHarvestCommand(t *testing.T) {
	resetCmdState(t)

	var gotCfg config.Config
	var gotOpts harvest.Options
	runHarvest = func(_ context.Context, cfg config.Config, opts harvest.Options) error {
		gotCfg, gotOpts = cfg, opts
		return nil
	}

	_, ctx := parseCLI(t, "harvest", "-f", "queries.yaml", "--variations", "5", "--seed", "42", "--per-query", "200")
	require.NoError(t, ctx.Run())

	assert.Equal(t, harvest.Options{QueriesFile: "queries.yaml", Variations: 5, Seed: 42}, gotOpts)
	assert.Equal(t, 200, gotCfg.PerQueryCap)
	assert.Equal(t, 100, gotCfg.TargetTotal)
}

func TestMigrateCommand(t *testing.T) {
	resetCmdState(t)

	var gotCfg config.Config
	runMigrate = func(_ context.Context, cfg config.Config) error {
		gotCfg = cfg
		return nil
	}

	_, ctx := parseCLI(t, "migrate", "--to", "mongodb://localhost:27017", "--batch-size", "250")
	require.NoError(t, ctx.Run())

	assert.Equal(t, "mongodb://localhost:27017", gotCfg.DocumentURI)
	assert.Equal(t, 250, gotCfg.MigrateBatchSize)
}

func TestCommandRejectsInvalidConfig(t *testing.T) {
	resetCmdState(t)

	runLoad = func(context.Context, config.Config, string) error {
		t.Fatal("load must not run with invalid config")
		return nil
	}

	_, ctx := parseCLI(t, "load", "dune", "--target=-1")
	err := ctx.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target must be positive")
}

func TestCacheInvalidateCommand(t *testing.T) {
	resetCmdState(t)
	env := testutil.NewTestEnv(t)

	_, ctx := parseCLI(t, "--cache-db-file", env.Path("cache.db"), "cache", "invalidate", "editions")
	require.NoError(t, ctx.Run())
	assert.True(t, env.FileExists("cache.db"))
}

func TestInitLogging(t *testing.T) {
	for _, debug := range []bool{false, true} {
		require.NotPanics(t, func() {
			initLogging(debug)
		})
	}
}
