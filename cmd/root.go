package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/bookworm/cmd/harvest"
	"github.com/lepinkainen/bookworm/cmd/load"
	"github.com/lepinkainen/bookworm/cmd/migrate"
	"github.com/lepinkainen/bookworm/internal/cache"
	"github.com/lepinkainen/bookworm/internal/config"
	"github.com/lepinkainen/bookworm/internal/errors"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"
)

var (
	runLoad    = load.Run
	runHarvest = harvest.Run
	runMigrate = migrate.Run
)

// CLI represents the complete command structure for the bookworm application
type CLI struct {
	// Global flags
	DB          string `help:"Relational database: SQLite path or postgres:// URL"`
	CacheDBFile string `help:"Path to cache SQLite database file"`
	CacheTTL    string `help:"Cache time-to-live duration (e.g., 720h for 30 days)"`
	MetricsFile string `help:"Write Prometheus counters to this file when the run ends"`
	Debug       bool   `help:"Enable debug logging"`

	Load    LoadCmd    `cmd:"" help:"Load books for a single Google Books query"`
	Harvest HarvestCmd `cmd:"" help:"Harvest books across many queries until the target is reached"`
	Migrate MigrateCmd `cmd:"" help:"Copy the relational store into a document store"`
	Cache   CacheCmd   `cmd:"" help:"Manage the enrichment cache"`
}

// LoadCmd represents the load command
type LoadCmd struct {
	Query    string `arg:"" optional:"" help:"Google Books query; prompts when omitted"`
	Target   int    `short:"n" help:"Number of books to collect"`
	NoEnrich bool   `help:"Skip OpenLibrary author and edition enrichment"`
}

// HarvestCmd represents the harvest command
type HarvestCmd struct {
	QueriesFile string `short:"f" help:"YAML file with static queries, base terms and variations"`
	Variations  int    `help:"Random variations per base term"`
	Target      int    `short:"n" help:"Number of books to collect"`
	PerQuery    int    `help:"Maximum start index paged per query"`
	Seed        uint64 `help:"Seed for reproducible query variations"`
	NoEnrich    bool   `help:"Skip OpenLibrary author and edition enrichment"`
}

// MigrateCmd represents the migrate command
type MigrateCmd struct {
	To        string `help:"Document store: mongodb:// URL, Datasette http(s) URL, or SQLite path"`
	BatchSize int    `help:"Documents written per insert"`
}

// CacheCmd groups the cache maintenance subcommands
type CacheCmd struct {
	Invalidate cache.InvalidateCacheCmd `cmd:"" help:"Drop every cached entry for a source"`
}

// Execute runs the Kong-based CLI
func Execute() {
	var cli CLI

	// Parse command line with Kong
	kctx := kong.Parse(&cli,
		kong.Name("bookworm"),
		kong.Description("Harvest book metadata from Google Books into a relational store and migrate it to documents."),
		kong.UsageOnError(),
	)

	initLogging(cli.Debug)
	initConfig()
	updateGlobalConfig(&cli)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx.BindTo(ctx, (*context.Context)(nil))
	if err := kctx.Run(); err != nil {
		if errors.IsStopProcessingError(err) {
			slog.Info("Stopped", "reason", err)
			return
		}
		slog.Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func initConfig() {
	config.SetDefaults()

	// Enable environment variable support
	viper.AutomaticEnv()
	config.BindEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Debug("Config file not found, using defaults")
			return
		}
		slog.Error("Fatal error config file", "error", err)
		os.Exit(1)
	}
}

func updateGlobalConfig(cli *CLI) {
	setIf(config.KeyDatabaseDSN, cli.DB)
	setIf(config.KeyCacheDBFile, cli.CacheDBFile)
	setIf(config.KeyCacheTTL, cli.CacheTTL)
	setIf(config.KeyMetricsFile, cli.MetricsFile)
}

func setIf[T comparable](key string, value T) {
	var zero T
	if value != zero {
		viper.Set(key, value)
	}
}

// Run methods for each command

func (l *LoadCmd) Run(ctx context.Context) error {
	setIf(config.KeyTargetTotal, l.Target)
	if l.NoEnrich {
		disableEnrichment()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return runLoad(ctx, cfg, l.Query)
}

func (h *HarvestCmd) Run(ctx context.Context) error {
	setIf(config.KeyTargetTotal, h.Target)
	setIf(config.KeyPerQueryCap, h.PerQuery)
	if h.NoEnrich {
		disableEnrichment()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return runHarvest(ctx, cfg, harvest.Options{
		QueriesFile: h.QueriesFile,
		Variations:  h.Variations,
		Seed:        h.Seed,
	})
}

func (m *MigrateCmd) Run(ctx context.Context) error {
	setIf(config.KeyDocumentURI, m.To)
	setIf(config.KeyMigrateBatchSize, m.BatchSize)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return runMigrate(ctx, cfg)
}

func disableEnrichment() {
	viper.Set(config.KeyEnrichAuthors, false)
	viper.Set(config.KeyEnrichEditions, false)
}

func initLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}
