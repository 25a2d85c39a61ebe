// Package config loads the run configuration from viper.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// Configuration keys. Nested keys map to sections in config.yaml.
const (
	KeyGoogleBooksBaseURL = "googlebooks.base_url"
	KeyGoogleBooksAPIKey  = "googlebooks.api_key"
	KeyOpenLibraryBaseURL = "openlibrary.base_url"
	KeyDatabaseDSN        = "database.dsn"
	KeyBatchSize          = "harvest.batch_size"
	KeyTargetTotal        = "harvest.target"
	KeyPerQueryCap        = "harvest.per_query_cap"
	KeyPacingDelay        = "harvest.pacing"
	KeyEnrichAuthors      = "enrich.authors"
	KeyEnrichEditions     = "enrich.editions"
	KeyDocumentURI        = "documents.uri"
	KeyDocumentDatabase   = "documents.database"
	KeyDocumentToken      = "documents.token"
	KeyMigrateBatchSize   = "documents.batch_size"
	KeyCacheDBFile        = "cache.dbfile"
	KeyCacheTTL           = "cache.ttl"
	KeyMetricsFile        = "metrics.file"
)

// MaxBatchSize is the largest page the Google Books API serves.
const MaxBatchSize = 40

// Config is the explicit configuration handed to every component.
type Config struct {
	GoogleBooksBaseURL string
	GoogleBooksAPIKey  string
	OpenLibraryBaseURL string

	DatabaseDSN string

	BatchSize   int
	TargetTotal int
	PerQueryCap int
	PacingDelay time.Duration

	EnrichAuthors  bool
	EnrichEditions bool

	DocumentURI      string
	DocumentDatabase string
	DocumentToken    string
	MigrateBatchSize int

	CacheDBFile string
	CacheTTL    time.Duration

	MetricsFile string
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault(KeyGoogleBooksBaseURL, "https://www.googleapis.com/books/v1")
	viper.SetDefault(KeyOpenLibraryBaseURL, "https://openlibrary.org")
	viper.SetDefault(KeyDatabaseDSN, "./bookworm.db")

	viper.SetDefault(KeyBatchSize, MaxBatchSize)
	viper.SetDefault(KeyTargetTotal, 100)
	viper.SetDefault(KeyPerQueryCap, 1000)
	viper.SetDefault(KeyPacingDelay, "1s")

	viper.SetDefault(KeyEnrichAuthors, true)
	viper.SetDefault(KeyEnrichEditions, true)

	viper.SetDefault(KeyDocumentURI, "./bookworm-documents.db")
	viper.SetDefault(KeyDocumentDatabase, "bookworm")
	viper.SetDefault(KeyMigrateBatchSize, 1000)

	viper.SetDefault(KeyCacheDBFile, "./cache.db")
	viper.SetDefault(KeyCacheTTL, "720h") // 30 days
}

// BindEnv binds the environment variables that carry secrets and targets.
func BindEnv() {
	bindings := map[string]string{
		KeyGoogleBooksAPIKey: "GOOGLE_BOOKS_API_KEY",
		KeyDatabaseDSN:       "BOOKWORM_DB",
		KeyDocumentURI:       "BOOKWORM_DOCUMENTS",
		KeyDocumentToken:     "DATASETTE_TOKEN",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			slog.Error("Failed to bind environment variable", "key", key, "env", env, "error", err)
		}
	}
}

// Load reads the current viper state into a Config and validates it.
func Load() (Config, error) {
	cfg := Config{
		GoogleBooksBaseURL: viper.GetString(KeyGoogleBooksBaseURL),
		GoogleBooksAPIKey:  viper.GetString(KeyGoogleBooksAPIKey),
		OpenLibraryBaseURL: viper.GetString(KeyOpenLibraryBaseURL),
		DatabaseDSN:        viper.GetString(KeyDatabaseDSN),
		BatchSize:          viper.GetInt(KeyBatchSize),
		TargetTotal:        viper.GetInt(KeyTargetTotal),
		PerQueryCap:        viper.GetInt(KeyPerQueryCap),
		PacingDelay:        viper.GetDuration(KeyPacingDelay),
		EnrichAuthors:      viper.GetBool(KeyEnrichAuthors),
		EnrichEditions:     viper.GetBool(KeyEnrichEditions),
		DocumentURI:        viper.GetString(KeyDocumentURI),
		DocumentDatabase:   viper.GetString(KeyDocumentDatabase),
		DocumentToken:      viper.GetString(KeyDocumentToken),
		MigrateBatchSize:   viper.GetInt(KeyMigrateBatchSize),
		CacheDBFile:        viper.GetString(KeyCacheDBFile),
		CacheTTL:           viper.GetDuration(KeyCacheTTL),
		MetricsFile:        viper.GetString(KeyMetricsFile),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot run with.
func (c Config) Validate() error {
	switch {
	case c.DatabaseDSN == "":
		return fmt.Errorf("database connection string is required (set %s or BOOKWORM_DB)", KeyDatabaseDSN)
	case c.BatchSize < 1 || c.BatchSize > MaxBatchSize:
		return fmt.Errorf("batch size must be between 1 and %d, got %d", MaxBatchSize, c.BatchSize)
	case c.TargetTotal < 1:
		return fmt.Errorf("target must be positive, got %d", c.TargetTotal)
	case c.PerQueryCap < 1:
		return fmt.Errorf("per-query cap must be positive, got %d", c.PerQueryCap)
	case c.PacingDelay < 0:
		return fmt.Errorf("pacing delay must not be negative, got %s", c.PacingDelay)
	case c.MigrateBatchSize < 1:
		return fmt.Errorf("migration batch size must be positive, got %d", c.MigrateBatchSize)
	case c.CacheTTL < 0:
		return fmt.Errorf("cache TTL must not be negative, got %s", c.CacheTTL)
	}
	return nil
}
