// Package migrate implements the document migration command.
package migrate

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/bookworm/internal/config"
	"github.com/lepinkainen/bookworm/internal/datastore"
	"github.com/lepinkainen/bookworm/internal/loader"
	"github.com/lepinkainen/bookworm/internal/metrics"
	docs "github.com/lepinkainen/bookworm/internal/migrate"
)

// Run copies the relational store at cfg.DatabaseDSN into the document
// store at cfg.DocumentURI.
func Run(ctx context.Context, cfg config.Config) (err error) {
	store, err := loader.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer func() { err = stdErrors.Join(err, store.Close()) }()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	sink, err := datastore.New(cfg.DocumentURI, datastore.Options{
		Database: cfg.DocumentDatabase,
		Token:    cfg.DocumentToken,
	})
	if err != nil {
		return err
	}
	if err := sink.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to document store: %w", err)
	}
	defer func() { err = stdErrors.Join(err, sink.Close(context.WithoutCancel(ctx))) }()

	recorder := metrics.NewRecorder()
	slog.Info("Starting migration", "target", cfg.DocumentURI, "batch_size", cfg.MigrateBatchSize)

	summary, err := docs.New(store, sink, cfg.MigrateBatchSize, recorder).Run(ctx)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("Migrated documents", "genres", summary.Genres, "authors", summary.Authors, "books", summary.Books)
	return recorder.WriteFile(cfg.MetricsFile)
}
