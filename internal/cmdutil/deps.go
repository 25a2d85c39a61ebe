// Package cmdutil builds the run-scoped dependencies shared by the commands.
package cmdutil

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/bookworm/internal/cache"
	"github.com/lepinkainen/bookworm/internal/catalog"
	"github.com/lepinkainen/bookworm/internal/config"
	"github.com/lepinkainen/bookworm/internal/googlebooks"
	"github.com/lepinkainen/bookworm/internal/loader"
	"github.com/lepinkainen/bookworm/internal/metrics"
	"github.com/lepinkainen/bookworm/internal/openlibrary"
)

// Deps holds everything one command invocation needs. Close releases it.
type Deps struct {
	Config  config.Config
	Metrics *metrics.Recorder
	Store   *loader.Store

	GoogleBooks *googlebooks.Client
	OpenLibrary *openlibrary.Client
	Cache       *cache.CacheDB
}

// Setup opens the relational store (creating its schema) and builds the
// API clients. The OpenLibrary client and its response cache are only
// created when some enrichment is enabled.
func Setup(ctx context.Context, cfg config.Config) (*Deps, error) {
	d := &Deps{
		Config:  cfg,
		Metrics: metrics.NewRecorder(),
	}

	store, err := loader.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	d.Store = store

	if err := store.EnsureSchema(ctx); err != nil {
		return nil, stdErrors.Join(err, d.Close())
	}

	d.GoogleBooks = googlebooks.NewClient(cfg.GoogleBooksAPIKey,
		googlebooks.WithBaseURL(cfg.GoogleBooksBaseURL),
		googlebooks.WithPacing(cfg.PacingDelay),
		googlebooks.WithObserver(d.Metrics),
	)

	if cfg.EnrichAuthors || cfg.EnrichEditions {
		if cfg.CacheDBFile != "" {
			c, err := cache.Open(cfg.CacheDBFile, cfg.CacheTTL)
			if err != nil {
				// Enrichment still works without the cache, just slower
				slog.Warn("Response cache unavailable", "path", cfg.CacheDBFile, "error", err)
			} else {
				d.Cache = c
			}
		}

		d.OpenLibrary = openlibrary.NewClient(
			openlibrary.WithBaseURL(cfg.OpenLibraryBaseURL),
			openlibrary.WithPacing(cfg.PacingDelay),
			openlibrary.WithCache(d.Cache),
			openlibrary.WithObserver(d.Metrics),
		)
	}

	return d, nil
}

// Loader returns a loader with the enrichers the configuration asks for.
func (d *Deps) Loader() *loader.Loader {
	var opts []loader.Option
	if d.OpenLibrary != nil && d.Config.EnrichAuthors {
		opts = append(opts, loader.WithAuthorEnricher(d.OpenLibrary))
	}
	if d.OpenLibrary != nil && d.Config.EnrichEditions {
		opts = append(opts, loader.WithEditionEnricher(d.OpenLibrary))
	}
	return loader.New(d.Store, opts...)
}

// LoadBooks writes books in one batch and records the outcome.
func (d *Deps) LoadBooks(ctx context.Context, books []catalog.Book) (loader.Result, error) {
	if len(books) == 0 {
		slog.Warn("No books to load")
		return loader.Result{}, nil
	}

	res, err := d.Loader().Load(ctx, books)
	if err != nil {
		return res, fmt.Errorf("failed to load books: %w", err)
	}
	d.Metrics.BooksLoaded(res.Books)
	return res, nil
}

// Close writes the metrics file and closes the store and cache.
func (d *Deps) Close() error {
	var errs []error
	if err := d.Metrics.WriteFile(d.Config.MetricsFile); err != nil {
		errs = append(errs, err)
	}
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
		}
	}
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	return stdErrors.Join(errs...)
}
