// Package harvest implements the multi-query harvest command.
package harvest

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"math/rand/v2"

	"github.com/lepinkainen/bookworm/internal/cmdutil"
	"github.com/lepinkainen/bookworm/internal/config"
	collect "github.com/lepinkainen/bookworm/internal/harvest"
)

// Options selects the queries of a harvest run.
type Options struct {
	// QueriesFile is an optional YAML query set; the built-in seeds are used otherwise.
	QueriesFile string
	// Variations overrides the number of random variations per base term when positive.
	Variations int
	// Seed makes the random variations reproducible when non-zero.
	Seed uint64
}

// Run harvests books across the static and randomized queries until
// cfg.TargetTotal books are collected, then loads them in one batch.
func Run(ctx context.Context, cfg config.Config, opts Options) (err error) {
	set := collect.DefaultQuerySet()
	if opts.QueriesFile != "" {
		if set, err = collect.LoadQuerySet(opts.QueriesFile); err != nil {
			return err
		}
	}
	if opts.Variations > 0 {
		set.Variations = opts.Variations
	}

	var rng *rand.Rand
	if opts.Seed != 0 {
		rng = rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	}
	queries := set.Queries(rng)
	slog.Info("Starting harvest", "queries", len(queries), "target", cfg.TargetTotal, "per_query_cap", cfg.PerQueryCap)

	deps, err := cmdutil.Setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { err = stdErrors.Join(err, deps.Close()) }()

	collector := collect.NewCollector(deps.GoogleBooks, collect.Options{
		BatchSize:   cfg.BatchSize,
		Target:      cfg.TargetTotal,
		PerQueryCap: cfg.PerQueryCap,
	}, deps.Metrics)

	books := collector.Collect(ctx, queries)
	if len(books) < cfg.TargetTotal {
		slog.Warn("Queries exhausted before reaching target", "collected", len(books), "target", cfg.TargetTotal)
	}

	res, err := deps.LoadBooks(ctx, books)
	if err != nil {
		return err
	}

	slog.Info("Harvest finished",
		"books", res.Books,
		"authors_created", res.AuthorsCreated,
		"genres_created", res.GenresCreated,
		"book_authors", res.BookAuthors,
		"book_genres", res.BookGenres,
		"editions", res.Editions,
	)
	return nil
}
