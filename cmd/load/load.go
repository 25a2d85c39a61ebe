// Package load implements the single-query load command.
package load

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"strings"

	"github.com/lepinkainen/bookworm/internal/cmdutil"
	"github.com/lepinkainen/bookworm/internal/config"
	collect "github.com/lepinkainen/bookworm/internal/harvest"
	"github.com/lepinkainen/bookworm/internal/tui"
)

var promptQuery = tui.PromptQuery

// Run searches Google Books for query, keeps up to cfg.TargetTotal new
// books and loads them. An empty query is asked for interactively.
func Run(ctx context.Context, cfg config.Config, query string) (err error) {
	query = strings.TrimSpace(query)
	if query == "" {
		if query, err = promptQuery("Search Google Books"); err != nil {
			return err
		}
	}

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

	books := collector.Collect(ctx, []string{query})
	slog.Info("Collected books", "query", query, "count", len(books), "target", cfg.TargetTotal)

	res, err := deps.LoadBooks(ctx, books)
	if err != nil {
		return err
	}

	slog.Info("Load finished",
		"books", res.Books,
		"authors_created", res.AuthorsCreated,
		"genres_created", res.GenresCreated,
		"editions", res.Editions,
	)
	return nil
}
