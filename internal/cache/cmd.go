package cache

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// InvalidateCacheCmd represents the cache invalidate subcommand
type InvalidateCacheCmd struct {
	Source string `arg:"" help:"Cache source to invalidate: authors, editions" required:""`
}

func (i *InvalidateCacheCmd) Run() error {
	tableName, ok := SourceTables[i.Source]
	if !ok {
		return fmt.Errorf("invalid cache source '%s'; valid sources are: %s", i.Source, strings.Join(validSources(), ", "))
	}

	cacheDB := viper.GetString("cache.dbfile")
	slog.Info("Invalidating cache", "source", i.Source, "database", cacheDB)

	cacheInstance, err := Open(cacheDB, 0)
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	defer func() { _ = cacheInstance.Close() }()

	rowsDeleted, err := cacheInstance.InvalidateSource(tableName)
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}

	slog.Info("Cache invalidated", "source", i.Source, "rows_deleted", rowsDeleted)
	return nil
}

func validSources() []string {
	sources := make([]string, 0, len(SourceTables))
	for source := range SourceTables {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}
