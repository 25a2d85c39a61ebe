package openlibrary

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/lepinkainen/bookworm/internal/cache"
	"github.com/lepinkainen/bookworm/internal/catalog"
	"github.com/lepinkainen/bookworm/internal/normalize"
)

// FetchAuthor looks up name on OpenLibrary and returns its profile.
//
// The returned profile always carries the given name, which stays the
// identity of the author. A failed search yields a name-only profile; a failed
// detail request keeps the birth date found by the search.
func (c *Client) FetchAuthor(ctx context.Context, name string) catalog.AuthorProfile {
	profile := catalog.AuthorProfile{Name: name}
	if strings.TrimSpace(name) == "" {
		return profile
	}

	var partial *authorRecord
	record, fromCache, err := cache.GetOrFetch(c.cache, authorCacheTable, strings.ToLower(name), func() (authorRecord, error) {
		return c.lookupAuthor(ctx, name, &partial)
	}, func(r authorRecord) bool { return !r.Found })
	if err != nil {
		slog.Warn("Author lookup failed", "author", name, "error", err)
		if partial == nil {
			return profile
		}
		record = *partial
	}

	if !record.Found {
		slog.Debug("Author not found on OpenLibrary", "author", name, "cached", fromCache)
		return profile
	}

	profile.BirthDate = normalize.ParseDate(record.BirthDate)
	profile.Biography = normalize.Text(record.Biography)

	slog.Debug("Enriched author", "author", name, "key", record.Key, "cached", fromCache)
	return profile
}

// lookupAuthor runs the search and detail requests. When the detail request
// fails the search-stage result is stored in partial before the error is
// returned, so the caller can still use it while nothing gets cached.
func (c *Client) lookupAuthor(ctx context.Context, name string, partial **authorRecord) (authorRecord, error) {
	var search authorSearchResponse
	if err := c.getJSON(ctx, "/search/authors.json?q="+url.QueryEscape(name), &search); err != nil {
		return authorRecord{}, fmt.Errorf("author search: %w", err)
	}
	if search.NumFound == 0 || len(search.Docs) == 0 {
		return authorRecord{Found: false}, nil
	}

	doc := search.Docs[0]
	record := authorRecord{
		Found:     true,
		Key:       keySuffix(doc.Key),
		BirthDate: doc.BirthDate,
	}
	if record.Key == "" {
		return record, nil
	}

	var detail authorDetail
	if err := c.getJSON(ctx, "/authors/"+url.PathEscape(record.Key)+".json", &detail); err != nil {
		*partial = &record
		return authorRecord{}, fmt.Errorf("author detail %s: %w", record.Key, err)
	}

	record.Biography = detail.biography()
	return record, nil
}
