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

// FetchEdition looks up the edition identified by isbn13. The boolean is
// false when the ISBN is empty, the request fails or OpenLibrary has no
// record with a key for it.
func (c *Client) FetchEdition(ctx context.Context, isbn13 string) (*catalog.EditionData, bool) {
	isbn13 = strings.TrimSpace(isbn13)
	if isbn13 == "" {
		return nil, false
	}

	record, fromCache, err := cache.GetOrFetch(c.cache, editionCacheTable, isbn13, func() (editionRecord, error) {
		return c.lookupEdition(ctx, isbn13)
	}, func(r editionRecord) bool { return !r.Found })
	if err != nil {
		slog.Warn("Edition lookup failed", "isbn", isbn13, "error", err)
		return nil, false
	}
	if !record.Found {
		slog.Debug("Edition not found on OpenLibrary", "isbn", isbn13, "cached", fromCache)
		return nil, false
	}

	edition := &catalog.EditionData{
		OpenLibraryID: record.Key,
		PublishedDate: normalize.ParseDate(record.PublishDate),
	}
	if record.Pages != nil && *record.Pages >= 0 {
		pages := *record.Pages
		edition.PageCount = &pages
	}
	return edition, true
}

func (c *Client) lookupEdition(ctx context.Context, isbn13 string) (editionRecord, error) {
	bibkey := "ISBN:" + isbn13
	params := url.Values{}
	params.Set("bibkeys", bibkey)
	params.Set("format", "json")
	params.Set("jscmd", "data")

	var result map[string]bookRecord
	if err := c.getJSON(ctx, "/api/books?"+params.Encode(), &result); err != nil {
		return editionRecord{}, fmt.Errorf("edition %s: %w", isbn13, err)
	}

	book, ok := result[bibkey]
	if !ok || keySuffix(book.Key) == "" {
		return editionRecord{Found: false}, nil
	}

	return editionRecord{
		Found:       true,
		Key:         keySuffix(book.Key),
		PublishDate: book.PublishDate,
		Pages:       book.NumberOfPages,
	}, nil
}
