// Package harvest pages through Google Books search results and keeps the
// acceptable, previously unseen volumes until a target count is reached.
package harvest

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lepinkainen/bookworm/internal/catalog"
	"github.com/lepinkainen/bookworm/internal/googlebooks"
	"github.com/lepinkainen/bookworm/internal/normalize"
)

// Rejection reasons reported to the Observer.
const (
	RejectMissingID      = "missing_id"
	RejectMissingTitle   = "missing_title"
	RejectMissingAuthors = "missing_authors"
	RejectDuplicate      = "duplicate"
)

// Searcher fetches one page of volumes. An empty page ends the query.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults, startIndex int) []googlebooks.Volume
}

// Observer is notified about fetched, accepted and rejected volumes.
type Observer interface {
	VolumesFetched(n int)
	VolumeAccepted()
	VolumeRejected(reason string)
}

// Options bounds a collection run.
type Options struct {
	// BatchSize is the page size, at most googlebooks.MaxResultsLimit.
	BatchSize int
	// Target is the total number of books wanted across all queries.
	Target int
	// PerQueryCap stops paging a query once the start index reaches it.
	PerQueryCap int
}

// Collector deduplicates volumes by their Google Books id for one run.
type Collector struct {
	searcher Searcher
	opts     Options
	observer Observer
	seen     map[string]struct{}
}

// NewCollector creates a Collector. Zero option values fall back to a page
// of 40, a target of 100 and a per-query cap of 1000.
func NewCollector(searcher Searcher, opts Options, observer Observer) *Collector {
	if opts.BatchSize <= 0 || opts.BatchSize > googlebooks.MaxResultsLimit {
		opts.BatchSize = googlebooks.MaxResultsLimit
	}
	if opts.Target <= 0 {
		opts.Target = 100
	}
	if opts.PerQueryCap <= 0 {
		opts.PerQueryCap = 1000
	}

	return &Collector{
		searcher: searcher,
		opts:     opts,
		observer: observer,
		seen:     make(map[string]struct{}),
	}
}

// Seen reports how many distinct ids have been accepted so far.
func (c *Collector) Seen() int {
	return len(c.seen)
}

// Accept checks v and, when it is usable and new, marks it seen and returns
// its normalized form.
func (c *Collector) Accept(v googlebooks.Volume) (catalog.Book, bool) {
	id := strings.TrimSpace(v.ID)
	switch {
	case id == "":
		c.reject(RejectMissingID, v)
		return catalog.Book{}, false
	case strings.TrimSpace(v.VolumeInfo.Title) == "":
		c.reject(RejectMissingTitle, v)
		return catalog.Book{}, false
	case len(normalize.Names(v.VolumeInfo.Authors)) == 0:
		c.reject(RejectMissingAuthors, v)
		return catalog.Book{}, false
	}

	if _, dup := c.seen[id]; dup {
		c.reject(RejectDuplicate, v)
		return catalog.Book{}, false
	}

	c.seen[id] = struct{}{}
	if c.observer != nil {
		c.observer.VolumeAccepted()
	}
	return normalize.Volume(v), true
}

func (c *Collector) reject(reason string, v googlebooks.Volume) {
	slog.Debug("Skipping volume", "id", v.ID, "title", v.VolumeInfo.Title, "reason", reason)
	if c.observer != nil {
		c.observer.VolumeRejected(reason)
	}
}

// Collect runs queries in order and returns at most Target books.
//
// Each query is paged from start index 0 in steps of BatchSize, asking only
// for as many items as are still missing. A query ends on an empty page or
// when the start index reaches PerQueryCap; the whole run ends as soon as
// Target books have been collected or ctx is done.
func (c *Collector) Collect(ctx context.Context, queries []string) []catalog.Book {
	books := make([]catalog.Book, 0, c.opts.Target)

	for _, query := range queries {
		if len(books) >= c.opts.Target || ctx.Err() != nil {
			break
		}

		before := len(books)
		for start := 0; start < c.opts.PerQueryCap && len(books) < c.opts.Target; start += c.opts.BatchSize {
			if ctx.Err() != nil {
				break
			}

			want := min(c.opts.BatchSize, c.opts.Target-len(books))
			page := c.searcher.Search(ctx, query, want, start)
			if len(page) == 0 {
				slog.Debug("Query exhausted", "query", query, "start_index", start)
				break
			}
			if c.observer != nil {
				c.observer.VolumesFetched(len(page))
			}

			for _, v := range page {
				if len(books) >= c.opts.Target {
					break
				}
				if book, ok := c.Accept(v); ok {
					books = append(books, book)
				}
			}
		}

		slog.Info("Query finished", "query", query, "new_books", len(books)-before, "total", len(books))
	}

	return books
}
