// Package datastore provides the document sinks the migrator writes to.
package datastore

import (
	"context"
	"fmt"
	"strings"
)

// Document is one denormalized record. "_id" carries the relational key.
type Document = map[string]any

// Collection names the migrator writes.
const (
	BooksCollection   = "books"
	AuthorsCollection = "authors"
	GenresCollection  = "genres"
)

// validCollections is the whitelist of collection names interpolated into SQL and URLs.
var validCollections = map[string]bool{
	BooksCollection:   true,
	AuthorsCollection: true,
	GenresCollection:  true,
}

// Store defines the interface for document storage
type Store interface {
	// Connect establishes a connection to the data store
	Connect(ctx context.Context) error

	// InsertDocuments inserts a batch of documents into collection
	InsertDocuments(ctx context.Context, collection string, docs []Document) error

	// EnsureIndexes creates the query indexes on the migrated collections
	EnsureIndexes(ctx context.Context) error

	// Close closes the connection to the data store
	Close(ctx context.Context) error
}

// Options carries sink settings that are not part of the target URI.
type Options struct {
	// Database is the MongoDB database or the Datasette database name.
	Database string
	// Token is the Datasette API token, if any.
	Token string
}

// New selects a sink from the target URI scheme: mongodb:// and
// mongodb+srv:// select MongoDB, http:// and https:// a Datasette instance,
// and sqlite:// or a bare path a local SQLite file.
func New(uri string, opts Options) (Store, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, fmt.Errorf("empty document store URI")
	}
	if opts.Database == "" {
		opts.Database = "bookworm"
	}

	lower := strings.ToLower(uri)
	switch {
	case strings.HasPrefix(lower, "mongodb://"), strings.HasPrefix(lower, "mongodb+srv://"):
		return NewMongoStore(uri, opts.Database), nil
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return NewDatasetteClient(uri, opts.Database, opts.Token), nil
	case strings.HasPrefix(lower, "sqlite://"):
		return NewSQLiteStore(uri[len("sqlite://"):]), nil
	case strings.Contains(lower, "://"):
		return nil, fmt.Errorf("unsupported document store URI: %s", uri)
	default:
		return NewSQLiteStore(uri), nil
	}
}

func validateCollection(name string) error {
	if !validCollections[name] {
		return fmt.Errorf("invalid collection name: %s", name)
	}
	return nil
}
