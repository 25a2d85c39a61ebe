package cache

// SQL schemas for cache tables
// All cache tables use "cache_key" as the primary key column for consistency

// OpenLibraryAuthorCacheSchema defines the schema for OpenLibrary author profiles
const OpenLibraryAuthorCacheSchema = `
CREATE TABLE IF NOT EXISTS openlibrary_author_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_openlibrary_author_expires_at ON openlibrary_author_cache(expires_at);
`

// OpenLibraryEditionCacheSchema defines the schema for OpenLibrary ISBN edition lookups
const OpenLibraryEditionCacheSchema = `
CREATE TABLE IF NOT EXISTS openlibrary_edition_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_openlibrary_edition_expires_at ON openlibrary_edition_cache(expires_at);
`

// AllCacheSchemas contains all cache table schemas for easy initialization
var AllCacheSchemas = []string{
	OpenLibraryAuthorCacheSchema,
	OpenLibraryEditionCacheSchema,
}

// ValidCacheTableNames is the whitelist of allowed cache table names
// Used to prevent SQL injection when interpolating table names
var ValidCacheTableNames = map[string]bool{
	"openlibrary_author_cache":  true,
	"openlibrary_edition_cache": true,
}

// SourceTables maps the source names accepted on the command line to cache tables
var SourceTables = map[string]string{
	"authors":  "openlibrary_author_cache",
	"editions": "openlibrary_edition_cache",
}
