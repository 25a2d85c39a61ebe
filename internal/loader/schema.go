package loader

// Table layout shared by both dialects; only the key and type syntax differs.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		book_id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT,
		language TEXT CHECK (language IS NULL OR length(language) = 2),
		google_books_id TEXT NOT NULL UNIQUE,
		open_library_id TEXT,
		average_rating REAL CHECK (average_rating IS NULL OR (average_rating >= 0 AND average_rating <= 5)),
		ratings_count INTEGER,
		isbn_13 TEXT,
		published_date TEXT,
		page_count INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS authors (
		author_id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		date_of_birth TEXT,
		biography TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS genres (
		genre_id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS book_authors (
		book_id INTEGER NOT NULL REFERENCES books(book_id),
		author_id INTEGER NOT NULL REFERENCES authors(author_id),
		PRIMARY KEY (book_id, author_id)
	)`,
	`CREATE TABLE IF NOT EXISTS book_genres (
		book_id INTEGER NOT NULL REFERENCES books(book_id),
		genre_id INTEGER NOT NULL REFERENCES genres(genre_id),
		PRIMARY KEY (book_id, genre_id)
	)`,
	`CREATE TABLE IF NOT EXISTS editions (
		edition_id INTEGER PRIMARY KEY AUTOINCREMENT,
		book_id INTEGER NOT NULL REFERENCES books(book_id),
		open_library_id TEXT UNIQUE,
		isbn_13 TEXT,
		published_date TEXT,
		page_count INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_editions_book_id ON editions(book_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		book_id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		language CHAR(2),
		google_books_id TEXT NOT NULL UNIQUE,
		open_library_id TEXT,
		average_rating DOUBLE PRECISION CHECK (average_rating BETWEEN 0 AND 5),
		ratings_count INTEGER,
		isbn_13 TEXT,
		published_date DATE,
		page_count INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS authors (
		author_id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		date_of_birth DATE,
		biography TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS genres (
		genre_id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS book_authors (
		book_id BIGINT NOT NULL REFERENCES books(book_id),
		author_id BIGINT NOT NULL REFERENCES authors(author_id),
		PRIMARY KEY (book_id, author_id)
	)`,
	`CREATE TABLE IF NOT EXISTS book_genres (
		book_id BIGINT NOT NULL REFERENCES books(book_id),
		genre_id BIGINT NOT NULL REFERENCES genres(genre_id),
		PRIMARY KEY (book_id, genre_id)
	)`,
	`CREATE TABLE IF NOT EXISTS editions (
		edition_id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		book_id BIGINT NOT NULL REFERENCES books(book_id),
		open_library_id TEXT UNIQUE,
		isbn_13 TEXT,
		published_date DATE,
		page_count INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_editions_book_id ON editions(book_id)`,
}

func schemaFor(d Dialect) []string {
	if d == Postgres {
		return postgresSchema
	}
	return sqliteSchema
}
