package migrate

import "github.com/lepinkainen/bookworm/internal/loader"

const (
	genresQuery  = `SELECT genre_id, name FROM genres ORDER BY genre_id`
	authorsQuery = `SELECT author_id, name FROM authors ORDER BY author_id`
)

// Relations are aggregated per book in derived tables so the two joins do
// not multiply each other; the junction primary keys keep each pair unique.
const sqliteBooksQuery = `
SELECT b.book_id, b.title, b.description, b.language, b.google_books_id, b.open_library_id,
       b.average_rating, b.ratings_count, b.isbn_13, b.published_date, b.page_count,
       COALESCE(ba.authors, '[]'), COALESCE(bg.genres, '[]')
FROM books b
LEFT JOIN (
    SELECT x.book_id, json_group_array(json_object('id', a.author_id, 'name', a.name)) AS authors
    FROM book_authors x JOIN authors a ON a.author_id = x.author_id
    GROUP BY x.book_id
) ba ON ba.book_id = b.book_id
LEFT JOIN (
    SELECT x.book_id, json_group_array(json_object('id', g.genre_id, 'name', g.name)) AS genres
    FROM book_genres x JOIN genres g ON g.genre_id = x.genre_id
    GROUP BY x.book_id
) bg ON bg.book_id = b.book_id
ORDER BY b.book_id`

const postgresBooksQuery = `
SELECT b.book_id, b.title, b.description, b.language, b.google_books_id, b.open_library_id,
       b.average_rating, b.ratings_count, b.isbn_13, b.published_date::text, b.page_count,
       COALESCE(ba.authors, '[]'), COALESCE(bg.genres, '[]')
FROM books b
LEFT JOIN (
    SELECT x.book_id, json_agg(json_build_object('id', a.author_id, 'name', a.name) ORDER BY a.author_id)::text AS authors
    FROM book_authors x JOIN authors a ON a.author_id = x.author_id
    GROUP BY x.book_id
) ba ON ba.book_id = b.book_id
LEFT JOIN (
    SELECT x.book_id, json_agg(json_build_object('id', g.genre_id, 'name', g.name) ORDER BY g.genre_id)::text AS genres
    FROM book_genres x JOIN genres g ON g.genre_id = x.genre_id
    GROUP BY x.book_id
) bg ON bg.book_id = b.book_id
ORDER BY b.book_id`

func booksQuery(d loader.Dialect) string {
	if d == loader.Postgres {
		return postgresBooksQuery
	}
	return sqliteBooksQuery
}
