package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"strings"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	"github.com/bookbuddyapp/bookbuddy-server/internal/normalize"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook. Queries alias books as b.
const bookColumns = `b.id, b.created_at, b.updated_at, b.title, b.author, b.genre,
	b.description, b.cover_url, b.year, b.isbn, b.olid, b.cover_id, b.added_by`

// ratingJoin attaches per-book review aggregates as r.avg and r.cnt.
const ratingJoin = ` LEFT JOIN (
		SELECT book_id, AVG(rating) AS avg, COUNT(*) AS cnt FROM reviews GROUP BY book_id
	) r ON r.book_id = b.id`

// scanBook scans a sql.Row (or sql.Rows via its Scan method) into a domain.Book.
// Extra destinations are scanned after the book columns.
func scanBook(sc scanner, extra ...any) (*domain.Book, error) {
	var b domain.Book

	var (
		createdAt string
		updatedAt string
		coverURL  sql.NullString
		year      sql.NullInt64
		isbn      sql.NullString
		olid      sql.NullString
		coverID   sql.NullInt64
		addedBy   sql.NullString
	)

	dest := []any{
		&b.ID,
		&createdAt,
		&updatedAt,
		&b.Title,
		&b.Author,
		&b.Genre,
		&b.Description,
		&coverURL,
		&year,
		&isbn,
		&olid,
		&coverID,
		&addedBy,
	}
	if err := sc.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	var err error
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	b.CoverURL = coverURL.String
	b.Year = int(year.Int64)
	b.ISBN = isbn.String
	b.OpenLibraryID = olid.String
	b.CoverID = int(coverID.Int64)
	b.AddedBy = addedBy.String

	return &b, nil
}

// scanRatedBook scans book columns followed by r.avg and r.cnt.
func scanRatedBook(sc scanner) (*domain.RatedBook, error) {
	var (
		avg sql.NullFloat64
		cnt sql.NullInt64
	)
	b, err := scanBook(sc, &avg, &cnt)
	if err != nil {
		return nil, err
	}
	return &domain.RatedBook{
		Book: *b,
		Rating: domain.RatingSummary{
			BookID:  b.ID,
			Average: avg.Float64,
			Count:   int(cnt.Int64),
		},
	}, nil
}

// CreateBook inserts a new book and indexes it for search.
// Returns store.ErrAlreadyExists if a book with the same title and author exists.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (
			id, created_at, updated_at, title, author, genre, description,
			cover_url, year, isbn, olid, cover_id, title_key, author_key, added_by
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID,
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
		book.Title,
		book.Author,
		book.Genre,
		book.Description,
		nullString(book.CoverURL),
		nullInt64(int64(book.Year)),
		nullString(book.ISBN),
		nullString(book.OpenLibraryID),
		nullInt64(int64(book.CoverID)),
		normalize.Fold(book.Title),
		normalize.Fold(book.Author),
		nullString(book.AddedBy),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithCause(err)
	}
	if err != nil {
		return err
	}

	s.indexBook(ctx, book)
	return nil
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books b WHERE b.id = ?`, id)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return b, err
}

// GetBookByTitleAuthor retrieves a book by case-insensitive title and author.
func (s *Store) GetBookByTitleAuthor(ctx context.Context, title, author string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books b WHERE lower(b.title) = lower(?) AND lower(b.author) = lower(?)`,
		strings.TrimSpace(title), strings.TrimSpace(author))
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return b, err
}

// UpdateBook saves a book's editable fields. Ownership is not changed.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE books SET
			updated_at = ?, title = ?, author = ?, genre = ?, description = ?,
			cover_url = ?, year = ?, isbn = ?, olid = ?, cover_id = ?,
			title_key = ?, author_key = ?
		WHERE id = ?`,
		formatTime(book.UpdatedAt),
		book.Title,
		book.Author,
		book.Genre,
		book.Description,
		nullString(book.CoverURL),
		nullInt64(int64(book.Year)),
		nullString(book.ISBN),
		nullString(book.OpenLibraryID),
		nullInt64(int64(book.CoverID)),
		normalize.Fold(book.Title),
		normalize.Fold(book.Author),
		book.ID,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithCause(err)
	}
	if err != nil {
		return err
	}
	if err := expectAffected(result); err != nil {
		return err
	}

	s.indexBook(ctx, book)
	return nil
}

// DeleteBook removes a book. Its reviews, favourites and history go with it.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := expectAffected(result); err != nil {
		return err
	}

	if err := s.indexer().DeleteBook(ctx, id); err != nil {
		s.logger.Warn("failed to remove book from search index", "book_id", id, "error", err)
	}
	return nil
}

func (s *Store) indexBook(ctx context.Context, book *domain.Book) {
	if err := s.indexer().IndexBook(ctx, book); err != nil {
		s.logger.Warn("failed to index book", "book_id", book.ID, "error", err)
	}
}

// bookWhere builds the WHERE clause for a filter over books aliased as b.
func bookWhere(f store.BookFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q := normalize.Fold(f.Query); q != "" {
		// Title and author are matched separately so a query never spans both.
		conds = append(conds, `(b.title_key LIKE ? ESCAPE '\' OR b.author_key LIKE ? ESCAPE '\')`)
		args = append(args, likePattern(q), likePattern(q))
	}
	if g := strings.TrimSpace(f.Genre); g != "" {
		conds = append(conds, `b.genre = ? COLLATE NOCASE`)
		args = append(args, g)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// SearchBooks lists books matching the filter, ordered by title.
func (s *Store) SearchBooks(ctx context.Context, filter store.BookFilter, page store.Page) (*store.PageResult[*domain.RatedBook], error) {
	page.Validate()
	where, args := bookWhere(filter)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books b`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	books, err := s.queryRatedBooks(ctx,
		`SELECT `+bookColumns+`, r.avg, r.cnt FROM books b`+ratingJoin+where+
			` ORDER BY b.title COLLATE NOCASE, b.author COLLATE NOCASE LIMIT ? OFFSET ?`,
		append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, err
	}
	return store.NewPageResult(books, page, total), nil
}

// TopRatedBooks lists the highest rated books matching the filter.
// Books without reviews sort last.
func (s *Store) TopRatedBooks(ctx context.Context, filter store.BookFilter, limit int) ([]*domain.RatedBook, error) {
	where, args := bookWhere(filter)
	return s.queryRatedBooks(ctx,
		`SELECT `+bookColumns+`, r.avg, r.cnt FROM books b`+ratingJoin+where+
			` ORDER BY COALESCE(r.avg, 0) DESC, COALESCE(r.cnt, 0) DESC, b.title COLLATE NOCASE LIMIT ?`,
		append(args, limit)...)
}

// RecentBooks lists the most recently added books.
func (s *Store) RecentBooks(ctx context.Context, limit int) ([]*domain.RatedBook, error) {
	return s.queryRatedBooks(ctx,
		`SELECT `+bookColumns+`, r.avg, r.cnt FROM books b`+ratingJoin+
			` ORDER BY b.created_at DESC, b.id LIMIT ?`, limit)
}

func (s *Store) queryRatedBooks(ctx context.Context, query string, args ...any) ([]*domain.RatedBook, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*domain.RatedBook
	for rows.Next() {
		b, err := scanRatedBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// CountBooks returns the number of books in the catalogue.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n)
	return n, err
}

// IterBooks returns an iterator over every book, for index rebuilds.
func (s *Store) IterBooks(ctx context.Context) iter.Seq2[*domain.Book, error] {
	return func(yield func(*domain.Book, error) bool) {
		rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books b ORDER BY b.id`)
		if err != nil {
			yield(nil, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			if ctx.Err() != nil {
				yield(nil, ctx.Err())
				return
			}

			b, err := scanBook(rows)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			if !yield(b, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}
