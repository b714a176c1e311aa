package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store"
)

// reviewColumns must match the scan order in scanReview. Queries alias reviews as rv.
const reviewColumns = `rv.id, rv.created_at, rv.updated_at, rv.user_id, rv.book_id, rv.rating, rv.body`

func scanReview(sc scanner, extra ...any) (*domain.Review, error) {
	var (
		r         domain.Review
		createdAt string
		updatedAt string
	)
	dest := []any{&r.ID, &createdAt, &updatedAt, &r.UserID, &r.BookID, &r.Rating, &r.Body}
	if err := sc.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	var err error
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// UpsertReview creates the user's review of a book, or replaces the rating and
// body of their existing one. On return review.ID and review.CreatedAt hold the
// stored values. Returns store.ErrNotFound if the user or book does not exist.
func (s *Store) UpsertReview(ctx context.Context, review *domain.Review) (bool, error) {
	var (
		id        string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO reviews (id, created_at, updated_at, user_id, book_id, rating, body)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, book_id) DO UPDATE SET
			rating = excluded.rating,
			body = excluded.body,
			updated_at = excluded.updated_at
		RETURNING id, created_at`,
		review.ID,
		formatTime(review.CreatedAt),
		formatTime(review.UpdatedAt),
		review.UserID,
		review.BookID,
		review.Rating,
		review.Body,
	).Scan(&id, &createdAt)
	if isForeignKeyViolation(err) {
		return false, store.ErrNotFound.WithCause(err)
	}
	if err != nil {
		return false, err
	}

	created := id == review.ID
	review.ID = id
	if review.CreatedAt, err = parseTime(createdAt); err != nil {
		return false, err
	}
	return created, nil
}

// GetReview retrieves a review by ID.
func (s *Store) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews rv WHERE rv.id = ?`, id)
	r, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return r, err
}

// GetUserReview retrieves a user's review of a book.
func (s *Store) GetUserReview(ctx context.Context, userID, bookID string) (*domain.Review, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews rv WHERE rv.user_id = ? AND rv.book_id = ?`, userID, bookID)
	r, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return r, err
}

// DeleteReview removes a review.
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// ListBookReviews lists a book's reviews with their authors, newest first.
func (s *Store) ListBookReviews(ctx context.Context, bookID string, page store.Page) (*store.PageResult[*domain.ReviewWithAuthor], error) {
	page.Validate()

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE book_id = ?`, bookID).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reviewColumns+`, u.display_name, u.handle, u.email
		FROM reviews rv JOIN users u ON u.id = rv.user_id
		WHERE rv.book_id = ?
		ORDER BY rv.created_at DESC, rv.id
		LIMIT ? OFFSET ?`,
		bookID, page.Size, page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.ReviewWithAuthor
	for rows.Next() {
		var (
			author domain.User
			handle sql.NullString
		)
		r, err := scanReview(rows, &author.DisplayName, &handle, &author.Email)
		if err != nil {
			return nil, err
		}
		author.Handle = handle.String
		items = append(items, &domain.ReviewWithAuthor{
			Review:       *r,
			AuthorName:   author.Name(),
			AuthorHandle: author.Handle,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return store.NewPageResult(items, page, total), nil
}

// ListUserReviews lists a user's reviews with their books, newest first.
func (s *Store) ListUserReviews(ctx context.Context, userID string, page store.Page) (*store.PageResult[*domain.ReviewWithBook], error) {
	page.Validate()

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bookColumns+`, `+reviewColumns+`
		FROM reviews rv JOIN books b ON b.id = rv.book_id
		WHERE rv.user_id = ?
		ORDER BY rv.created_at DESC, rv.id
		LIMIT ? OFFSET ?`,
		userID, page.Size, page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.ReviewWithBook
	for rows.Next() {
		var (
			r         domain.Review
			createdAt string
			updatedAt string
		)
		b, err := scanBook(rows, &r.ID, &createdAt, &updatedAt, &r.UserID, &r.BookID, &r.Rating, &r.Body)
		if err != nil {
			return nil, err
		}
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		items = append(items, &domain.ReviewWithBook{Review: r, Book: *b})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return store.NewPageResult(items, page, total), nil
}

// GetRatingSummary returns the average rating and review count of a book.
// A book without reviews has a zero summary.
func (s *Store) GetRatingSummary(ctx context.Context, bookID string) (*domain.RatingSummary, error) {
	var (
		avg sql.NullFloat64
		cnt int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT AVG(rating), COUNT(*) FROM reviews WHERE book_id = ?`, bookID).Scan(&avg, &cnt)
	if err != nil {
		return nil, err
	}
	return &domain.RatingSummary{BookID: bookID, Average: avg.Float64, Count: cnt}, nil
}
