package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store"
)

// AddFavourite marks a book as a favourite. Adding twice leaves one row.
// Returns store.ErrNotFound if the user or book does not exist.
func (s *Store) AddFavourite(ctx context.Context, userID, bookID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favourites (user_id, book_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id, book_id) DO NOTHING`,
		userID, bookID, formatTime(time.Now()))
	if isForeignKeyViolation(err) {
		return store.ErrNotFound.WithCause(err)
	}
	return err
}

// RemoveFavourite unmarks a book. Removing a missing favourite succeeds.
func (s *Store) RemoveFavourite(ctx context.Context, userID, bookID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM favourites WHERE user_id = ? AND book_id = ?`, userID, bookID)
	return err
}

// ToggleFavourite flips the favourite state and returns the new state.
func (s *Store) ToggleFavourite(ctx context.Context, userID, bookID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM favourites WHERE user_id = ? AND book_id = ?`, userID, bookID)
	if err != nil {
		return false, err
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	if removed == 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO favourites (user_id, book_id, created_at) VALUES (?, ?, ?)`,
			userID, bookID, formatTime(time.Now()))
		if isForeignKeyViolation(err) {
			return false, store.ErrNotFound.WithCause(err)
		}
		if err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return removed == 0, nil
}

// IsFavourite reports whether the user has favourited the book.
func (s *Store) IsFavourite(ctx context.Context, userID, bookID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM favourites WHERE user_id = ? AND book_id = ?)`,
		userID, bookID).Scan(&exists)
	return exists, err
}

// ListFavourites lists a user's favourite books, most recently added first.
func (s *Store) ListFavourites(ctx context.Context, userID string, filter store.BookFilter, page store.Page) (*store.PageResult[*domain.FavouriteBook], error) {
	page.Validate()

	where, args := bookWhere(filter)
	if where == "" {
		where = " WHERE f.user_id = ?"
	} else {
		where += " AND f.user_id = ?"
	}
	args = append(args, userID)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favourites f JOIN books b ON b.id = f.book_id`+where,
		args...).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+`, f.created_at FROM favourites f JOIN books b ON b.id = f.book_id`+where+
			` ORDER BY f.created_at DESC, b.id LIMIT ? OFFSET ?`,
		append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.FavouriteBook
	for rows.Next() {
		var createdAt string
		b, err := scanBook(rows, &createdAt)
		if err != nil {
			return nil, err
		}
		fav := &domain.FavouriteBook{
			Favourite: domain.Favourite{UserID: userID, BookID: b.ID},
			Book:      *b,
		}
		if fav.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		items = append(items, fav)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return store.NewPageResult(items, page, total), nil
}

// ListFavouriteBookIDs returns the IDs of every book the user favourited.
func (s *Store) ListFavouriteBookIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT book_id FROM favourites WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
