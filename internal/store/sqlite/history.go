package sqlite

import (
	"context"
	"time"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store"
)

// RecordView records that a user viewed a book. Repeat views move viewed_at.
func (s *Store) RecordView(ctx context.Context, userID, bookID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reading_history (user_id, book_id, viewed_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id, book_id) DO UPDATE SET viewed_at = excluded.viewed_at`,
		userID, bookID, formatTime(at))
	if isForeignKeyViolation(err) {
		return store.ErrNotFound.WithCause(err)
	}
	return err
}

// ListHistory lists the books a user viewed, most recent first.
func (s *Store) ListHistory(ctx context.Context, userID string, filter store.BookFilter, limit int) ([]*domain.HistoryEntry, error) {
	where, args := bookWhere(filter)
	if where == "" {
		where = " WHERE h.user_id = ?"
	} else {
		where += " AND h.user_id = ?"
	}
	args = append(args, userID, limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+`, h.viewed_at FROM reading_history h JOIN books b ON b.id = h.book_id`+where+
			` ORDER BY h.viewed_at DESC, b.id LIMIT ?`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.HistoryEntry
	for rows.Next() {
		var viewedAt string
		b, err := scanBook(rows, &viewedAt)
		if err != nil {
			return nil, err
		}
		e := &domain.HistoryEntry{UserID: userID, BookID: b.ID, Book: *b}
		if e.ViewedAt, err = parseTime(viewedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
