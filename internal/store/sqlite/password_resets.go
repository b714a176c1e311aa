package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store"
)

const resetColumns = `id, user_id, token_hash, expires_at, used_at, created_at`

func scanPasswordReset(sc scanner) (*domain.PasswordReset, error) {
	var (
		r         domain.PasswordReset
		expiresAt string
		usedAt    sql.NullString
		createdAt string
	)
	if err := sc.Scan(&r.ID, &r.UserID, &r.TokenHash, &expiresAt, &usedAt, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if r.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	if r.UsedAt, err = parseNullableTime(usedAt); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreatePasswordReset stores an issued reset token.
func (s *Store) CreatePasswordReset(ctx context.Context, reset *domain.PasswordReset) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_resets (`+resetColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		reset.ID,
		reset.UserID,
		reset.TokenHash,
		formatTime(reset.ExpiresAt),
		nullTimeString(reset.UsedAt),
		formatTime(reset.CreatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithCause(err)
	}
	if isForeignKeyViolation(err) {
		return store.ErrNotFound.WithCause(err)
	}
	return err
}

// GetPasswordReset retrieves a reset by ID, used or not.
func (s *Store) GetPasswordReset(ctx context.Context, id string) (*domain.PasswordReset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+resetColumns+` FROM password_resets WHERE id = ?`, id)
	r, err := scanPasswordReset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return r, err
}

// ResetPassword consumes a reset and stores the user's new password hash in
// one transaction. Exactly one caller can consume a given reset; everyone
// else gets store.ErrAlreadyUsed. If the user cannot be updated the reset
// stays unused.
func (s *Store) ResetPassword(ctx context.Context, resetID, userID, passwordHash string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE password_resets SET used_at = ? WHERE id = ? AND used_at IS NULL`,
		formatTime(at), resetID)
	if err != nil {
		return fmt.Errorf("consume reset: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrAlreadyUsed
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, formatTime(at), userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := expectAffected(result); err != nil {
		return err
	}

	return tx.Commit()
}

// InvalidateUserPasswordResets marks every unused reset of a user as used.
func (s *Store) InvalidateUserPasswordResets(ctx context.Context, userID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE password_resets SET used_at = ? WHERE user_id = ? AND used_at IS NULL`,
		formatTime(at), userID)
	return err
}

// DeleteExpiredPasswordResets removes resets that expired at or before now.
func (s *Store) DeleteExpiredPasswordResets(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM password_resets WHERE expires_at <= ?`, formatTime(now))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
