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

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `id, created_at, updated_at, deleted_at, email, password_hash,
	display_name, handle, bio, avatar_path, avatar_blur_hash`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.User.
func scanUser(sc scanner) (*domain.User, error) {
	var u domain.User

	var (
		createdAt  string
		updatedAt  string
		deletedAt  sql.NullString
		handle     sql.NullString
		avatarPath sql.NullString
		blurHash   sql.NullString
	)

	err := sc.Scan(
		&u.ID,
		&createdAt,
		&updatedAt,
		&deletedAt,
		&u.Email,
		&u.PasswordHash,
		&u.DisplayName,
		&handle,
		&u.Bio,
		&avatarPath,
		&blurHash,
	)
	if err != nil {
		return nil, err
	}

	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if u.DeletedAt, err = parseNullableTime(deletedAt); err != nil {
		return nil, err
	}

	u.Handle = handle.String
	u.AvatarPath = avatarPath.String
	u.AvatarBlurHash = blurHash.String

	return &u, nil
}

// CreateUser inserts a new user.
// Returns store.ErrAlreadyExists if the ID, live email or handle is taken.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
		nullTimeString(user.DeletedAt),
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		nullString(user.Handle),
		user.Bio,
		nullString(user.AvatarPath),
		nullString(user.AvatarBlurHash),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithCause(err)
	}
	return err
}

func (s *Store) getUserWhere(ctx context.Context, where string, arg any) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where+` AND deleted_at IS NULL`, arg)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser retrieves a user by ID, excluding soft-deleted records.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getUserWhere(ctx, "id = ?", id)
}

// GetUserByEmail retrieves a live user by email. The email must already be normalized.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUserWhere(ctx, "email = ?", email)
}

// GetUserByHandle retrieves a live user by handle, including the leading "@".
func (s *Store) GetUserByHandle(ctx context.Context, handle string) (*domain.User, error) {
	return s.getUserWhere(ctx, "handle = ?", handle)
}

// UpdateUser saves the mutable profile fields and password hash of a live user.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			updated_at = ?, email = ?, password_hash = ?, display_name = ?,
			handle = ?, bio = ?, avatar_path = ?, avatar_blur_hash = ?
		WHERE id = ? AND deleted_at IS NULL`,
		formatTime(user.UpdatedAt),
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		nullString(user.Handle),
		user.Bio,
		nullString(user.AvatarPath),
		nullString(user.AvatarBlurHash),
		user.ID,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithCause(err)
	}
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// SoftDeleteUser marks a user deleted and, in one transaction, removes
// everything that belongs to them except the books they added, which lose
// their owner.
func (s *Store) SoftDeleteUser(ctx context.Context, id string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE users SET deleted_at = ?, updated_at = ?, handle = NULL,
			avatar_path = NULL, avatar_blur_hash = NULL
		WHERE id = ? AND deleted_at IS NULL`,
		formatTime(at), formatTime(at), id)
	if err != nil {
		return fmt.Errorf("mark user deleted: %w", err)
	}
	if err := expectAffected(result); err != nil {
		return err
	}

	cascade := []struct{ name, query string }{
		{"reviews", `DELETE FROM reviews WHERE user_id = ?`},
		{"favourites", `DELETE FROM favourites WHERE user_id = ?`},
		{"history", `DELETE FROM reading_history WHERE user_id = ?`},
		{"settings", `DELETE FROM user_settings WHERE user_id = ?`},
		{"sessions", `DELETE FROM sessions WHERE user_id = ?`},
		{"password resets", `DELETE FROM password_resets WHERE user_id = ?`},
		{"book ownership", `UPDATE books SET added_by = NULL WHERE added_by = ?`},
	}
	for _, c := range cascade {
		if _, err := tx.ExecContext(ctx, c.query, id); err != nil {
			return fmt.Errorf("cascade %s: %w", c.name, err)
		}
	}

	return tx.Commit()
}

// PurgeDeletedUsers hard-deletes users soft-deleted before the cutoff.
// Foreign keys clean up anything that still references them.
func (s *Store) PurgeDeletedUsers(ctx context.Context, deletedBefore time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM users WHERE deleted_at IS NOT NULL AND deleted_at < ?`,
		formatTime(deletedBefore))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// expectAffected returns store.ErrNotFound when an UPDATE or DELETE matched nothing.
func expectAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
