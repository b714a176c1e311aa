package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store"
)

// GetUserSettings retrieves a user's saved preferences.
// Returns store.ErrNotFound when the user never saved any.
func (s *Store) GetUserSettings(ctx context.Context, userID string) (*domain.UserSettings, error) {
	var (
		us            domain.UserSettings
		theme         string
		publicProfile int
		notifications int
		updatedAt     string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, theme, language, public_profile, email_notifications, updated_at
		FROM user_settings WHERE user_id = ?`, userID,
	).Scan(&us.UserID, &theme, &us.Language, &publicProfile, &notifications, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	us.Theme = domain.Theme(theme)
	us.PublicProfile = publicProfile != 0
	us.EmailNotifications = notifications != 0
	if us.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &us, nil
}

// UpsertUserSettings creates or replaces a user's preferences.
func (s *Store) UpsertUserSettings(ctx context.Context, settings *domain.UserSettings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, theme, language, public_profile, email_notifications, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			theme = excluded.theme,
			language = excluded.language,
			public_profile = excluded.public_profile,
			email_notifications = excluded.email_notifications,
			updated_at = excluded.updated_at`,
		settings.UserID,
		string(settings.Theme),
		settings.Language,
		boolToInt(settings.PublicProfile),
		boolToInt(settings.EmailNotifications),
		formatTime(settings.UpdatedAt),
	)
	if isForeignKeyViolation(err) {
		return store.ErrNotFound.WithCause(err)
	}
	return err
}
