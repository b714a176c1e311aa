package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	"github.com/bookbuddyapp/bookbuddy-server/internal/normalize"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store"
	"github.com/bookbuddyapp/bookbuddy-server/internal/validation"
)

// SettingsService manages per-user preferences.
type SettingsService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(store store.Store, validator *validation.Validator, logger *slog.Logger) *SettingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsService{store: store, validator: validator, logger: logger}
}

// SettingsUpdate contains submitted preferences.
type SettingsUpdate struct {
	Theme              string `json:"theme" form:"theme" validate:"required,theme"`
	Language           string `json:"language" form:"language" validate:"required,language"`
	PublicProfile      bool   `json:"public_profile" form:"public_profile"`
	EmailNotifications bool   `json:"email_notifications" form:"email_notifications"`
}

// Get returns userID's settings, or the defaults when none were saved.
func (s *SettingsService) Get(ctx context.Context, userID string) (*domain.UserSettings, error) {
	settings, err := s.store.GetUserSettings(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.NewUserSettings(userID), nil
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return settings, nil
}

// Update saves actor's preferences. Languages may be given as codes,
// locales or names ("en-GB", "Español").
func (s *SettingsService) Update(ctx context.Context, actor *domain.User, req SettingsUpdate) (*domain.UserSettings, error) {
	req.Theme = strings.ToLower(strings.TrimSpace(req.Theme))
	if code := normalize.LanguageCode(req.Language); code != "" {
		req.Language = code
	}

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	settings := &domain.UserSettings{
		UserID:             actor.ID,
		Theme:              domain.Theme(req.Theme),
		Language:           req.Language,
		PublicProfile:      req.PublicProfile,
		EmailNotifications: req.EmailNotifications,
		UpdatedAt:          time.Now(),
	}

	if err := s.store.UpsertUserSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	s.logger.Info("settings updated", "user_id", actor.ID)
	return settings, nil
}
