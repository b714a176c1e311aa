package domain

import "time"

// Theme is the site colour scheme.
type Theme string

// Supported themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Languages maps supported interface language codes to their names.
//
//nolint:gochecknoglobals // Static lookup table
var Languages = map[string]string{
	"en": "English",
	"es": "Español",
	"fr": "Français",
	"de": "Deutsch",
	"it": "Italiano",
}

// LanguageCodes lists Languages keys in display order.
//
//nolint:gochecknoglobals // Static lookup table
var LanguageCodes = []string{"en", "es", "fr", "de", "it"}

// UserSettings holds a reader's preferences.
type UserSettings struct {
	UserID             string    `json:"user_id"`
	Theme              Theme     `json:"theme"`
	Language           string    `json:"language"`
	PublicProfile      bool      `json:"public_profile"`
	EmailNotifications bool      `json:"email_notifications"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewUserSettings returns the defaults for a user who never saved preferences.
func NewUserSettings(userID string) *UserSettings {
	return &UserSettings{
		UserID:             userID,
		Theme:              ThemeLight,
		Language:           "en",
		PublicProfile:      true,
		EmailNotifications: true,
		UpdatedAt:          time.Now().UTC(),
	}
}
