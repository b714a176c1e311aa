package domain

import (
	"strings"
	"time"
)

// DefaultDisplayName is used when a reader signs up without a name.
const DefaultDisplayName = "New Reader"

// MaxBioLength caps the profile bio, in runes.
const MaxBioLength = 200

// User represents a reader account.
type User struct {
	Entity
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	DisplayName    string     `json:"display_name"`
	Handle         string     `json:"handle,omitempty"` // stored with a leading "@"
	Bio            string     `json:"bio,omitempty"`
	AvatarPath     string     `json:"-"`
	AvatarBlurHash string     `json:"avatar_blurhash,omitempty"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// Name returns the best available name to display for the user.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Handle != "" {
		return u.Handle
	}
	if local, _, ok := strings.Cut(u.Email, "@"); ok {
		return local
	}
	return DefaultDisplayName
}

// HasAvatar reports whether the user uploaded an avatar.
func (u *User) HasAvatar() bool {
	return u.AvatarPath != ""
}

// IsDeleted reports whether the account has been soft-deleted.
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// MarkDeleted soft-deletes the account.
func (u *User) MarkDeleted() {
	now := time.Now().UTC()
	u.DeletedAt = &now
	u.UpdatedAt = now
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeHandle trims a handle, lowercases it and ensures a single leading "@".
// Returns "" for blank input.
func NormalizeHandle(handle string) string {
	h := strings.TrimLeft(strings.TrimSpace(handle), "@")
	if h == "" {
		return ""
	}
	return "@" + strings.ToLower(h)
}
