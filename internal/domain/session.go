package domain

import "time"

// sessionTouchInterval throttles LastSeenAt writes.
const sessionTouchInterval = time.Minute

// Session is a logged-in browser. The cookie carries an opaque token;
// only its hash is stored here.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	TokenHash  string    `json:"-"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
}

// IsExpired reports whether the session is past its expiry at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// NeedsTouch reports whether LastSeenAt is stale enough to be rewritten.
func (s *Session) NeedsTouch(now time.Time) bool {
	return now.Sub(s.LastSeenAt) >= sessionTouchInterval
}

// PasswordReset is an issued password reset token. Only the token hash is stored.
type PasswordReset struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	TokenHash string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsUsed reports whether the reset was already consumed.
func (r *PasswordReset) IsUsed() bool {
	return r.UsedAt != nil
}

// IsExpired reports whether the reset is past its expiry at now.
func (r *PasswordReset) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
