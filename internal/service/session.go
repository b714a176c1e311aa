package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/bookbuddyapp/bookbuddy-server/internal/auth"
	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	domainerrors "github.com/bookbuddyapp/bookbuddy-server/internal/errors"
	"github.com/bookbuddyapp/bookbuddy-server/internal/id"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store"
)

// ClientInfo describes the client a session was opened from.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// SessionService handles cookie session lifecycle.
// Only the SHA-256 of a session token is ever stored.
type SessionService struct {
	store    store.Store
	duration time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessionService creates a new session management service.
func NewSessionService(store store.Store, duration time.Duration, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		store:    store,
		duration: duration,
		logger:   logger,
		now:      time.Now,
	}
}

// Duration returns the configured session lifetime.
func (s *SessionService) Duration() time.Duration {
	return s.duration
}

// SessionResult is a freshly opened session and its raw token.
// The token is only available here; it goes into the session cookie.
type SessionResult struct {
	Session *domain.Session
	Token   string
}

// CreateSession opens a new session for user.
func (s *SessionService) CreateSession(ctx context.Context, user *domain.User, client ClientInfo) (*SessionResult, error) {
	token, err := auth.NewSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	sessionID, err := id.Generate(id.PrefixSession)
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	now := s.now()
	session := &domain.Session{
		ID:         sessionID,
		UserID:     user.ID,
		TokenHash:  auth.HashToken(token),
		ExpiresAt:  now.Add(s.duration),
		CreatedAt:  now,
		LastSeenAt: now,
		IPAddress:  client.IPAddress,
		UserAgent:  truncate(client.UserAgent, 512),
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &SessionResult{Session: session, Token: token}, nil
}

// ValidateSession resolves a raw session token to its user.
// Missing, unknown and expired sessions all return Unauthenticated.
func (s *SessionService) ValidateSession(ctx context.Context, token string) (*domain.User, *domain.Session, error) {
	if token == "" {
		return nil, nil, domainerrors.Unauthenticated("no session")
	}

	session, err := s.store.GetSessionByTokenHash(ctx, auth.HashToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.Unauthenticated("session not found")
		}
		return nil, nil, fmt.Errorf("lookup session: %w", err)
	}

	now := s.now()
	if session.IsExpired(now) {
		if err := s.store.DeleteSession(ctx, session.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("failed to delete expired session", "session_id", session.ID, "error", err)
		}
		return nil, nil, domainerrors.Unauthenticated("session expired")
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// User was deleted, clean up session
			_ = s.store.DeleteSession(ctx, session.ID)
			return nil, nil, domainerrors.Unauthenticated("session user no longer exists")
		}
		return nil, nil, fmt.Errorf("get session user: %w", err)
	}

	if session.NeedsTouch(now) {
		if err := s.store.TouchSession(ctx, session.ID, now); err != nil {
			s.logger.Warn("failed to touch session", "session_id", session.ID, "error", err)
		} else {
			session.LastSeenAt = now
		}
	}

	return user, session, nil
}

// DeleteSession ends the session holding token. Unknown tokens succeed.
func (s *SessionService) DeleteSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	session, err := s.store.GetSessionByTokenHash(ctx, auth.HashToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup session: %w", err)
	}

	if err := s.store.DeleteSession(ctx, session.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}

	s.logger.Info("session deleted", "session_id", session.ID, "user_id", session.UserID)
	return nil
}

// RevokeUserSessions deletes every session of userID except exceptID.
// Pass an empty exceptID to revoke them all.
func (s *SessionService) RevokeUserSessions(ctx context.Context, userID, exceptID string) (int64, error) {
	n, err := s.store.DeleteUserSessions(ctx, userID, exceptID)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info("revoked sessions", "user_id", userID, "count", n)
	}
	return n, nil
}

// DeleteExpiredSessions removes all expired sessions.
// This should be run periodically as a cleanup job.
func (s *SessionService) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	count, err := s.store.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	if count > 0 {
		s.logger.Info("deleted expired sessions", "count", count)
	}

	return count, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
