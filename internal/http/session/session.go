// Package session carries the login session between the cookie and the
// request context.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	domainerrors "github.com/bookbuddyapp/bookbuddy-server/internal/errors"
)

// CookieName is the name of the session cookie.
const CookieName = "bookbuddy_session"

// Validator resolves a session token to its user.
type Validator interface {
	ValidateSession(ctx context.Context, token string) (*domain.User, *domain.Session, error)
}

// Manager reads and writes the session cookie.
type Manager struct {
	validator Validator
	secure    bool
	logger    *slog.Logger
}

// NewManager creates a session manager. secure marks cookies HTTPS-only.
func NewManager(validator Validator, secure bool, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{validator: validator, secure: secure, logger: logger}
}

// Load is middleware that attaches the user of a valid session cookie to the
// request context. Requests without a valid session continue anonymously;
// a stale or revoked cookie is cleared.
func (m *Manager) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := Token(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, sess, err := m.validator.ValidateSession(r.Context(), token)
		if err != nil {
			// Only a rejected token is dropped. A failed lookup keeps the
			// cookie so the next request can try again.
			if errors.Is(err, domainerrors.ErrUnauthenticated) {
				m.Clear(w)
			} else {
				m.logger.Error("session validation failed", "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user, sess)))
	})
}

// Set writes the session cookie.
func (m *Manager) Set(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Token returns the raw session token of r, or "".
func Token(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

type ctxKey int

const (
	userKey ctxKey = iota
	sessionKey
)

// WithUser returns a context carrying the signed-in user and their session.
func WithUser(ctx context.Context, user *domain.User, sess *domain.Session) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, sessionKey, sess)
}

// User returns the signed-in user, or nil for anonymous requests.
func User(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userKey).(*domain.User)
	return u
}

// Current returns the session of the signed-in user, or nil.
func Current(ctx context.Context) *domain.Session {
	s, _ := ctx.Value(sessionKey).(*domain.Session)
	return s
}

// RequireUser returns the signed-in user or an Unauthenticated error.
func RequireUser(ctx context.Context) (*domain.User, error) {
	if u := User(ctx); u != nil {
		return u, nil
	}
	return nil, domainerrors.Unauthenticated("sign in to continue")
}
