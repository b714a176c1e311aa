package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(id, userID, hash string, expires time.Time) *domain.Session {
	now := time.Now().UTC()
	return &domain.Session{
		ID: id, UserID: userID, TokenHash: hash,
		ExpiresAt: expires, CreatedAt: now, LastSeenAt: now,
		IPAddress: "127.0.0.1", UserAgent: "test",
	}
}

func TestSessions_CRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustCreateUser(t, s, "user-1", "a@example.com")
	exp := time.Now().UTC().Add(time.Hour)

	require.NoError(t, s.CreateSession(ctx, newSession("sess-1", u.ID, "h1", exp)))

	got, err := s.GetSessionByTokenHash(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", got.ID)
	assert.Equal(t, "127.0.0.1", got.IPAddress)
	assert.WithinDuration(t, exp, got.ExpiresAt, time.Microsecond)

	later := time.Now().UTC().Add(5 * time.Minute)
	require.NoError(t, s.TouchSession(ctx, "sess-1", later))
	got, err = s.GetSessionByTokenHash(ctx, "h1")
	require.NoError(t, err)
	assert.WithinDuration(t, later, got.LastSeenAt, time.Microsecond)

	require.NoError(t, s.DeleteSession(ctx, "sess-1"))
	require.NoError(t, s.DeleteSession(ctx, "sess-1"), "idempotent")
	_, err = s.GetSessionByTokenHash(ctx, "h1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSessions_DeleteUserSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustCreateUser(t, s, "user-1", "a@example.com")
	exp := time.Now().UTC().Add(time.Hour)

	for _, id := range []string{"sess-1", "sess-2", "sess-3"} {
		require.NoError(t, s.CreateSession(ctx, newSession(id, u.ID, "hash-"+id, exp)))
	}

	n, err := s.DeleteUserSessions(ctx, u.ID, "sess-2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = s.GetSessionByTokenHash(ctx, "hash-sess-2")
	assert.NoError(t, err)

	n, err = s.DeleteUserSessions(ctx, u.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSessions_DeleteExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustCreateUser(t, s, "user-1", "a@example.com")
	now := time.Now().UTC()

	require.NoError(t, s.CreateSession(ctx, newSession("sess-old", u.ID, "h-old", now.Add(-time.Minute))))
	require.NoError(t, s.CreateSession(ctx, newSession("sess-new", u.ID, "h-new", now.Add(time.Hour))))

	n, err := s.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.GetSessionByTokenHash(ctx, "h-new")
	assert.NoError(t, err)
}

func TestPasswordResets_ConsumeOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustCreateUser(t, s, "user-1", "a@example.com")
	now := time.Now().UTC()

	reset := &domain.PasswordReset{
		ID: "reset-1", UserID: u.ID, TokenHash: "th",
		ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}
	require.NoError(t, s.CreatePasswordReset(ctx, reset))

	got, err := s.GetPasswordReset(ctx, "reset-1")
	require.NoError(t, err)
	assert.False(t, got.IsUsed())
	assert.Equal(t, "th", got.TokenHash)

	require.NoError(t, s.ResetPassword(ctx, "reset-1", u.ID, "new-hash", now))
	assert.ErrorIs(t, s.ResetPassword(ctx, "reset-1", u.ID, "other-hash", now), store.ErrAlreadyUsed)

	got, err = s.GetPasswordReset(ctx, "reset-1")
	require.NoError(t, err)
	assert.True(t, got.IsUsed())

	user, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", user.PasswordHash)
}

func TestResetPassword_UserUpdateFailureKeepsResetUnused(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustCreateUser(t, s, "user-1", "a@example.com")
	now := time.Now().UTC()

	require.NoError(t, s.CreatePasswordReset(ctx, &domain.PasswordReset{
		ID: "reset-1", UserID: u.ID, TokenHash: "th", ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}))

	err := s.ResetPassword(ctx, "reset-1", "no-such-user", "new-hash", now)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetPasswordReset(ctx, "reset-1")
	require.NoError(t, err)
	assert.False(t, got.IsUsed())

	// The link still works once the user can be written.
	require.NoError(t, s.ResetPassword(ctx, "reset-1", u.ID, "new-hash", now))
}

func TestPasswordResets_InvalidateAndExpire(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustCreateUser(t, s, "user-1", "a@example.com")
	now := time.Now().UTC()

	require.NoError(t, s.CreatePasswordReset(ctx, &domain.PasswordReset{
		ID: "reset-1", UserID: u.ID, TokenHash: "a", ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}))
	require.NoError(t, s.CreatePasswordReset(ctx, &domain.PasswordReset{
		ID: "reset-2", UserID: u.ID, TokenHash: "b", ExpiresAt: now.Add(-time.Hour), CreatedAt: now,
	}))

	require.NoError(t, s.InvalidateUserPasswordResets(ctx, u.ID, now))
	assert.ErrorIs(t, s.ResetPassword(ctx, "reset-1", u.ID, "new-hash", now), store.ErrAlreadyUsed)

	n, err := s.DeleteExpiredPasswordResets(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.GetPasswordReset(ctx, "reset-2")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserSettings_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustCreateUser(t, s, "user-1", "a@example.com")

	_, err := s.GetUserSettings(ctx, u.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	settings := domain.NewUserSettings(u.ID)
	settings.Theme = domain.ThemeDark
	settings.Language = "fr"
	settings.PublicProfile = false
	require.NoError(t, s.UpsertUserSettings(ctx, settings))

	settings.EmailNotifications = false
	require.NoError(t, s.UpsertUserSettings(ctx, settings))

	got, err := s.GetUserSettings(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, got.Theme)
	assert.Equal(t, "fr", got.Language)
	assert.False(t, got.PublicProfile)
	assert.False(t, got.EmailNotifications)
}
