package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bookbuddyapp/bookbuddy-server/internal/auth"
	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	"github.com/bookbuddyapp/bookbuddy-server/internal/mail"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store/sqlite"
	"github.com/bookbuddyapp/bookbuddy-server/internal/validation"
)

const (
	testBaseURL  = "http://localhost:8080"
	testPassword = "correct horse 42"
)

// fakeMailer records sent messages.
type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

// fakeLookup returns canned metadata.
type fakeLookup struct {
	meta  *domain.BookMetadata
	err   error
	calls int
}

func (l *fakeLookup) Lookup(context.Context, string, string) (*domain.BookMetadata, error) {
	l.calls++
	return l.meta, l.err
}

// fakeAvatars keeps avatars in memory.
type fakeAvatars struct {
	mu      sync.Mutex
	data    map[string][]byte
	saveErr error
	deleted []string
}

func newFakeAvatars() *fakeAvatars {
	return &fakeAvatars{data: make(map[string][]byte)}
}

func (a *fakeAvatars) Save(userID string, data []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.saveErr != nil {
		return "", a.saveErr
	}
	a.data[userID] = bytes.Clone(data)
	return "LEHV6nWB2yk8pyo0adR*.7kCMdnj", nil
}

func (a *fakeAvatars) Get(userID string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.data[userID]
	if !ok {
		return nil, errors.New("no avatar")
	}
	return data, nil
}

func (a *fakeAvatars) Delete(userID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.data, userID)
	a.deleted = append(a.deleted, userID)
	return nil
}

// testEnv wires every service against a temporary SQLite database.
type testEnv struct {
	store      *sqlite.Store
	tokens     *auth.ResetTokens
	sessions   *SessionService
	auth       *AuthService
	resets     *PasswordResetService
	books      *BookService
	reviews    *ReviewService
	favourites *FavouriteService
	history    *HistoryService
	settings   *SettingsService
	profiles   *ProfileService
	cleanup    *CleanupService
	mailer     *fakeMailer
	lookup     *fakeLookup
	avatars    *fakeAvatars
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	tokens, err := auth.NewResetTokens(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	hasher := auth.NewPasswordHasher(auth.TestParams)
	v := validation.New()

	env := &testEnv{
		store:   st,
		tokens:  tokens,
		mailer:  &fakeMailer{},
		lookup:  &fakeLookup{},
		avatars: newFakeAvatars(),
	}
	env.sessions = NewSessionService(st, 30*24*time.Hour, logger)
	env.auth = NewAuthService(st, hasher, env.sessions, v, env.avatars, logger)
	env.resets = NewPasswordResetService(st, hasher, tokens, env.sessions, env.mailer, v, time.Hour, testBaseURL, logger)
	env.books = NewBookService(st, env.lookup, v, logger)
	env.reviews = NewReviewService(st, v, logger)
	env.favourites = NewFavouriteService(st, logger)
	env.history = NewHistoryService(st, logger)
	env.settings = NewSettingsService(st, v, logger)
	env.profiles = NewProfileService(st, env.avatars, env.settings, v, logger)
	env.cleanup = NewCleanupService(st, env.sessions, env.resets, 30*24*time.Hour, logger)
	return env
}

// signup creates an account and returns it with its session token.
func (e *testEnv) signup(t *testing.T, email string) (*domain.User, string) {
	t.Helper()
	res, err := e.auth.Signup(context.Background(), SignupRequest{
		Email:    email,
		Password: testPassword,
	}, ClientInfo{IPAddress: "127.0.0.1", UserAgent: "test"})
	require.NoError(t, err)
	return res.User, res.Token
}

// addBook creates a book owned by actor.
func (e *testEnv) addBook(t *testing.T, actor *domain.User, title, author string) *domain.Book {
	t.Helper()
	book, err := e.books.CreateBook(context.Background(), actor, BookInput{
		Title:       title,
		Author:      author,
		Genre:       "Classics",
		CoverURL:    "https://covers.example.com/" + strings.ReplaceAll(title, " ", "-") + ".jpg",
		Year:        2001,
		Description: "Already described.",
	})
	require.NoError(t, err)
	return book
}

// resetToken extracts the token from the most recent reset email.
func (e *testEnv) resetToken(t *testing.T) string {
	t.Helper()
	msgs := e.mailer.messages()
	require.NotEmpty(t, msgs)
	prefix := testBaseURL + "/password-reset/"
	for _, field := range strings.Fields(msgs[len(msgs)-1].Text) {
		if token, ok := strings.CutPrefix(field, prefix); ok {
			return token
		}
	}
	t.Fatal("no reset link in email")
	return ""
}
