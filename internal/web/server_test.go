package web

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
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
	"github.com/bookbuddyapp/bookbuddy-server/internal/media/images"
	"github.com/bookbuddyapp/bookbuddy-server/internal/search"
	"github.com/bookbuddyapp/bookbuddy-server/internal/service"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store/sqlite"
	"github.com/bookbuddyapp/bookbuddy-server/internal/validation"
)

const (
	testBaseURL  = "http://bookbuddy.test"
	testPassword = "correct horse 42"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) last() mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return mail.Message{}
	}
	return m.sent[len(m.sent)-1]
}

type stubLookup struct {
	meta *domain.BookMetadata
}

func (l *stubLookup) Lookup(context.Context, string, string) (*domain.BookMetadata, error) {
	return l.meta, nil
}

type testSite struct {
	server   *Server
	services *Services
	mailer   *captureMailer
	lookup   *stubLookup
}

func setupSite(t *testing.T, opts Options) *testSite {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	dir := t.TempDir()

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewSearchIndex(search.Options{DataPath: filepath.Join(dir, "search"), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	st.SetSearchIndexer(index)

	storage, err := images.NewStorage(dir, "avatars")
	require.NoError(t, err)
	avatars := images.NewAvatars(storage, logger)

	tokens, err := auth.NewResetTokens(bytes.Repeat([]byte{9}, 32))
	require.NoError(t, err)

	v := validation.New()
	hasher := auth.NewPasswordHasher(auth.TestParams)
	mailer := &captureMailer{}
	lookup := &stubLookup{}

	sessions := service.NewSessionService(st, time.Hour, logger)
	settings := service.NewSettingsService(st, v, logger)
	services := &Services{
		Auth:       service.NewAuthService(st, hasher, sessions, v, avatars, logger),
		Resets:     service.NewPasswordResetService(st, hasher, tokens, sessions, mailer, v, time.Hour, testBaseURL, logger),
		Books:      service.NewBookService(st, lookup, v, logger),
		Reviews:    service.NewReviewService(st, v, logger),
		Favourites: service.NewFavouriteService(st, logger),
		History:    service.NewHistoryService(st, logger),
		Profiles:   service.NewProfileService(st, avatars, settings, v, logger),
		Settings:   settings,
		Search:     service.NewSearchService(index, st, logger),
	}

	renderer, err := NewRenderer("", logger)
	require.NoError(t, err)

	opts.BaseURL = testBaseURL
	opts.FlashKey = bytes.Repeat([]byte{3}, 32)
	if opts.AuthRatePerMin == 0 {
		opts.AuthRatePerMin = 10000
		opts.AuthBurst = 1000
	}

	srv := NewServer(services, renderer, opts, logger)
	t.Cleanup(func() { _ = srv.Shutdown() })

	return &testSite{server: srv, services: services, mailer: mailer, lookup: lookup}
}

// browser sends requests to the site and keeps cookies between them.
type browser struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func (ts *testSite) browser(t *testing.T) *browser {
	return &browser{t: t, handler: ts.server, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

// signup creates an account through the form and keeps its session.
func (b *browser) signup(email string) {
	b.t.Helper()
	rec := b.post("/signup", url.Values{
		"email":        {email},
		"password":     {testPassword},
		"display_name": {"Reader " + strings.Split(email, "@")[0]},
	})
	require.Equal(b.t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Contains(b.t, b.cookies, "bookbuddy_session")
}

// addBook creates a book through the form and returns its ID.
func (b *browser) addBook(title, author string) string {
	b.t.Helper()
	rec := b.post("/books", url.Values{
		"title":  {title},
		"author": {author},
		"genre":  {"Classics"},
		"year":   {"1847"},
	})
	require.Equal(b.t, http.StatusSeeOther, rec.Code, rec.Body.String())
	location := rec.Header().Get("Location")
	require.True(b.t, strings.HasPrefix(location, "/books/"), location)
	return strings.TrimPrefix(location, "/books/")
}

// follow requests the redirect target of rec.
func (b *browser) follow(rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	b.t.Helper()
	require.Equal(b.t, http.StatusSeeOther, rec.Code)
	return b.get(rec.Header().Get("Location"))
}
