package api

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/bookbuddyapp/bookbuddy-server/internal/auth"
	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	"github.com/bookbuddyapp/bookbuddy-server/internal/http/session"
	"github.com/bookbuddyapp/bookbuddy-server/internal/search"
	"github.com/bookbuddyapp/bookbuddy-server/internal/service"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store/sqlite"
	"github.com/bookbuddyapp/bookbuddy-server/internal/validation"
)

type stubLookup struct {
	meta *domain.BookMetadata
}

func (l stubLookup) Lookup(context.Context, string, string) (*domain.BookMetadata, error) {
	return l.meta, nil
}

// testServer wraps the API with the services behind it.
type testServer struct {
	api      humatest.TestAPI
	auth     *service.AuthService
	books    *service.BookService
	reviews  *service.ReviewService
	lookup   *stubLookup
	services *Services
}

func setupTestServer(t *testing.T) *testServer {
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

	v := validation.New()
	lookup := &stubLookup{}
	sessions := service.NewSessionService(st, time.Hour, logger)
	authService := service.NewAuthService(st, auth.NewPasswordHasher(auth.TestParams), sessions, v, nil, logger)

	services := &Services{
		Books:      service.NewBookService(st, lookup, v, logger),
		Reviews:    service.NewReviewService(st, v, logger),
		Favourites: service.NewFavouriteService(st, logger),
		Search:     service.NewSearchService(index, st, logger),
	}

	router := chi.NewRouter()
	router.Use(session.NewManager(authService, false, logger).Load)
	srv := Register(router, services, logger)

	return &testServer{
		api:      humatest.Wrap(t, srv.API()),
		auth:     authService,
		books:    services.Books,
		reviews:  services.Reviews,
		lookup:   lookup,
		services: services,
	}
}

// signup creates a user and returns it with a Cookie header for its session.
func (ts *testServer) signup(t *testing.T, email string) (*domain.User, string) {
	t.Helper()
	res, err := ts.auth.Signup(context.Background(), service.SignupRequest{
		Email:    email,
		Password: "correct horse 42",
	}, service.ClientInfo{})
	require.NoError(t, err)
	return res.User, "Cookie: " + session.CookieName + "=" + res.Token
}

func (ts *testServer) addBook(t *testing.T, owner *domain.User, title, author string) *domain.Book {
	t.Helper()
	book, err := ts.books.CreateBook(context.Background(), owner, service.BookInput{
		Title:       title,
		Author:      author,
		Description: "Known.",
		CoverURL:    "https://covers.example.com/c.jpg",
		Year:        1999,
	})
	require.NoError(t, err)
	return book
}

func emptyBody() *bytes.Reader {
	return bytes.NewReader(nil)
}
