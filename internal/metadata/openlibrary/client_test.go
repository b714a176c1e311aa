package openlibrary

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookbuddyapp/bookbuddy-server/internal/cache"
	"github.com/bookbuddyapp/bookbuddy-server/internal/ratelimit"
)

const searchFixture = `{
  "numFound": 3,
  "docs": [
    {"key": "/works/OL1W", "title": "Dune Messiah", "author_name": ["Frank Herbert"], "first_publish_year": 1969},
    {"key": "/works/OL893415W", "title": "Dune", "author_name": ["Frank Herbert"], "first_publish_year": 1965,
     "cover_i": 11481354, "isbn": ["9780441013593"], "edition_key": ["OL26242482M"],
     "subject": ["Fiction, science fiction, general", "Dune (Imaginary place)", "Science fiction"]},
    {"key": "/works/OL2W", "title": "The Road to Dune", "author_name": ["Brian Herbert"]}
  ]
}`

const workFixture = `{"title": "Dune", "description": {"type": "/type/text", "value": "<p>Set on the desert planet <b>Arrakis</b>.</p>"}}`

func newTestClient(t *testing.T, handler http.HandlerFunc, c *cache.Cache) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	client := New(Config{BaseURL: server.URL, CoversURL: "https://covers.test"}, c, logger)
	client.http = server.Client()
	t.Cleanup(client.Close)
	return client
}

func TestClient_Lookup(t *testing.T) {
	var gotUA, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search.json":
			gotUA = r.Header.Get("User-Agent")
			gotQuery = r.URL.Query().Get("q")
			assert.Equal(t, "20", r.URL.Query().Get("limit"))
			_, _ = w.Write([]byte(searchFixture))
		case "/works/OL893415W.json":
			_, _ = w.Write([]byte(workFixture))
		default:
			http.NotFound(w, r)
		}
	}, nil)

	meta, err := client.Lookup(context.Background(), "Dune", "Frank Herbert")
	require.NoError(t, err)
	require.NotNil(t, meta)

	assert.Equal(t, "BookBuddy/1.0 (personal project)", gotUA)
	assert.Equal(t, "Dune Frank Herbert", gotQuery)
	assert.Equal(t, "Dune", meta.Title)
	assert.Equal(t, 1965, meta.Year)
	assert.Equal(t, 11481354, meta.CoverID)
	assert.Equal(t, "https://covers.test/b/id/11481354-L.jpg", meta.CoverURL)
	assert.Equal(t, "9780441013593", meta.ISBN)
	assert.Equal(t, "OL26242482M", meta.OpenLibraryID)
	assert.Equal(t, "/works/OL893415W", meta.WorkKey)
	assert.Equal(t, "Sci-Fi", meta.Genre)
	assert.Contains(t, meta.Description, "Arrakis")
	assert.NotContains(t, meta.Description, "<p>")
}

func TestClient_Lookup_NoResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"numFound": 0, "docs": []}`))
	}, nil)

	meta, err := client.Lookup(context.Background(), "Nonexistent", "Nobody")
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestClient_Lookup_EmptyTitle(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}, nil)

	meta, err := client.Lookup(context.Background(), "  ", "Someone")
	require.NoError(t, err)
	assert.Nil(t, meta)
	assert.Zero(t, calls.Load())
}

func TestClient_Lookup_DescriptionFailureKeepsCover(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/search.json" {
			_, _ = w.Write([]byte(searchFixture))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}, nil)

	meta, err := client.Lookup(context.Background(), "Dune", "Frank Herbert")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.NotEmpty(t, meta.CoverURL)
	assert.Empty(t, meta.Description)
}

func TestClient_Lookup_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, nil)

	_, err := client.Lookup(context.Background(), "Dune", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServer)

	var olErr *Error
	require.ErrorAs(t, err, &olErr)
	assert.Equal(t, "search", olErr.Op)
}

func TestClient_Lookup_RateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, nil)

	_, err := client.Lookup(context.Background(), "Dune", "")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestClient_Lookup_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, nil)
	client.limiter.Stop()
	client.limiter = ratelimit.New(1000, 100)

	for range 5 {
		_, err := client.Lookup(context.Background(), "Dune", "")
		require.ErrorIs(t, err, ErrServer)
	}

	_, err := client.Lookup(context.Background(), "Dune", "")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(5), calls.Load())
}

func TestClient_Lookup_Cached(t *testing.T) {
	c, err := cache.OpenInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	var searches atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search.json":
			searches.Add(1)
			if strings.Contains(r.URL.Query().Get("q"), "Unknown") {
				_, _ = w.Write([]byte(`{"docs": []}`))
				return
			}
			_, _ = w.Write([]byte(searchFixture))
		default:
			_, _ = w.Write([]byte(workFixture))
		}
	}, c)

	ctx := context.Background()
	first, err := client.Lookup(ctx, "Dune", "Frank Herbert")
	require.NoError(t, err)
	second, err := client.Lookup(ctx, "dune", "frank herbert")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	miss, err := client.Lookup(ctx, "Unknown Book", "")
	require.NoError(t, err)
	assert.Nil(t, miss)
	miss, err = client.Lookup(ctx, "Unknown Book", "")
	require.NoError(t, err)
	assert.Nil(t, miss)

	assert.Equal(t, int32(2), searches.Load())
}

func TestClient_Description_PlainString(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"description": "  A plain description.  "}`))
	}, nil)

	desc, err := client.Description(context.Background(), "/works/OL1W")
	require.NoError(t, err)
	assert.Equal(t, "A plain description.", desc)
}

func TestClient_Description_RejectsNonWorkKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}, nil)

	_, err := client.Description(context.Background(), "/books/OL1M")
	assert.ErrorIs(t, err, ErrNotFound)
}
