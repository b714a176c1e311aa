// Package openlibrary looks up covers, publication years and descriptions
// on openlibrary.org.
package openlibrary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/bookbuddyapp/bookbuddy-server/internal/cache"
	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	"github.com/bookbuddyapp/bookbuddy-server/internal/genre"
	"github.com/bookbuddyapp/bookbuddy-server/internal/metrics"
	"github.com/bookbuddyapp/bookbuddy-server/internal/ratelimit"
)

const (
	DefaultBaseURL   = "https://openlibrary.org"
	DefaultCoversURL = "https://covers.openlibrary.org"
	DefaultTimeout   = 8 * time.Second
	DefaultCacheTTL  = 24 * time.Hour

	userAgent    = "BookBuddy/1.0 (personal project)"
	searchLimit  = 20
	maxBodyBytes = 4 << 20

	// Be polite: 2 requests per second, burst of 4.
	defaultRPS   = 2.0
	defaultBurst = 4

	breakerName = "openlibrary"
)

// Config configures a Client.
type Config struct {
	BaseURL   string
	CoversURL string
	Timeout   time.Duration
	CacheTTL  time.Duration
}

// Client is a rate-limited, circuit-broken Open Library client.
type Client struct {
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker[[]byte]
	limiter   *ratelimit.KeyedRateLimiter
	cache     *cache.Cache
	baseURL   string
	coversURL string
	cacheTTL  time.Duration
	logger    *slog.Logger
}

// New creates a new Open Library client. c may be nil, which disables caching.
func New(cfg Config, c *cache.Cache, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.CoversURL == "" {
		cfg.CoversURL = DefaultCoversURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	metrics.SetCircuitBreakerState(breakerName, 0)

	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		breaker:   newBreaker(logger),
		limiter:   ratelimit.New(defaultRPS, defaultBurst),
		cache:     c,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		coversURL: strings.TrimRight(cfg.CoversURL, "/"),
		cacheTTL:  cfg.CacheTTL,
		logger:    logger,
	}
}

// newBreaker opens after 5 consecutive failures or a 60% failure rate over
// at least 10 requests, and probes again after 30 seconds.
func newBreaker(logger *slog.Logger) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 5 {
				return true
			}
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		// A missing book is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.SetCircuitBreakerState(name, stateValue(to))
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// cachedLookup is what the cache stores per title/author pair. Misses are
// cached too so repeated lookups for unknown books stay local.
type cachedLookup struct {
	Found    bool                 `json:"found"`
	Metadata *domain.BookMetadata `json:"metadata,omitempty"`
}

// Lookup finds the best match for title and author and returns its cover,
// year, identifiers and description. Returns nil and no error when nothing
// matches.
func (c *Client) Lookup(ctx context.Context, title, author string) (*domain.BookMetadata, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" {
		return nil, nil
	}

	key := cacheKey(title, author)
	if c.cache != nil {
		var hit cachedLookup
		if ok, err := c.cache.Get(key, &hit); err != nil {
			c.logger.Warn("openlibrary cache read failed", "error", err)
		} else if ok {
			metrics.RecordOpenLibrary("cached")
			if !hit.Found {
				return nil, nil
			}
			return hit.Metadata, nil
		}
	}

	docs, err := c.Search(ctx, title, author)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordOpenLibrary("rejected")
			return nil, wrapError("search", title, ErrUnavailable)
		}
		metrics.RecordOpenLibrary("error")
		return nil, err
	}

	meta := c.metadataFrom(ctx, docs, title, author)
	if meta == nil {
		metrics.RecordOpenLibrary("miss")
	} else {
		metrics.RecordOpenLibrary("hit")
	}

	if c.cache != nil {
		if err := c.cache.Set(key, cachedLookup{Found: meta != nil, Metadata: meta}, c.cacheTTL); err != nil {
			c.logger.Warn("openlibrary cache write failed", "error", err)
		}
	}
	return meta, nil
}

// metadataFrom picks the best hit for covers and, separately, the best hit
// for descriptions, and merges both into one result.
func (c *Client) metadataFrom(ctx context.Context, docs []Doc, title, author string) *domain.BookMetadata {
	best := bestMatch(docs, title, author, coverScore)
	if best == nil {
		return nil
	}

	meta := &domain.BookMetadata{
		Title:         best.Title,
		Author:        best.FirstAuthor(),
		Year:          best.FirstPublishYear,
		CoverURL:      CoverURL(c.coversURL, best),
		CoverID:       best.CoverI,
		ISBN:          best.FirstISBN(),
		OpenLibraryID: best.OLID(),
		WorkKey:       best.WorkKey(),
		Genre:         genre.FromSubjects(best.Subject),
	}

	workKey := meta.WorkKey
	if d := bestMatch(docs, title, author, descriptionScore); d != nil && d.WorkKey() != "" {
		workKey = d.WorkKey()
	}
	if workKey != "" {
		desc, err := c.Description(ctx, workKey)
		if err != nil {
			c.logger.Debug("openlibrary description unavailable", "work", workKey, "error", err)
		}
		meta.Description = desc
	}
	return meta
}

// Search queries /search.json for "title author" and returns the raw hits.
func (c *Client) Search(ctx context.Context, title, author string) ([]Doc, error) {
	q := strings.TrimSpace(title + " " + author)

	query := url.Values{}
	query.Set("q", q)
	query.Set("limit", fmt.Sprint(searchLimit))
	query.Set("page", "1")

	body, err := c.get(ctx, c.baseURL+"/search.json?"+query.Encode())
	if err != nil {
		return nil, wrapError("search", q, err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("search", q, fmt.Errorf("parse response: %w", err))
	}
	return resp.Docs, nil
}

// Description fetches the work behind workKey ("/works/OL…W") and returns
// its cleaned description, or "" when it has none.
func (c *Client) Description(ctx context.Context, workKey string) (string, error) {
	if !strings.HasPrefix(workKey, "/works/") {
		return "", wrapError("work", workKey, ErrNotFound)
	}

	body, err := c.get(ctx, c.baseURL+workKey+".json")
	if err != nil {
		return "", wrapError("work", workKey, err)
	}

	var w work
	if err := json.Unmarshal(body, &w); err != nil {
		return "", wrapError("work", workKey, fmt.Errorf("parse response: %w", err))
	}
	return CleanDescription(w.text()), nil
}

// get executes a GET through the rate limiter and circuit breaker.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx, breakerName); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	return c.breaker.Execute(func() ([]byte, error) {
		return c.doRequest(ctx, rawURL)
	})
}

func (c *Client) doRequest(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("openlibrary request", "url", rawURL)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, ErrServer
	default:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

func cacheKey(title, author string) string {
	return "openlibrary:" + strings.ToLower(title) + "|" + strings.ToLower(author)
}
