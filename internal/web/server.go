// Package web serves the server-rendered BookBuddy site and mounts the JSON
// API beside it.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bookbuddyapp/bookbuddy-server/internal/api"
	"github.com/bookbuddyapp/bookbuddy-server/internal/http/session"
	"github.com/bookbuddyapp/bookbuddy-server/internal/metrics"
	"github.com/bookbuddyapp/bookbuddy-server/internal/ratelimit"
	"github.com/bookbuddyapp/bookbuddy-server/internal/service"
)

// Services groups the business services the site calls.
type Services struct {
	Auth       *service.AuthService
	Resets     *service.PasswordResetService
	Books      *service.BookService
	Reviews    *service.ReviewService
	Favourites *service.FavouriteService
	History    *service.HistoryService
	Profiles   *service.ProfileService
	Settings   *service.SettingsService
	Search     *service.SearchService
}

// Defaults for the per-IP limit on signup, login and password reset posts.
const (
	defaultAuthRatePerMin = 10
	defaultAuthBurst      = 5
)

// HealthCheck probes one component for /health.
type HealthCheck func(ctx context.Context) error

// Options configures the site.
type Options struct {
	BaseURL        string
	SecureCookies  bool
	FlashKey       []byte
	AuthRatePerMin int
	AuthBurst      int
	CORSOrigins    []string
	HealthChecks   map[string]HealthCheck

	// TrustedProxies are the peers allowed to report the client address in
	// X-Forwarded-For or X-Real-IP. Headers from anyone else are ignored.
	TrustedProxies []netip.Prefix
}

// Server holds dependencies for the HTML handlers.
type Server struct {
	services *Services
	renderer *Renderer
	sessions *session.Manager
	flash    *flashes
	limiter  *ratelimit.KeyedRateLimiter
	opts     Options
	router   *chi.Mux
	logger   *slog.Logger
}

// NewServer creates the site with all routes configured.
func NewServer(services *Services, renderer *Renderer, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.AuthRatePerMin <= 0 {
		opts.AuthRatePerMin = defaultAuthRatePerMin
	}
	if opts.AuthBurst <= 0 {
		opts.AuthBurst = defaultAuthBurst
	}
	if len(opts.CORSOrigins) == 0 && opts.BaseURL != "" {
		opts.CORSOrigins = []string{opts.BaseURL}
	}

	s := &Server{
		services: services,
		renderer: renderer,
		sessions: session.NewManager(services.Auth, opts.SecureCookies, logger),
		flash:    newFlashes(opts.FlashKey, opts.SecureCookies),
		limiter:  ratelimit.PerMinute(opts.AuthRatePerMin, opts.AuthBurst),
		opts:     opts,
		router:   chi.NewRouter(),
		logger:   logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Shutdown stops the rate limiter's cleanup loop.
func (s *Server) Shutdown() error {
	return s.limiter.Shutdown()
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(s.realIP)
	s.router.Use(s.logRequests)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.instrument)
	s.router.Use(s.sessions.Load)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", metrics.Handler())

	s.router.Route(api.BasePath, func(r chi.Router) {
		r.Use(api.CORS(s.opts.CORSOrigins))
		api.Register(r, &api.Services{
			Books:      s.services.Books,
			Reviews:    s.services.Reviews,
			Favourites: s.services.Favourites,
			Search:     s.services.Search,
		}, s.logger)
	})

	s.router.Get("/", s.handleHome)
	s.router.Get("/top-rated", s.handleTopRated)
	s.router.Get("/genre/{name}", s.handleGenre)

	// Accounts.
	s.router.Get("/signup", s.handleSignupForm)
	s.router.With(s.rateLimit("signup")).Post("/signup", s.handleSignup)
	s.router.Get("/login", s.handleLoginForm)
	s.router.With(s.rateLimit("login")).Post("/login", s.handleLogin)
	s.router.Post("/logout", s.handleLogout)
	s.router.Get("/password-reset", s.handleResetRequestForm)
	s.router.With(s.rateLimit("password_reset")).Post("/password-reset", s.handleResetRequest)
	s.router.Get("/password-reset/{token}", s.handleResetForm)
	s.router.With(s.rateLimit("password_reset")).Post("/password-reset/{token}", s.handleReset)

	// Books.
	s.router.Route("/books", func(r chi.Router) {
		r.Get("/", s.handleListBooks)
		r.With(s.requireUser).Post("/", s.handleCreateBook)
		r.With(s.requireUser).Get("/new", s.handleNewBookForm)
		r.Get("/{id}", s.handleBook)
		r.With(s.requireUser).Post("/{id}", s.handleUpdateBook)
		r.With(s.requireUser).Get("/{id}/edit", s.handleEditBookForm)
		r.With(s.requireUser).Post("/{id}/delete", s.handleDeleteBook)
		r.Get("/{id}/reviews", s.handleBookReviews)
		r.With(s.requireUser).Post("/{id}/reviews", s.handleWriteReview)
		r.With(s.requireUser).Post("/{id}/reviews/delete", s.handleDeleteReview)
		r.With(s.requireUser).Post("/{id}/favourite", s.handleToggleFavourite)
	})

	s.router.With(s.requireUser).Get("/favourites", s.handleFavourites)
	s.router.With(s.requireUser).Get("/history", s.handleHistory)

	// Profile.
	s.router.Route("/profile", func(r chi.Router) {
		r.Use(s.requireUser)
		r.Get("/", s.handleProfile)
		r.Get("/edit", s.handleEditProfileForm)
		r.Post("/edit", s.handleEditProfile)
		r.Post("/avatar", s.handleUploadAvatar)
		r.Get("/reviews", s.handleUserReviews)
		r.Get("/password", s.handlePasswordForm)
		r.Post("/password", s.handleChangePassword)
		r.Get("/settings", s.handleSettingsForm)
		r.Post("/settings", s.handleUpdateSettings)
		r.Post("/delete", s.handleDeleteAccount)
		r.Get("/qr.png", s.handleProfileQR)
	})
	s.router.Get("/u/{handle}", s.handlePublicProfile)
	s.router.Get("/avatars/{userID}", s.handleAvatar)

	s.router.NotFound(s.handleNotFound)
}
