// Package api provides the JSON API served under /api/v1.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bookbuddyapp/bookbuddy-server/internal/service"
)

// BasePath is where the API is mounted.
const BasePath = "/api/v1"

// Services groups the business services the API calls.
type Services struct {
	Books      *service.BookService
	Reviews    *service.ReviewService
	Favourites *service.FavouriteService
	Search     *service.SearchService
}

// Server holds the huma API and its dependencies.
type Server struct {
	services *Services
	api      huma.API
	logger   *slog.Logger
}

// Register mounts every API operation on router. Paths are relative to
// router, which the web server mounts at BasePath.
func Register(router chi.Router, services *Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	config := huma.DefaultConfig("BookBuddy API", "1.0.0")
	config.Servers = []*huma.Server{{URL: BasePath}}
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"session": {
			Type: "apiKey",
			In:   "cookie",
			Name: "bookbuddy_session",
		},
	}
	config.DocsPath = ""

	RegisterErrorHandler()

	s := &Server{
		services: services,
		api:      humachi.New(router, config),
		logger:   logger,
	}

	s.registerSearchRoutes()
	s.registerBookRoutes()
	s.registerMetadataRoutes()

	return s
}

// API returns the underlying huma API.
func (s *Server) API() huma.API {
	return s.api
}

// CORS allows browser calls from the given origins, with credentials so the
// session cookie is sent.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// sessionSecurity marks operations that need a signed-in user.
var sessionSecurity = []map[string][]string{{"session": {}}}
