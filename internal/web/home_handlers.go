package web

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bookbuddyapp/bookbuddy-server/internal/http/response"
	"github.com/bookbuddyapp/bookbuddy-server/internal/service"
)

// handleHome renders the landing page.
// GET /
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	home, err := s.services.Books.Home(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.render(w, http.StatusOK, "home", HomePage{
		Base: s.base(w, r, "Home"),
		Home: home,
	})
}

// handleTopRated lists the best rated books.
// GET /top-rated?q=
func (s *Server) handleTopRated(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	books, err := s.services.Books.TopRated(r.Context(), query, service.TopRatedLimit)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.render(w, http.StatusOK, "top_rated", TopRatedPage{
		Base:  s.base(w, r, "Top rated"),
		Query: query,
		Books: books,
	})
}

// handleGenre redirects a genre slug to the filtered catalogue.
// GET /genre/{name}
func (s *Server) handleGenre(w http.ResponseWriter, r *http.Request) {
	genre, ok := s.services.Books.GenreBySlug(chi.URLParam(r, "name"))
	if !ok {
		s.renderStatus(w, r, http.StatusNotFound, "There is no such genre.")
		return
	}
	http.Redirect(w, r, "/books?genre="+url.QueryEscape(genre), http.StatusSeeOther)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse contains health check data.
type HealthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
}

// handleHealth reports the status of every registered component. Any
// failing component makes the whole server unhealthy.
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "healthy", Components: make(map[string]ComponentHealth)}
	for name, check := range s.opts.HealthChecks {
		start := time.Now()
		err := check(ctx)
		health := ComponentHealth{Status: "healthy", Latency: time.Since(start).String()}
		if err != nil {
			health.Status = "unhealthy"
			health.Message = err.Error()
			resp.Status = "unhealthy"
		}
		resp.Components[name] = health
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, status, resp, s.logger)
}
