package web

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	"github.com/bookbuddyapp/bookbuddy-server/internal/http/session"
	"github.com/bookbuddyapp/bookbuddy-server/internal/service"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store"
)

// base collects the layout data for r. It consumes the pending flash.
func (s *Server) base(w http.ResponseWriter, r *http.Request, title string) Base {
	b := Base{
		Title: title,
		User:  session.User(r.Context()),
		Flash: s.flash.Pop(w, r),
		Theme: domain.ThemeLight,
		Path:  r.URL.Path,
	}
	if b.User != nil {
		if settings, err := s.services.Settings.Get(r.Context(), b.User.ID); err == nil {
			b.Theme = settings.Theme
		}
	}
	return b
}

// render writes page, falling back to a plain 500 when the template fails.
func (s *Server) render(w http.ResponseWriter, status int, page string, data any) {
	if err := s.renderer.Render(w, status, page, data); err != nil {
		s.logger.Error("failed to render page", "page", page, "error", err)
		http.Error(w, statusMessages[http.StatusInternalServerError], http.StatusInternalServerError)
	}
}

// redirect sends the browser to target with an optional flash message.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, target, kind, message string) {
	if message != "" {
		s.flash.Set(w, kind, message)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// pageParam reads the page query parameter; bad values mean page 1.
func pageParam(r *http.Request, size int) store.Page {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		n = 1
	}
	return store.NewPage(n, size)
}

func pagerFor[T any](r *http.Request, result *store.PageResult[T]) Pager {
	return newPager(r.URL.Path, r.URL.Query(), result.Page, result.TotalPages(), result.Total, result.HasPrev, result.HasNext)
}

// clientInfo describes the browser opening a session.
func clientInfo(r *http.Request) service.ClientInfo {
	return service.ClientInfo{IPAddress: clientIP(r), UserAgent: r.UserAgent()}
}

// formInt parses an integer form value; empty and malformed values are 0.
func formInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.PostFormValue(key))
	return n
}

// formBool reads a checkbox.
func formBool(r *http.Request, key string) bool {
	switch r.PostFormValue(key) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func bookURL(id string) string {
	return "/books/" + url.PathEscape(id)
}
