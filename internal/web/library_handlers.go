package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookbuddyapp/bookbuddy-server/internal/http/session"
)

// handleToggleFavourite adds or removes a book from the user's favourites
// and returns to the page the form was on.
// POST /books/{id}/favourite
func (s *Server) handleToggleFavourite(w http.ResponseWriter, r *http.Request) {
	user := session.User(r.Context())
	bookID := chi.URLParam(r, "id")

	favourite, err := s.services.Favourites.Toggle(r.Context(), user, bookID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	message := "Removed from favourites."
	if favourite {
		message = "Added to favourites."
	}
	s.redirect(w, r, safeNext(r.PostFormValue("next"), bookURL(bookID)), FlashSuccess, message)
}

// handleFavourites lists the user's favourite books.
// GET /favourites?q=&page=
func (s *Server) handleFavourites(w http.ResponseWriter, r *http.Request) {
	user := session.User(r.Context())
	query := r.URL.Query().Get("q")

	result, err := s.services.Favourites.List(r.Context(), user, query, pageParam(r, favouritesPerPage))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.render(w, http.StatusOK, "favourites", FavouritesPage{
		Base:  s.base(w, r, "Favourites"),
		Query: query,
		Items: result.Items,
		Pager: pagerFor(r, result),
	})
}

// handleHistory lists the books the user viewed most recently.
// GET /history?q=
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	user := session.User(r.Context())
	query := r.URL.Query().Get("q")

	entries, err := s.services.History.List(r.Context(), user, query)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.render(w, http.StatusOK, "history", HistoryPage{
		Base:    s.base(w, r, "History"),
		Query:   query,
		Entries: entries,
	})
}
