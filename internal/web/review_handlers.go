package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookbuddyapp/bookbuddy-server/internal/http/session"
	"github.com/bookbuddyapp/bookbuddy-server/internal/service"
)

// handleBookReviews lists every review of a book.
// GET /books/{id}/reviews?page=
func (s *Server) handleBookReviews(w http.ResponseWriter, r *http.Request) {
	book, err := s.services.Books.GetBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	reviews, err := s.services.Reviews.BookReviews(r.Context(), book.ID, pageParam(r, reviewsPerPage))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.render(w, http.StatusOK, "reviews", ReviewsPage{
		Base:    s.base(w, r, "Reviews of "+book.Title),
		Book:    book,
		Reviews: reviews.Items,
		Pager:   pagerFor(r, reviews),
	})
}

// handleWriteReview creates or replaces the user's review of a book.
// POST /books/{id}/reviews
func (s *Server) handleWriteReview(w http.ResponseWriter, r *http.Request) {
	user := session.User(r.Context())
	bookID := chi.URLParam(r, "id")
	in := service.ReviewInput{
		Rating: formInt(r, "rating"),
		Body:   r.PostFormValue("body"),
	}

	_, created, err := s.services.Reviews.WriteReview(r.Context(), user, bookID, in)
	if err != nil {
		var form Form
		status, ok := form.fail(err)
		if !ok {
			s.handleError(w, r, err)
			return
		}
		page, pageErr := s.bookPage(r, bookID)
		if pageErr != nil {
			s.handleError(w, r, pageErr)
			return
		}
		page.Form = form
		page.Review = in
		page.Base = s.base(w, r, page.Book.Title)
		s.render(w, status, "book", page)
		return
	}

	message := "Review updated."
	if created {
		message = "Thanks for your review!"
	}
	s.redirect(w, r, bookURL(bookID), FlashSuccess, message)
}

// handleDeleteReview removes the user's review of a book.
// POST /books/{id}/reviews/delete
func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	user := session.User(r.Context())
	bookID := chi.URLParam(r, "id")

	if err := s.services.Reviews.DeleteOwnReview(r.Context(), user, bookID); err != nil {
		s.handleError(w, r, err)
		return
	}
	s.redirect(w, r, bookURL(bookID), FlashSuccess, "Review deleted.")
}
