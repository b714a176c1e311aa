package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	"github.com/bookbuddyapp/bookbuddy-server/internal/http/session"
	"github.com/bookbuddyapp/bookbuddy-server/internal/service"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store"
)

// Listing sizes.
const (
	booksPerPage       = 12
	reviewsPerPage     = 10
	bookPageReviews    = 5
	favouritesPerPage  = 12
	userReviewsPerPage = 10
)

// handleListBooks searches the catalogue.
// GET /books?q=&genre=&page=
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query, genre := q.Get("q"), q.Get("genre")

	result, err := s.services.Books.SearchBooks(r.Context(), query, genre, pageParam(r, booksPerPage))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.render(w, http.StatusOK, "books", BookListPage{
		Base:   s.base(w, r, "Books"),
		Query:  query,
		Genre:  domain.CanonicalGenre(genre),
		Genres: domain.Genres,
		Books:  result.Items,
		Pager:  pagerFor(r, result),
	})
}

// handleBook renders a book with its rating and latest reviews. Views by
// signed-in users are added to their history.
// GET /books/{id}
func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	page, err := s.bookPage(r, chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if page.User != nil {
		if err := s.services.History.RecordView(r.Context(), page.User, page.Book.ID); err != nil {
			s.log(r).Warn("failed to record view", "book_id", page.Book.ID, "error", err)
		}
	}

	page.Base = s.base(w, r, page.Book.Title)
	s.render(w, http.StatusOK, "book", page)
}

// bookPage loads everything the detail page shows, for the current viewer.
func (s *Server) bookPage(r *http.Request, bookID string) (BookPage, error) {
	ctx := r.Context()
	user := session.User(ctx)

	book, err := s.services.Books.GetBook(ctx, bookID)
	if err != nil {
		return BookPage{}, err
	}
	rating, err := s.services.Reviews.RatingSummary(ctx, book.ID)
	if err != nil {
		return BookPage{}, err
	}
	reviews, err := s.services.Reviews.BookReviews(ctx, book.ID, store.NewPage(1, bookPageReviews))
	if err != nil {
		return BookPage{}, err
	}
	own, err := s.services.Reviews.OwnReview(ctx, user, book.ID)
	if err != nil {
		return BookPage{}, err
	}
	favourite, err := s.services.Favourites.IsFavourite(ctx, user, book.ID)
	if err != nil {
		return BookPage{}, err
	}

	page := BookPage{
		Base:        Base{User: user},
		Book:        book,
		Rating:      rating,
		Reviews:     reviews.Items,
		MoreReviews: reviews.HasNext,
		OwnReview:   own,
		Favourite:   favourite,
		CanEdit:     user != nil && book.IsOwnedBy(user.ID),
	}
	if own != nil {
		page.Review = service.ReviewInput{Rating: own.Rating, Body: own.Body}
	}
	return page, nil
}

// handleNewBookForm renders an empty book form.
// GET /books/new
func (s *Server) handleNewBookForm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.render(w, http.StatusOK, "book_form", BookFormPage{
		Base:   s.base(w, r, "Add a book"),
		Input:  service.BookInput{Title: q.Get("title"), Author: q.Get("author")},
		Genres: domain.Genres,
	})
}

// handleCreateBook adds a book. Missing details are filled in from Open
// Library when it has a match.
// POST /books
func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	user := session.User(r.Context())
	in := bookInput(r)

	book, err := s.services.Books.CreateBook(r.Context(), user, in)
	if err != nil {
		page := BookFormPage{Input: in, Genres: domain.Genres}
		if status, ok := page.fail(err); ok {
			page.Base = s.base(w, r, "Add a book")
			s.render(w, status, "book_form", page)
			return
		}
		s.handleError(w, r, err)
		return
	}

	s.redirect(w, r, bookURL(book.ID), FlashSuccess, "Book added.")
}

// handleEditBookForm renders the form for a book the user added.
// GET /books/{id}/edit
func (s *Server) handleEditBookForm(w http.ResponseWriter, r *http.Request) {
	user := session.User(r.Context())
	book, err := s.services.Books.GetOwnedBook(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.render(w, http.StatusOK, "book_form", BookFormPage{
		Base:   s.base(w, r, "Edit "+book.Title),
		BookID: book.ID,
		Input: service.BookInput{
			Title:       book.Title,
			Author:      book.Author,
			Genre:       book.Genre,
			Description: book.Description,
			CoverURL:    book.CoverURL,
			Year:        book.Year,
			ISBN:        book.ISBN,
		},
		Genres: domain.Genres,
	})
}

// handleUpdateBook saves edits to a book the user added.
// POST /books/{id}
func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	user := session.User(r.Context())
	bookID := chi.URLParam(r, "id")
	in := bookInput(r)

	book, err := s.services.Books.UpdateBook(r.Context(), user, bookID, in)
	if err != nil {
		page := BookFormPage{BookID: bookID, Input: in, Genres: domain.Genres}
		if status, ok := page.fail(err); ok {
			page.Base = s.base(w, r, "Edit book")
			s.render(w, status, "book_form", page)
			return
		}
		s.handleError(w, r, err)
		return
	}

	s.redirect(w, r, bookURL(book.ID), FlashSuccess, "Book updated.")
}

// handleDeleteBook removes a book the user added.
// POST /books/{id}/delete
func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	user := session.User(r.Context())
	if err := s.services.Books.DeleteBook(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		s.handleError(w, r, err)
		return
	}
	s.redirect(w, r, "/books", FlashSuccess, "Book deleted.")
}

func bookInput(r *http.Request) service.BookInput {
	return service.BookInput{
		Title:       r.PostFormValue("title"),
		Author:      r.PostFormValue("author"),
		Genre:       r.PostFormValue("genre"),
		Description: r.PostFormValue("description"),
		CoverURL:    r.PostFormValue("cover_url"),
		Year:        formInt(r, "year"),
		ISBN:        r.PostFormValue("isbn"),
	}
}
