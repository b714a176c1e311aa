package web

import (
	"net/url"
	"strconv"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	"github.com/bookbuddyapp/bookbuddy-server/internal/service"
)

// Base carries what the layout needs on every page.
type Base struct {
	Title string
	User  *domain.User
	Flash *Flash
	Theme domain.Theme
	Path  string
}

// Form carries validation feedback for a submitted form.
type Form struct {
	Errors  map[string]string
	Message string
}

// Pager links the pages of a listing.
type Pager struct {
	Page       int
	TotalPages int
	Total      int
	PrevURL    string
	NextURL    string
}

// newPager builds links that keep the current query string, replacing page.
func newPager(path string, query url.Values, page, totalPages, total int, hasPrev, hasNext bool) Pager {
	link := func(n int) string {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(n))
		return path + "?" + q.Encode()
	}

	p := Pager{Page: page, TotalPages: totalPages, Total: total}
	if hasPrev {
		p.PrevURL = link(page - 1)
	}
	if hasNext {
		p.NextURL = link(page + 1)
	}
	return p
}

// HomePage is the landing page.
type HomePage struct {
	Base
	Home *service.Home
}

// BookListPage is the searchable catalogue.
type BookListPage struct {
	Base
	Query  string
	Genre  string
	Genres []string
	Books  []*domain.RatedBook
	Pager  Pager
}

// TopRatedPage lists the best rated books.
type TopRatedPage struct {
	Base
	Query string
	Books []*domain.RatedBook
}

// BookPage is a book's detail page.
type BookPage struct {
	Base
	Book        *domain.Book
	Rating      *domain.RatingSummary
	Reviews     []*domain.ReviewWithAuthor
	MoreReviews bool
	OwnReview   *domain.Review
	Favourite   bool
	CanEdit     bool
	Review      service.ReviewInput
	Form
}

// BookFormPage is the new and edit book form.
type BookFormPage struct {
	Base
	BookID string
	Input  service.BookInput
	Genres []string
	Form
}

// ReviewsPage lists every review of a book.
type ReviewsPage struct {
	Base
	Book    *domain.Book
	Reviews []*domain.ReviewWithAuthor
	Pager   Pager
}

// FavouritesPage lists the user's favourite books.
type FavouritesPage struct {
	Base
	Query string
	Items []*domain.FavouriteBook
	Pager Pager
}

// HistoryPage lists recently viewed books.
type HistoryPage struct {
	Base
	Query   string
	Entries []*domain.HistoryEntry
}

// ProfilePage shows a profile, the user's own or a public one.
type ProfilePage struct {
	Base
	Profile   *service.Profile
	Own       bool
	PublicURL string
}

// ProfileFormPage edits name, handle and bio.
type ProfileFormPage struct {
	Base
	Input service.UpdateProfileRequest
	Form
}

// UserReviewsPage lists all of the user's reviews.
type UserReviewsPage struct {
	Base
	Reviews []*domain.ReviewWithBook
	Pager   Pager
}

// PasswordPage changes the password.
type PasswordPage struct {
	Base
	Form
}

// Language is an interface language option.
type Language struct {
	Code string
	Name string
}

// SettingsPage edits preferences and hosts account deletion.
type SettingsPage struct {
	Base
	Settings  *domain.UserSettings
	Languages []Language
	Form
	Delete Form
}

// AuthPage is the signup and login form.
type AuthPage struct {
	Base
	Email       string
	DisplayName string
	Handle      string
	Next        string
	Form
}

// ResetRequestPage asks for a password reset link.
type ResetRequestPage struct {
	Base
	Email string
	Sent  bool
	Form
}

// ResetPage sets a new password from a reset link.
type ResetPage struct {
	Base
	Token   string
	Invalid bool
	Form
}

// ErrorPage explains a failed request.
type ErrorPage struct {
	Base
	Status  int
	Message string
}

func languages() []Language {
	out := make([]Language, 0, len(domain.LanguageCodes))
	for _, code := range domain.LanguageCodes {
		out = append(out, Language{Code: code, Name: domain.Languages[code]})
	}
	return out
}
