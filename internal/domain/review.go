package domain

import "math"

// Rating bounds, inclusive.
const (
	MinRating = 1
	MaxRating = 5
)

// MaxReviewLength caps the review body, in runes.
const MaxReviewLength = 5000

// Review is one user's rating and thoughts on one book.
// A user has at most one review per book.
type Review struct {
	Entity
	UserID string `json:"user_id"`
	BookID string `json:"book_id"`
	Rating int    `json:"rating"`
	Body   string `json:"body"`
}

// ReviewWithAuthor is a review joined with the public fields of its author.
type ReviewWithAuthor struct {
	Review
	AuthorName   string `json:"author_name"`
	AuthorHandle string `json:"author_handle,omitempty"`
}

// ReviewWithBook is a review joined with the book it is about.
type ReviewWithBook struct {
	Review
	Book Book `json:"book"`
}

// RatingSummary aggregates the reviews of a book.
type RatingSummary struct {
	BookID  string  `json:"book_id"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Rounded returns the average rounded to one decimal place.
func (r RatingSummary) Rounded() float64 {
	return math.Round(r.Average*10) / 10
}

// FullStars returns the average rounded to the nearest whole star.
func (r RatingSummary) FullStars() int {
	return int(math.Round(r.Average))
}

// RatedBook is a book with its rating summary, as shown in listings.
type RatedBook struct {
	Book
	Rating RatingSummary `json:"rating"`
}
