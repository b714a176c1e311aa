package domain

import "time"

// Favourite marks a book as one of a user's favourites.
// There is at most one per (UserID, BookID).
type Favourite struct {
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FavouriteBook is a favourite joined with its book.
type FavouriteBook struct {
	Favourite
	Book Book `json:"book"`
}

// HistoryEntry records the last time a user viewed a book.
// There is at most one per (UserID, BookID); repeat views move ViewedAt.
type HistoryEntry struct {
	UserID   string    `json:"user_id"`
	BookID   string    `json:"book_id"`
	ViewedAt time.Time `json:"viewed_at"`
	Book     Book      `json:"book"`
}

// HistoryLimit is the number of history entries shown.
const HistoryLimit = 50
