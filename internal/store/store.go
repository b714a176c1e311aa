package store

import (
	"context"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
)

// SearchIndexer receives book writes after they commit, so full-text search
// follows the catalogue.
type SearchIndexer interface {
	IndexBook(ctx context.Context, book *domain.Book) error
	DeleteBook(ctx context.Context, bookID string) error
}

// NoIndex is a SearchIndexer that drops every update.
var NoIndex SearchIndexer = noIndex{}

type noIndex struct{}

func (noIndex) IndexBook(context.Context, *domain.Book) error { return nil }
func (noIndex) DeleteBook(context.Context, string) error      { return nil }

// BookFilter narrows book listings.
type BookFilter struct {
	// Query matches title or author, case-insensitive substring.
	Query string
	// Genre matches exactly, case-insensitive. Empty means any genre.
	Genre string
}
