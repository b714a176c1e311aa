// Package search maintains a Bleve index of the book catalogue and answers
// search-as-you-type suggestion queries against it.
package search

import (
	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
)

// BookDocument is the indexed form of a book.
type BookDocument struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre,omitempty"`
	Year   int    `json:"year,omitempty"`
}

// BookToDocument converts a domain book to its index document.
func BookToDocument(b *domain.Book) *BookDocument {
	return &BookDocument{
		ID:     b.ID,
		Title:  b.Title,
		Author: b.Author,
		Genre:  b.Genre,
		Year:   b.Year,
	}
}

// ToMap converts the document to a map whose keys match the index mapping.
func (d *BookDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":     d.ID,
		"title":  d.Title,
		"author": d.Author,
	}
	if d.Genre != "" {
		m["genre"] = d.Genre
	}
	if d.Year > 0 {
		m["year"] = float64(d.Year)
	}
	return m
}
