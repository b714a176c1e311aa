package domain

import "strings"

// PlaceholderCover is shown for books without cover art.
const PlaceholderCover = "https://placehold.co/400x600/EEE/AAA?text=No+Cover"

// DefaultGenre is assigned when a book is added without a genre.
const DefaultGenre = "Other"

// Genres lists the genres offered in forms and filters.
//
//nolint:gochecknoglobals // Static lookup table
var Genres = []string{
	"Romance",
	"Fantasy",
	"Horror",
	"Mystery",
	"Non-fiction",
	"Sci-Fi",
	"Classics",
	"Dystopian",
	"Gothic",
	"Literary",
	"Adventure",
	DefaultGenre,
}

// IsGenre reports whether g is one of Genres, ignoring case.
func IsGenre(g string) bool {
	return CanonicalGenre(g) != ""
}

// CanonicalGenre returns the Genres entry matching g case-insensitively, or "".
func CanonicalGenre(g string) string {
	g = strings.TrimSpace(g)
	for _, known := range Genres {
		if strings.EqualFold(known, g) {
			return known
		}
	}
	return ""
}

// Book is an entry in the shared catalogue.
type Book struct {
	Entity
	Title         string `json:"title"`
	Author        string `json:"author"`
	Genre         string `json:"genre"`
	Description   string `json:"description,omitempty"`
	CoverURL      string `json:"cover_url,omitempty"`
	Year          int    `json:"year,omitempty"`
	ISBN          string `json:"isbn,omitempty"`
	OpenLibraryID string `json:"olid,omitempty"`
	CoverID       int    `json:"cover_id,omitempty"`

	// AddedBy is the user who added the book. Empty for curated catalogue
	// entries, which nobody can edit through the UI.
	AddedBy string `json:"added_by,omitempty"`
}

// IsOwnedBy reports whether userID may edit or delete the book.
func (b *Book) IsOwnedBy(userID string) bool {
	return b.AddedBy != "" && b.AddedBy == userID
}

// Cover returns the cover URL, or PlaceholderCover when none is known.
func (b *Book) Cover() string {
	if b.CoverURL != "" {
		return b.CoverURL
	}
	return PlaceholderCover
}

// NeedsEnrichment reports whether metadata lookups could fill in missing fields.
func (b *Book) NeedsEnrichment() bool {
	return b.CoverURL == "" || b.Description == "" || b.Year == 0
}

// BookMetadata is what an external catalogue knows about a book.
type BookMetadata struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Year          int    `json:"year,omitempty"`
	CoverURL      string `json:"cover_url,omitempty"`
	CoverID       int    `json:"cover_id,omitempty"`
	ISBN          string `json:"isbn,omitempty"`
	OpenLibraryID string `json:"olid,omitempty"`
	WorkKey       string `json:"work_key,omitempty"`
	Description   string `json:"description,omitempty"`
	Genre         string `json:"genre,omitempty"`
}

// Enrich fills the book's empty fields from m. Fields already set win.
func (b *Book) Enrich(m *BookMetadata) {
	if m == nil {
		return
	}
	if b.CoverURL == "" {
		b.CoverURL = m.CoverURL
	}
	if b.CoverID == 0 {
		b.CoverID = m.CoverID
	}
	if b.Year == 0 {
		b.Year = m.Year
	}
	if b.ISBN == "" {
		b.ISBN = m.ISBN
	}
	if b.OpenLibraryID == "" {
		b.OpenLibraryID = m.OpenLibraryID
	}
	if b.Description == "" {
		b.Description = m.Description
	}
	if b.Genre == DefaultGenre && m.Genre != "" {
		b.Genre = m.Genre
	}
}
