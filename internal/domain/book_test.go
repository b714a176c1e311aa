package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalGenre(t *testing.T) {
	assert.Equal(t, "Sci-Fi", CanonicalGenre("sci-fi"))
	assert.Equal(t, "Non-fiction", CanonicalGenre(" NON-FICTION "))
	assert.Equal(t, "", CanonicalGenre("poetry"))
	assert.True(t, IsGenre("other"))
	assert.False(t, IsGenre(""))
}

func TestBook_IsOwnedBy(t *testing.T) {
	b := &Book{AddedBy: "user-1"}
	assert.True(t, b.IsOwnedBy("user-1"))
	assert.False(t, b.IsOwnedBy("user-2"))

	curated := &Book{}
	assert.False(t, curated.IsOwnedBy(""), "curated books have no owner")
}

func TestBook_Cover(t *testing.T) {
	assert.Equal(t, PlaceholderCover, (&Book{}).Cover())
	assert.Equal(t, "https://covers.example/1.jpg", (&Book{CoverURL: "https://covers.example/1.jpg"}).Cover())
}

func TestBook_NeedsEnrichment(t *testing.T) {
	assert.True(t, (&Book{CoverURL: "x", Description: "y"}).NeedsEnrichment())
	assert.False(t, (&Book{CoverURL: "x", Description: "y", Year: 1847}).NeedsEnrichment())
}

func TestRatingSummary(t *testing.T) {
	r := RatingSummary{Average: 3.666, Count: 3}
	assert.InDelta(t, 3.7, r.Rounded(), 0.0001)
	assert.Equal(t, 4, r.FullStars())
}

func TestBook_Enrich(t *testing.T) {
	b := &Book{Title: "Dracula", Author: "Bram Stoker", Year: 1897}
	b.Enrich(&BookMetadata{
		Year:          1901,
		CoverURL:      "https://covers.openlibrary.org/b/id/1-L.jpg",
		CoverID:       1,
		OpenLibraryID: "OL1M",
		Description:   "A count moves to London.",
	})

	assert.Equal(t, 1897, b.Year, "existing fields win")
	assert.Equal(t, "https://covers.openlibrary.org/b/id/1-L.jpg", b.CoverURL)
	assert.Equal(t, 1, b.CoverID)
	assert.Equal(t, "OL1M", b.OpenLibraryID)
	assert.Equal(t, "A count moves to London.", b.Description)
	assert.False(t, b.NeedsEnrichment())

	b.Enrich(nil)
	assert.Equal(t, "OL1M", b.OpenLibraryID)
}

func TestBook_EnrichGenre(t *testing.T) {
	b := &Book{Genre: DefaultGenre}
	b.Enrich(&BookMetadata{Genre: "Horror"})
	assert.Equal(t, "Horror", b.Genre)

	b = &Book{Genre: "Gothic"}
	b.Enrich(&BookMetadata{Genre: "Horror"})
	assert.Equal(t, "Gothic", b.Genre, "chosen genre wins")
}
