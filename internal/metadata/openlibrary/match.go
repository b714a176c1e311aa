package openlibrary

import (
	"strconv"
	"strings"
)

// Scores used to rank search hits against the requested title and author.
const (
	scoreExact   = 50
	scorePartial = 25
	scoreCover   = 10
	scoreWorkKey = 5
	scoreHasISBN = 3
)

// matchScore rates how well d matches title and author. Both are expected
// lowercased and trimmed.
func matchScore(d *Doc, title, author string) int {
	score := 0

	docTitle := strings.ToLower(strings.TrimSpace(d.Title))
	switch {
	case docTitle == title:
		score += scoreExact
	case title != "" && strings.Contains(docTitle, title):
		score += scorePartial
	}

	first := strings.ToLower(d.FirstAuthor())
	if author != "" && first != "" {
		switch {
		case first == author:
			score += scoreExact
		case strings.Contains(first, author), strings.Contains(author, first):
			score += scorePartial
		}
	}

	return score
}

// coverScore ranks hits for cover enrichment: hits with artwork and an
// ISBN are more likely to resolve to a real image.
func coverScore(d *Doc, title, author string) int {
	score := matchScore(d, title, author)
	if d.CoverI > 0 {
		score += scoreCover
	}
	if len(d.ISBN) > 0 {
		score += scoreHasISBN
	}
	return score
}

// descriptionScore ranks hits for description lookups, which need a work key.
func descriptionScore(d *Doc, title, author string) int {
	score := matchScore(d, title, author)
	if d.Key != "" {
		score += scoreWorkKey
	}
	return score
}

// bestMatch returns the highest scoring doc. Ties keep the earlier (more
// relevant) search result. Returns nil for an empty slice.
func bestMatch(docs []Doc, title, author string, score func(*Doc, string, string) int) *Doc {
	title = strings.ToLower(strings.TrimSpace(title))
	author = strings.ToLower(strings.TrimSpace(author))

	var (
		best      *Doc
		bestScore = -1
	)
	for i := range docs {
		if s := score(&docs[i], title, author); s > bestScore {
			best, bestScore = &docs[i], s
		}
	}
	return best
}

// CoverURL builds the most reliable cover URL for d: by cover id, then by
// ISBN, then by edition id. Returns "" when none is known.
func CoverURL(base string, d *Doc) string {
	switch {
	case d.CoverI > 0:
		return base + "/b/id/" + strconv.Itoa(d.CoverI) + "-L.jpg"
	case d.FirstISBN() != "":
		return base + "/b/isbn/" + d.FirstISBN() + "-L.jpg"
	case d.OLID() != "":
		return base + "/b/olid/" + d.OLID() + "-L.jpg"
	}
	return ""
}
