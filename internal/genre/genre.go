// Package genre maps free-form genre names and subject headings, such as
// the subjects on Open Library records, to the catalogue's genres.
package genre

import (
	"strings"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	"github.com/bookbuddyapp/bookbuddy-server/internal/normalize"
)

// alias maps a slugged subject fragment to a catalogue genre.
type alias struct {
	slug  string
	genre string
}

// aliases are checked in order; the first fragment found in a subject wins.
// More specific fragments come before the broader ones they contain.
//
//nolint:gochecknoglobals // Static lookup table
var aliases = []alias{
	// Science fiction
	{"science-fiction", "Sci-Fi"},
	{"sci-fi", "Sci-Fi"},
	{"scifi", "Sci-Fi"},
	{"space-opera", "Sci-Fi"},
	{"cyberpunk", "Sci-Fi"},
	{"time-travel", "Sci-Fi"},

	{"dystopias", "Dystopian"},
	{"dystopian", "Dystopian"},
	{"totalitarianism", "Dystopian"},

	// Gothic before horror: gothic novels are usually tagged both.
	{"gothic", "Gothic"},
	{"horror", "Horror"},
	{"ghost-stories", "Horror"},
	{"vampires", "Horror"},
	{"monsters", "Horror"},

	{"fantasy", "Fantasy"},
	{"sword-and-sorcery", "Fantasy"},
	{"fairy-tales", "Fantasy"},
	{"magic", "Fantasy"},
	{"dragons", "Fantasy"},

	{"romance", "Romance"},
	{"love-stories", "Romance"},

	{"detective", "Mystery"},
	{"mystery", "Mystery"},
	{"crime", "Mystery"},
	{"thriller", "Mystery"},
	{"suspense", "Mystery"},

	{"adventure", "Adventure"},
	{"sea-stories", "Adventure"},
	{"voyages", "Adventure"},

	{"classic-literature", "Classics"},
	{"classics", "Classics"},

	{"nonfiction", "Non-fiction"},
	{"non-fiction", "Non-fiction"},
	{"biography", "Non-fiction"},
	{"autobiography", "Non-fiction"},
	{"memoir", "Non-fiction"},
	{"history", "Non-fiction"},
	{"essays", "Non-fiction"},
	{"self-help", "Non-fiction"},

	{"literary-fiction", "Literary"},
	{"psychological-fiction", "Literary"},
	{"domestic-fiction", "Literary"},
}

// Normalize returns the catalogue genre for a single name such as
// "science fiction" or "SCI-FI", or "" when it matches none.
func Normalize(raw string) string {
	if g := domain.CanonicalGenre(raw); g != "" {
		return g
	}
	return match(normalize.Slugify(raw))
}

// FromSubjects picks the genre most of subjects agree on. Ties go to the
// genre seen first. Returns "" when no subject matches.
func FromSubjects(subjects []string) string {
	votes := make(map[string]int)
	var order []string

	for _, subject := range subjects {
		g := Normalize(subject)
		if g == "" {
			continue
		}
		if votes[g] == 0 {
			order = append(order, g)
		}
		votes[g]++
	}

	best := ""
	for _, g := range order {
		if votes[g] > votes[best] {
			best = g
		}
	}
	return best
}

// match finds the first alias whose fragment appears in slug on hyphen
// boundaries, so "fiction-science-fiction-general" matches "science-fiction"
// but "magical-realism" does not match "magic".
func match(slug string) string {
	if slug == "" {
		return ""
	}
	padded := "-" + slug + "-"
	for _, a := range aliases {
		if strings.Contains(padded, "-"+a.slug+"-") {
			return a.genre
		}
	}
	return ""
}
