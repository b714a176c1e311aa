// Package normalize provides utilities for normalizing user-entered text.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// Matches any non-alphanumeric character.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// Matches runs of whitespace.
	whitespace = regexp.MustCompile(`\s+`)
)

// languageAliases maps ISO 639-2 codes and language names to the
// interface languages the site is translated into.
//
//nolint:gochecknoglobals // Static lookup table for language normalization
var languageAliases = map[string]string{
	"en": "en", "eng": "en", "english": "en",
	"es": "es", "spa": "es", "spanish": "es", "español": "es", "espanol": "es",
	"fr": "fr", "fra": "fr", "fre": "fr", "french": "fr", "français": "fr", "francais": "fr",
	"de": "de", "deu": "de", "ger": "de", "german": "de", "deutsch": "de",
	"it": "it", "ita": "it", "italian": "it", "italiano": "it",
}

// LanguageCode converts various language representations to a supported
// ISO 639-1 code:
//   - ISO 639-1 codes: "en" -> "en"
//   - ISO 639-2 codes: "deu" -> "de"
//   - Locale codes: "en-US", "en_GB" -> "en"
//   - Language names: "English", "Français" -> "en", "fr"
//
// Returns empty string for unsupported values.
func LanguageCode(raw string) string {
	s := strings.ToLower(strings.TrimSpace(sanitizeString(raw)))
	if s == "" {
		return ""
	}

	// Handle locale codes (e.g., "en-US", "en_GB").
	if idx := strings.IndexAny(s, "-_"); idx > 0 {
		s = s[:idx]
	}

	return languageAliases[s]
}

// Fold lowercases s, strips diacritics and collapses whitespace.
// "  Emily  Brontë " -> "emily bronte".
func Fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, sanitizeString(s))
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	return strings.TrimSpace(whitespace.ReplaceAllString(folded, " "))
}

// Slugify converts a string to a URL-safe slug.
// "Sci-Fi" -> "sci-fi", "Non-fiction" -> "non-fiction".
func Slugify(s string) string {
	s = nonAlphanumeric.ReplaceAllString(Fold(s), "-")
	return strings.Trim(s, "-")
}

// sanitizeString removes null bytes, which can cause issues in databases
// and JSON parsing.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}
