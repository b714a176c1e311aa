// Package id generates the prefixed identifiers used for every stored entity.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Entity prefixes.
const (
	PrefixUser    = "user"
	PrefixBook    = "book"
	PrefixReview  = "rev"
	PrefixSession = "sess"
	PrefixReset   = "reset"
)

// nanoidLength is the default NanoID size (21 URL-safe characters).
const nanoidLength = 21

// Generate creates a prefixed unique ID, e.g. "book-V1StGXR8_Z5jdHi6B-myT".
// Returns an error if the system has insufficient entropy.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New(nanoidLength)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Valid reports whether s looks like an ID generated with prefix.
// Handlers use it to turn obviously malformed path values into 404s
// without touching the database.
func Valid(prefix, s string) bool {
	rest, ok := strings.CutPrefix(s, prefix+"-")
	if !ok || len(rest) != nanoidLength {
		return false
	}
	for _, r := range rest {
		if !strings.ContainsRune(gonanoidAlphabet, r) {
			return false
		}
	}
	return true
}

// gonanoidAlphabet mirrors the default NanoID alphabet.
const gonanoidAlphabet = "_-0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
