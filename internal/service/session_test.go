package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 512))
	assert.Equal(t, "abc", truncate("abcdef", 3))

	// 511 ASCII bytes then a two-byte rune straddling the limit.
	ua := strings.Repeat("a", 511) + "é" + "tail"
	got := truncate(ua, 512)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 511), got)

	// A run of three-byte runes.
	got = truncate(strings.Repeat("本", 200), 512)
	assert.True(t, utf8.ValidString(got))
	assert.Len(t, got, 510)
}
