package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate(PrefixBook)
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{PrefixUser, PrefixBook, PrefixReview, PrefixSession, PrefixReset} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(id, prefix+"-"))
			assert.Len(t, id, len(prefix)+1+nanoidLength)
			assert.True(t, Valid(prefix, id))
		})
	}
}

func TestMustGenerate(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = MustGenerate(PrefixUser)
	})
}

func TestValid(t *testing.T) {
	good := MustGenerate(PrefixBook)

	assert.True(t, Valid(PrefixBook, good))
	assert.False(t, Valid(PrefixUser, good))
	assert.False(t, Valid(PrefixBook, "book-short"))
	assert.False(t, Valid(PrefixBook, "book-"+strings.Repeat("!", nanoidLength)))
	assert.False(t, Valid(PrefixBook, ""))
}
