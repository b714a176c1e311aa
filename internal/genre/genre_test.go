package genre

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Sci-Fi", "Sci-Fi"},
		{"sci-fi", "Sci-Fi"},
		{"Science Fiction", "Sci-Fi"},
		{"Fiction, science fiction, general", "Sci-Fi"},
		{"Gothic fiction", "Gothic"},
		{"Horror tales", "Horror"},
		{"Detective and mystery stories", "Mystery"},
		{"Love stories", "Romance"},
		{"Dystopias", "Dystopian"},
		{"Magical realism", ""},
		{"", ""},
		{"Cookery", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestFromSubjects(t *testing.T) {
	t.Run("majority wins", func(t *testing.T) {
		subjects := []string{"Fiction", "Horror tales", "Gothic fiction", "Vampires", "Transylvania"}
		assert.Equal(t, "Horror", FromSubjects(subjects))
	})

	t.Run("tie goes to the first seen", func(t *testing.T) {
		subjects := []string{"Dystopias", "Science fiction"}
		assert.Equal(t, "Dystopian", FromSubjects(subjects))
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, FromSubjects([]string{"Fiction", "England"}))
		assert.Empty(t, FromSubjects(nil))
	})
}
