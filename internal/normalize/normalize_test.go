package normalize

import "testing"

func TestLanguageCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// ISO 639-1 codes (passthrough)
		{"en", "en"},
		{"de", "de"},
		// ISO 639-2 codes
		{"deu", "de"},
		{"ger", "de"}, // bibliographic variant
		// Locale codes
		{"en-US", "en"},
		{"fr_CA", "fr"},
		// Language names
		{"English", "en"},
		{"ITALIANO", "it"},
		{"Español", "es"},
		// Unsupported
		{"", ""},
		{"  ", ""},
		{"ja", ""},
		{"klingon", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := LanguageCode(tt.input)
			if result != tt.expected {
				t.Errorf("LanguageCode(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFold(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Emily Brontë", "emily bronte"},
		{"  Crime   and\tPunishment ", "crime and punishment"},
		{"Français", "francais"},
		{"1984", "1984"},
		{"nul\x00l", "null"},
	}

	for _, tt := range tests {
		if got := Fold(tt.input); got != tt.expected {
			t.Errorf("Fold(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Sci-Fi":          "sci-fi",
		"Non-fiction":     "non-fiction",
		"Cult favourites": "cult-favourites",
		"Crème Brûlée!":   "creme-brulee",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
