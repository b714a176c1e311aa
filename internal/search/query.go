package search

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// MaxSuggestions is the most suggestions a query returns.
const MaxSuggestions = 8

// Field boosts for suggestion ranking.
const (
	titleBoost  = 3.0
	authorBoost = 2.0
)

// Suggestion is a single search-as-you-type result.
type Suggestion struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Score  float64 `json:"score"`
}

// Suggest returns up to limit books matching text, best first. limit is
// clamped to MaxSuggestions. The last word is treated as a prefix so
// partially typed words match.
func (s *SearchIndex) Suggest(ctx context.Context, text string, limit int) ([]Suggestion, error) {
	q := buildSuggestQuery(text)
	if q == nil {
		return []Suggestion{}, nil
	}
	if limit <= 0 || limit > MaxSuggestions {
		limit = MaxSuggestions
	}

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"title", "author"}

	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	out := make([]Suggestion, 0, len(res.Hits))
	for _, hit := range res.Hits {
		sug := Suggestion{ID: hit.ID, Score: hit.Score}
		if v, ok := hit.Fields["title"].(string); ok {
			sug.Title = v
		}
		if v, ok := hit.Fields["author"].(string); ok {
			sug.Author = v
		}
		out = append(out, sug)
	}
	return out, nil
}

// buildSuggestQuery matches the whole text against title and author and
// the last word as a prefix of either. Returns nil for blank text.
func buildSuggestQuery(text string) query.Query {
	text = strings.ToLower(strings.TrimSpace(text))
	terms := strings.Fields(text)
	if len(terms) == 0 {
		return nil
	}

	title := bleve.NewMatchQuery(text)
	title.SetField("title")
	title.SetBoost(titleBoost)

	author := bleve.NewMatchQuery(text)
	author.SetField("author")
	author.SetBoost(authorBoost)

	last := lastWord(terms[len(terms)-1])
	if last == "" {
		return bleve.NewDisjunctionQuery(title, author)
	}

	titlePrefix := bleve.NewPrefixQuery(last)
	titlePrefix.SetField("title")
	titlePrefix.SetBoost(titleBoost)

	authorPrefix := bleve.NewPrefixQuery(last)
	authorPrefix.SetField("author")
	authorPrefix.SetBoost(authorBoost)

	return bleve.NewDisjunctionQuery(title, author, titlePrefix, authorPrefix)
}

// lastWord strips the non-letter characters the simple analyzer would drop,
// keeping only the trailing run of letters.
func lastWord(s string) string {
	r := []rune(s)
	end := len(r)
	for end > 0 && !unicode.IsLetter(r[end-1]) {
		end--
	}
	start := end
	for start > 0 && unicode.IsLetter(r[start-1]) {
		start--
	}
	return string(r[start:end])
}
