package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookbuddyapp/bookbuddy-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "suggestBooks",
		Method:      http.MethodGet,
		Path:        "/search/suggest",
		Summary:     "Suggest books",
		Description: "Returns up to 8 books whose title or author matches the query, best first",
		Tags:        []string{"Search"},
	}, s.handleSuggest)
}

// SuggestInput contains the partial query typed so far.
type SuggestInput struct {
	Query string `query:"q" maxLength:"200" doc:"Partial title or author"`
}

// SuggestResponse lists ranked suggestions.
type SuggestResponse struct {
	Query       string              `json:"query" doc:"Query as received"`
	Suggestions []search.Suggestion `json:"suggestions" doc:"Matching books, best first"`
}

// SuggestOutput wraps the suggest response for Huma.
type SuggestOutput struct {
	Body SuggestResponse
}

func (s *Server) handleSuggest(ctx context.Context, input *SuggestInput) (*SuggestOutput, error) {
	suggestions, err := s.services.Search.Suggest(ctx, input.Query)
	if err != nil {
		return nil, s.fail("suggest", err)
	}
	return &SuggestOutput{Body: SuggestResponse{Query: input.Query, Suggestions: suggestions}}, nil
}
