package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
)

func (s *Server) registerMetadataRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "lookupOpenLibrary",
		Method:      http.MethodGet,
		Path:        "/openlibrary/lookup",
		Summary:     "Look up book metadata",
		Description: "Returns the best Open Library match for a title and author, used to prefill the add-book form",
		Tags:        []string{"Metadata"},
		Security:    sessionSecurity,
	}, s.handleLookup)
}

// LookupInput contains the title and author to match.
type LookupInput struct {
	Title  string `query:"title" maxLength:"300" doc:"Book title"`
	Author string `query:"author" maxLength:"200" doc:"Author name"`
}

// LookupOutput wraps the matched metadata for Huma.
type LookupOutput struct {
	Body domain.BookMetadata
}

func (s *Server) handleLookup(ctx context.Context, input *LookupInput) (*LookupOutput, error) {
	if _, err := s.requireUser(ctx); err != nil {
		return nil, err
	}

	meta, err := s.services.Books.LookupMetadata(ctx, input.Title, input.Author)
	if err != nil {
		return nil, s.fail("lookup metadata", err)
	}
	return &LookupOutput{Body: *meta}, nil
}
