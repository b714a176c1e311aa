package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "toggleFavourite",
		Method:      http.MethodPost,
		Path:        "/books/{id}/favourite",
		Summary:     "Toggle favourite",
		Description: "Adds the book to the caller's favourites, or removes it if already there",
		Tags:        []string{"Favourites"},
		Security:    sessionSecurity,
	}, s.handleToggleFavourite)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRating",
		Method:      http.MethodGet,
		Path:        "/books/{id}/rating",
		Summary:     "Get rating",
		Description: "Returns the average rating and review count of a book",
		Tags:        []string{"Books"},
	}, s.handleGetRating)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFavourites",
		Method:      http.MethodGet,
		Path:        "/favourites",
		Summary:     "List favourite IDs",
		Description: "Returns the IDs of the caller's favourite books",
		Tags:        []string{"Favourites"},
		Security:    sessionSecurity,
	}, s.handleListFavourites)
}

// BookIDInput identifies a book.
type BookIDInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// FavouriteResponse reports the favourite state after a toggle.
type FavouriteResponse struct {
	BookID    string `json:"book_id" doc:"Book ID"`
	Favourite bool   `json:"favourite" doc:"Whether the book is now a favourite"`
}

// FavouriteOutput wraps the toggle response for Huma.
type FavouriteOutput struct {
	Body FavouriteResponse
}

func (s *Server) handleToggleFavourite(ctx context.Context, input *BookIDInput) (*FavouriteOutput, error) {
	user, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	favourite, err := s.services.Favourites.Toggle(ctx, user, input.ID)
	if err != nil {
		return nil, s.fail("toggle favourite", err)
	}
	return &FavouriteOutput{Body: FavouriteResponse{BookID: input.ID, Favourite: favourite}}, nil
}

// RatingResponse is a book's rating summary.
type RatingResponse struct {
	BookID  string  `json:"book_id" doc:"Book ID"`
	Average float64 `json:"average" doc:"Average rating rounded to one decimal"`
	Count   int     `json:"count" doc:"Number of reviews"`
}

// RatingOutput wraps the rating response for Huma.
type RatingOutput struct {
	Body RatingResponse
}

func (s *Server) handleGetRating(ctx context.Context, input *BookIDInput) (*RatingOutput, error) {
	summary, err := s.services.Reviews.RatingSummary(ctx, input.ID)
	if err != nil {
		return nil, s.fail("rating summary", err)
	}
	return &RatingOutput{Body: RatingResponse{
		BookID:  input.ID,
		Average: summary.Rounded(),
		Count:   summary.Count,
	}}, nil
}

// FavouriteIDsResponse lists favourite book IDs.
type FavouriteIDsResponse struct {
	BookIDs []string `json:"book_ids" doc:"IDs of favourite books"`
}

// FavouriteIDsOutput wraps the favourite IDs for Huma.
type FavouriteIDsOutput struct {
	Body FavouriteIDsResponse
}

func (s *Server) handleListFavourites(ctx context.Context, _ *struct{}) (*FavouriteIDsOutput, error) {
	user, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	ids, err := s.services.Favourites.BookIDs(ctx, user)
	if err != nil {
		return nil, s.fail("list favourites", err)
	}
	return &FavouriteIDsOutput{Body: FavouriteIDsResponse{BookIDs: ids}}, nil
}
