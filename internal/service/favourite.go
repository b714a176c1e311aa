package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	domainerrors "github.com/bookbuddyapp/bookbuddy-server/internal/errors"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store"
)

// FavouriteService manages a user's favourite books.
type FavouriteService struct {
	store  store.Store
	logger *slog.Logger
}

// NewFavouriteService creates a new favourite service.
func NewFavouriteService(store store.Store, logger *slog.Logger) *FavouriteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FavouriteService{store: store, logger: logger}
}

// Toggle flips bookID in actor's favourites and returns the new state.
func (s *FavouriteService) Toggle(ctx context.Context, actor *domain.User, bookID string) (bool, error) {
	favourite, err := s.store.ToggleFavourite(ctx, actor.ID, bookID)
	if err != nil {
		return false, favouriteError(err, bookID)
	}
	s.logger.Debug("favourite toggled", "user_id", actor.ID, "book_id", bookID, "favourite", favourite)
	return favourite, nil
}

// Add marks bookID as a favourite. Adding twice is harmless.
func (s *FavouriteService) Add(ctx context.Context, actor *domain.User, bookID string) error {
	if err := s.store.AddFavourite(ctx, actor.ID, bookID); err != nil {
		return favouriteError(err, bookID)
	}
	return nil
}

// Remove unmarks bookID. Removing a book that is not a favourite succeeds.
func (s *FavouriteService) Remove(ctx context.Context, actor *domain.User, bookID string) error {
	if err := s.store.RemoveFavourite(ctx, actor.ID, bookID); err != nil {
		return fmt.Errorf("remove favourite: %w", err)
	}
	return nil
}

// IsFavourite reports whether actor favourited bookID. Anonymous viewers
// have no favourites.
func (s *FavouriteService) IsFavourite(ctx context.Context, actor *domain.User, bookID string) (bool, error) {
	if actor == nil {
		return false, nil
	}
	ok, err := s.store.IsFavourite(ctx, actor.ID, bookID)
	if err != nil {
		return false, fmt.Errorf("check favourite: %w", err)
	}
	return ok, nil
}

// List returns actor's favourites, newest first, optionally filtered.
func (s *FavouriteService) List(ctx context.Context, actor *domain.User, query string, page store.Page) (*store.PageResult[*domain.FavouriteBook], error) {
	page.Validate()
	result, err := s.store.ListFavourites(ctx, actor.ID, bookFilter(query, ""), page)
	if err != nil {
		return nil, fmt.Errorf("list favourites: %w", err)
	}
	return result, nil
}

// BookIDs returns the IDs of actor's favourite books.
func (s *FavouriteService) BookIDs(ctx context.Context, actor *domain.User) ([]string, error) {
	ids, err := s.store.ListFavouriteBookIDs(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list favourite ids: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func favouriteError(err error, bookID string) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFoundf("book %s not found", bookID)
	}
	return fmt.Errorf("update favourite: %w", err)
}
