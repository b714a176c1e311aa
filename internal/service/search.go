package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bookbuddyapp/bookbuddy-server/internal/search"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store"
)

// SearchService bridges the suggestion index with the data store.
type SearchService struct {
	index  *search.SearchIndex
	store  store.Store
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.SearchIndex, store store.Store, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchService{
		index:  index,
		store:  store,
		logger: logger,
	}
}

// Suggest returns up to search.MaxSuggestions books for a partially typed query.
func (s *SearchService) Suggest(ctx context.Context, query string) ([]search.Suggestion, error) {
	query = strings.TrimSpace(query)
	if r := []rune(query); len(r) > maxSearchQuery {
		query = string(r[:maxSearchQuery])
	}
	if query == "" {
		return []search.Suggestion{}, nil
	}

	results, err := s.index.Suggest(ctx, query, search.MaxSuggestions)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	return results, nil
}

// ReindexAll rebuilds the index from every book in the store.
func (s *SearchService) ReindexAll(ctx context.Context) (int, error) {
	n, err := s.index.Rebuild(ctx, s.store.IterBooks(ctx))
	if err != nil {
		return n, fmt.Errorf("rebuild search index: %w", err)
	}
	return n, nil
}

// EnsureIndex rebuilds the index when it is new or empty.
func (s *SearchService) EnsureIndex(ctx context.Context) error {
	if !s.index.NeedsRebuild() {
		return nil
	}
	n, err := s.ReindexAll(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("search index populated", "books", n)
	return nil
}
