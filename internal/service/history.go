package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	domainerrors "github.com/bookbuddyapp/bookbuddy-server/internal/errors"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store"
)

// HistoryService records which books a user has looked at.
type HistoryService struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewHistoryService creates a new reading history service.
func NewHistoryService(store store.Store, logger *slog.Logger) *HistoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryService{store: store, logger: logger, now: time.Now}
}

// RecordView notes that actor viewed bookID. Repeat views move the book to
// the top of the history.
func (s *HistoryService) RecordView(ctx context.Context, actor *domain.User, bookID string) error {
	if err := s.store.RecordView(ctx, actor.ID, bookID, s.now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("book %s not found", bookID)
		}
		return fmt.Errorf("record view: %w", err)
	}
	return nil
}

// List returns actor's most recently viewed books, optionally filtered.
func (s *HistoryService) List(ctx context.Context, actor *domain.User, query string) ([]*domain.HistoryEntry, error) {
	entries, err := s.store.ListHistory(ctx, actor.ID, bookFilter(query, ""), domain.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}
