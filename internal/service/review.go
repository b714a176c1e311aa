package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	domainerrors "github.com/bookbuddyapp/bookbuddy-server/internal/errors"
	"github.com/bookbuddyapp/bookbuddy-server/internal/id"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store"
	"github.com/bookbuddyapp/bookbuddy-server/internal/validation"
)

// ReviewService manages reviews and ratings. A user has at most one review
// per book; writing again replaces it.
type ReviewService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(store store.Store, validator *validation.Validator, logger *slog.Logger) *ReviewService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewService{
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// ReviewInput contains a rating and review text.
type ReviewInput struct {
	Rating int    `json:"rating" form:"rating" validate:"required,gte=1,lte=5"`
	Body   string `json:"body" form:"body" validate:"required,maxrunes=5000"`
}

// WriteReview creates or replaces actor's review of bookID.
// Reports whether a new review was created.
func (s *ReviewService) WriteReview(ctx context.Context, actor *domain.User, bookID string, in ReviewInput) (*domain.Review, bool, error) {
	in.Body = strings.TrimSpace(in.Body)
	if err := s.validator.Validate(in); err != nil {
		return nil, false, err
	}

	reviewID, err := id.Generate(id.PrefixReview)
	if err != nil {
		return nil, false, fmt.Errorf("generate review ID: %w", err)
	}

	review := &domain.Review{
		Entity: domain.Entity{ID: reviewID},
		UserID: actor.ID,
		BookID: bookID,
		Rating: in.Rating,
		Body:   in.Body,
	}
	review.InitTimestamps()

	created, err := s.store.UpsertReview(ctx, review)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, domainerrors.NotFoundf("book %s not found", bookID)
		}
		return nil, false, fmt.Errorf("save review: %w", err)
	}

	s.logger.Info("review saved",
		"review_id", review.ID,
		"book_id", bookID,
		"user_id", actor.ID,
		"created", created,
	)
	return review, created, nil
}

// DeleteReview removes a review. Only its author may delete it.
func (s *ReviewService) DeleteReview(ctx context.Context, actor *domain.User, reviewID string) error {
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("review not found")
		}
		return fmt.Errorf("get review: %w", err)
	}
	if review.UserID != actor.ID {
		return domainerrors.Unauthorized("you can only delete your own reviews")
	}
	return s.delete(ctx, review)
}

// DeleteOwnReview removes actor's review of bookID.
func (s *ReviewService) DeleteOwnReview(ctx context.Context, actor *domain.User, bookID string) error {
	review, err := s.store.GetUserReview(ctx, actor.ID, bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("you have not reviewed this book")
		}
		return fmt.Errorf("get review: %w", err)
	}
	return s.delete(ctx, review)
}

func (s *ReviewService) delete(ctx context.Context, review *domain.Review) error {
	if err := s.store.DeleteReview(ctx, review.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("review not found")
		}
		return fmt.Errorf("delete review: %w", err)
	}
	s.logger.Info("review deleted", "review_id", review.ID, "book_id", review.BookID)
	return nil
}

// OwnReview returns actor's review of bookID, or nil when there is none.
func (s *ReviewService) OwnReview(ctx context.Context, actor *domain.User, bookID string) (*domain.Review, error) {
	if actor == nil {
		return nil, nil
	}
	review, err := s.store.GetUserReview(ctx, actor.ID, bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

// BookReviews lists a book's reviews, newest first.
func (s *ReviewService) BookReviews(ctx context.Context, bookID string, page store.Page) (*store.PageResult[*domain.ReviewWithAuthor], error) {
	page.Validate()
	result, err := s.store.ListBookReviews(ctx, bookID, page)
	if err != nil {
		return nil, fmt.Errorf("list book reviews: %w", err)
	}
	return result, nil
}

// UserReviews lists a user's reviews with their books, newest first.
func (s *ReviewService) UserReviews(ctx context.Context, userID string, page store.Page) (*store.PageResult[*domain.ReviewWithBook], error) {
	page.Validate()
	result, err := s.store.ListUserReviews(ctx, userID, page)
	if err != nil {
		return nil, fmt.Errorf("list user reviews: %w", err)
	}
	return result, nil
}

// RatingSummary returns the average rating and review count of a book.
func (s *ReviewService) RatingSummary(ctx context.Context, bookID string) (*domain.RatingSummary, error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("book %s not found", bookID)
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	summary, err := s.store.GetRatingSummary(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("rating summary: %w", err)
	}
	return summary, nil
}
