// Package store defines the persistence interface for the BookBuddy server.
package store

import (
	"context"
	"iter"
	"time"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error
	SetSearchIndexer(indexer SearchIndexer)

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByHandle(ctx context.Context, handle string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	SoftDeleteUser(ctx context.Context, id string, at time.Time) error
	PurgeDeletedUsers(ctx context.Context, deletedBefore time.Time) (int64, error)

	// Books
	CreateBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	GetBookByTitleAuthor(ctx context.Context, title, author string) (*domain.Book, error)
	UpdateBook(ctx context.Context, book *domain.Book) error
	DeleteBook(ctx context.Context, id string) error
	SearchBooks(ctx context.Context, filter BookFilter, page Page) (*PageResult[*domain.RatedBook], error)
	TopRatedBooks(ctx context.Context, filter BookFilter, limit int) ([]*domain.RatedBook, error)
	RecentBooks(ctx context.Context, limit int) ([]*domain.RatedBook, error)
	CountBooks(ctx context.Context) (int, error)
	IterBooks(ctx context.Context) iter.Seq2[*domain.Book, error]

	// Reviews
	UpsertReview(ctx context.Context, review *domain.Review) (created bool, err error)
	GetReview(ctx context.Context, id string) (*domain.Review, error)
	GetUserReview(ctx context.Context, userID, bookID string) (*domain.Review, error)
	DeleteReview(ctx context.Context, id string) error
	ListBookReviews(ctx context.Context, bookID string, page Page) (*PageResult[*domain.ReviewWithAuthor], error)
	ListUserReviews(ctx context.Context, userID string, page Page) (*PageResult[*domain.ReviewWithBook], error)
	GetRatingSummary(ctx context.Context, bookID string) (*domain.RatingSummary, error)

	// Favourites
	AddFavourite(ctx context.Context, userID, bookID string) error
	RemoveFavourite(ctx context.Context, userID, bookID string) error
	ToggleFavourite(ctx context.Context, userID, bookID string) (bool, error)
	IsFavourite(ctx context.Context, userID, bookID string) (bool, error)
	ListFavourites(ctx context.Context, userID string, filter BookFilter, page Page) (*PageResult[*domain.FavouriteBook], error)
	ListFavouriteBookIDs(ctx context.Context, userID string) ([]string, error)

	// Reading history
	RecordView(ctx context.Context, userID, bookID string, at time.Time) error
	ListHistory(ctx context.Context, userID string, filter BookFilter, limit int) ([]*domain.HistoryEntry, error)

	// User settings
	GetUserSettings(ctx context.Context, userID string) (*domain.UserSettings, error)
	UpsertUserSettings(ctx context.Context, settings *domain.UserSettings) error

	// Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	TouchSession(ctx context.Context, id string, at time.Time) error
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessions(ctx context.Context, userID, exceptID string) (int64, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// Password resets
	CreatePasswordReset(ctx context.Context, reset *domain.PasswordReset) error
	GetPasswordReset(ctx context.Context, id string) (*domain.PasswordReset, error)
	ResetPassword(ctx context.Context, resetID, userID, passwordHash string, at time.Time) error
	InvalidateUserPasswordResets(ctx context.Context, userID string, at time.Time) error
	DeleteExpiredPasswordResets(ctx context.Context, now time.Time) (int64, error)
}
