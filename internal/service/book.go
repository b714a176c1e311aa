// Package service provides the business logic for accounts, the book
// catalogue, reviews, favourites and profiles.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	domainerrors "github.com/bookbuddyapp/bookbuddy-server/internal/errors"
	"github.com/bookbuddyapp/bookbuddy-server/internal/genre"
	"github.com/bookbuddyapp/bookbuddy-server/internal/id"
	"github.com/bookbuddyapp/bookbuddy-server/internal/normalize"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store"
	"github.com/bookbuddyapp/bookbuddy-server/internal/validation"
)

// Listing sizes for the home page shelves.
const (
	HomeShelfSize  = 6
	TopRatedLimit  = 24
	enrichTimeout  = 10 * time.Second
	maxSearchQuery = 200
)

// MetadataLookup finds catalogue metadata for a title and author.
// Returns nil and no error when nothing matches.
type MetadataLookup interface {
	Lookup(ctx context.Context, title, author string) (*domain.BookMetadata, error)
}

// BookService orchestrates book operations.
type BookService struct {
	store     store.Store
	lookup    MetadataLookup
	validator *validation.Validator
	logger    *slog.Logger
}

// NewBookService creates a new book service. lookup may be nil, which
// disables enrichment.
func NewBookService(store store.Store, lookup MetadataLookup, validator *validation.Validator, logger *slog.Logger) *BookService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookService{
		store:     store,
		lookup:    lookup,
		validator: validator,
		logger:    logger,
	}
}

// BookInput contains the editable fields of a book.
type BookInput struct {
	Title       string `json:"title" form:"title" validate:"required,maxrunes=300"`
	Author      string `json:"author" form:"author" validate:"required,maxrunes=200"`
	Genre       string `json:"genre" form:"genre" validate:"omitempty,genre"`
	Description string `json:"description" form:"description" validate:"maxrunes=5000"`
	CoverURL    string `json:"cover_url" form:"cover_url" validate:"omitempty,http_url,max=2048"`
	Year        int    `json:"year" form:"year" validate:"gte=0,lte=2100"`
	ISBN        string `json:"isbn" form:"isbn" validate:"max=20"`
}

func (in *BookInput) normalize() {
	in.Title = strings.Join(strings.Fields(in.Title), " ")
	in.Author = strings.Join(strings.Fields(in.Author), " ")
	if g := genre.Normalize(in.Genre); g != "" {
		in.Genre = g
	} else {
		in.Genre = strings.TrimSpace(in.Genre)
	}
	in.Description = strings.TrimSpace(in.Description)
	in.CoverURL = strings.TrimSpace(in.CoverURL)
	in.ISBN = strings.ReplaceAll(strings.TrimSpace(in.ISBN), "-", "")
}

func (in *BookInput) apply(b *domain.Book) {
	b.Title = in.Title
	b.Author = in.Author
	b.Genre = domain.CanonicalGenre(in.Genre)
	if b.Genre == "" {
		b.Genre = domain.DefaultGenre
	}
	b.Description = in.Description
	b.CoverURL = in.CoverURL
	b.Year = in.Year
	b.ISBN = in.ISBN
}

// CreateBook adds a book to the catalogue on behalf of actor.
// Missing cover, year and description are looked up; lookup failures are
// logged and never block creation.
func (s *BookService) CreateBook(ctx context.Context, actor *domain.User, in BookInput) (*domain.Book, error) {
	in.normalize()
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	if existing, err := s.store.GetBookByTitleAuthor(ctx, in.Title, in.Author); err == nil && existing != nil {
		return nil, duplicateBook(existing)
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup book: %w", err)
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	book := &domain.Book{Entity: domain.Entity{ID: bookID}}
	in.apply(book)
	if actor != nil {
		book.AddedBy = actor.ID
	}
	book.InitTimestamps()

	s.enrich(ctx, book)

	if err := s.store.CreateBook(ctx, book); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("that book already exists")
		}
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.logger.Info("book created", "book_id", book.ID, "added_by", book.AddedBy)
	return book, nil
}

// GetBook returns a book by ID.
func (s *BookService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("book %s not found", bookID)
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// GetOwnedBook returns a book actor may edit.
func (s *BookService) GetOwnedBook(ctx context.Context, actor *domain.User, bookID string) (*domain.Book, error) {
	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !book.IsOwnedBy(actor.ID) {
		return nil, domainerrors.Unauthorized("only the person who added this book can change it")
	}
	return book, nil
}

// UpdateBook edits a book actor added.
func (s *BookService) UpdateBook(ctx context.Context, actor *domain.User, bookID string, in BookInput) (*domain.Book, error) {
	book, err := s.GetOwnedBook(ctx, actor, bookID)
	if err != nil {
		return nil, err
	}

	in.normalize()
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	if other, err := s.store.GetBookByTitleAuthor(ctx, in.Title, in.Author); err == nil && other.ID != book.ID {
		return nil, duplicateBook(other)
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup book: %w", err)
	}

	in.apply(book)
	book.Touch()

	if err := s.store.UpdateBook(ctx, book); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			return nil, domainerrors.Conflict("that book already exists")
		case errors.Is(err, store.ErrNotFound):
			return nil, domainerrors.NotFoundf("book %s not found", bookID)
		}
		return nil, fmt.Errorf("update book: %w", err)
	}

	s.logger.Info("book updated", "book_id", book.ID)
	return book, nil
}

// DeleteBook removes a book actor added, along with its reviews and favourites.
func (s *BookService) DeleteBook(ctx context.Context, actor *domain.User, bookID string) error {
	book, err := s.GetOwnedBook(ctx, actor, bookID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteBook(ctx, book.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("book %s not found", bookID)
		}
		return fmt.Errorf("delete book: %w", err)
	}

	s.logger.Info("book deleted", "book_id", book.ID, "user_id", actor.ID)
	return nil
}

// SearchBooks lists books matching query and genre, alphabetically.
func (s *BookService) SearchBooks(ctx context.Context, query, genre string, page store.Page) (*store.PageResult[*domain.RatedBook], error) {
	page.Validate()

	result, err := s.store.SearchBooks(ctx, bookFilter(query, genre), page)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return result, nil
}

// TopRated returns the highest rated books, optionally filtered by query.
func (s *BookService) TopRated(ctx context.Context, query string, limit int) ([]*domain.RatedBook, error) {
	if limit <= 0 {
		limit = TopRatedLimit
	}
	books, err := s.store.TopRatedBooks(ctx, bookFilter(query, ""), limit)
	if err != nil {
		return nil, fmt.Errorf("top rated books: %w", err)
	}
	return books, nil
}

// Home holds the shelves shown on the landing page.
type Home struct {
	Featured *domain.RatedBook
	Shelves  []HomeShelf
	TopRated []*domain.RatedBook
	Recent   []*domain.RatedBook
	Genres   []string
	Total    int
}

// HomeShelf is a curated shelf resolved to the books present in the catalogue.
type HomeShelf struct {
	Name  string
	Books []*domain.Book
}

// Home assembles the landing page shelves. The featured book is the best
// rated one, falling back to the newest.
func (s *BookService) Home(ctx context.Context) (*Home, error) {
	top, err := s.store.TopRatedBooks(ctx, store.BookFilter{}, HomeShelfSize)
	if err != nil {
		return nil, fmt.Errorf("top rated books: %w", err)
	}
	recent, err := s.store.RecentBooks(ctx, HomeShelfSize)
	if err != nil {
		return nil, fmt.Errorf("recent books: %w", err)
	}
	total, err := s.store.CountBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}

	shelves, err := s.curatedShelves(ctx)
	if err != nil {
		return nil, err
	}

	home := &Home{
		Shelves:  shelves,
		TopRated: top,
		Recent:   recent,
		Genres:   domain.Genres,
		Total:    total,
	}
	switch {
	case len(top) > 0:
		home.Featured = top[0]
	case len(recent) > 0:
		home.Featured = recent[0]
	}
	return home, nil
}

// curatedShelves resolves domain.CuratedShelves against the catalogue.
// Entries that were never seeded are skipped, as are empty shelves.
func (s *BookService) curatedShelves(ctx context.Context) ([]HomeShelf, error) {
	var shelves []HomeShelf
	for _, shelf := range domain.CuratedShelves {
		home := HomeShelf{Name: shelf.Name}
		for _, e := range shelf.Entries {
			book, err := s.store.GetBookByTitleAuthor(ctx, e.Title, e.Author)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				return nil, fmt.Errorf("curated shelf %s: %w", shelf.Name, err)
			}
			home.Books = append(home.Books, book)
		}
		if len(home.Books) > 0 {
			shelves = append(shelves, home)
		}
	}
	return shelves, nil
}

// SeedResult counts what SeedCatalogue did.
type SeedResult struct {
	Created int
	Skipped int
}

// SeedCatalogue adds every curated book missing from the catalogue,
// enriching each from the metadata lookup. Curated books have no owner.
func (s *BookService) SeedCatalogue(ctx context.Context) (SeedResult, error) {
	var result SeedResult
	for _, shelf := range domain.CuratedShelves {
		for _, e := range shelf.Entries {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			_, err := s.CreateBook(ctx, nil, BookInput{Title: e.Title, Author: e.Author, Genre: e.Genre})
			switch {
			case err == nil:
				result.Created++
			case errors.Is(err, domainerrors.ErrConflict):
				result.Skipped++
			default:
				return result, fmt.Errorf("seed %q: %w", e.Title, err)
			}
		}
	}
	s.logger.Info("catalogue seeded", "created", result.Created, "skipped", result.Skipped)
	return result, nil
}

// GenreBySlug resolves a URL slug such as "sci-fi" to its genre.
func (s *BookService) GenreBySlug(slug string) (string, bool) {
	slug = normalize.Slugify(slug)
	for _, g := range domain.Genres {
		if normalize.Slugify(g) == slug {
			return g, true
		}
	}
	return "", false
}

// LookupMetadata returns the best catalogue match for title and author.
func (s *BookService) LookupMetadata(ctx context.Context, title, author string) (*domain.BookMetadata, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" {
		return nil, domainerrors.InvalidFields(domainerrors.FieldError{Field: "title", Message: "is required"})
	}
	if s.lookup == nil {
		return nil, domainerrors.NotFound("metadata lookups are disabled")
	}

	meta, err := s.lookup.Lookup(ctx, title, author)
	if err != nil {
		return nil, fmt.Errorf("lookup metadata: %w", err)
	}
	if meta == nil {
		return nil, domainerrors.NotFoundf("no match for %q", title)
	}
	return meta, nil
}

func (s *BookService) enrich(ctx context.Context, book *domain.Book) {
	if s.lookup == nil || !book.NeedsEnrichment() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, enrichTimeout)
	defer cancel()

	meta, err := s.lookup.Lookup(ctx, book.Title, book.Author)
	if err != nil {
		s.logger.Warn("metadata lookup failed", "title", book.Title, "error", err)
		return
	}
	book.Enrich(meta)
}

func bookFilter(query, genre string) store.BookFilter {
	query = strings.TrimSpace(query)
	if r := []rune(query); len(r) > maxSearchQuery {
		query = string(r[:maxSearchQuery])
	}
	if g := domain.CanonicalGenre(genre); g != "" {
		genre = g
	}
	return store.BookFilter{Query: query, Genre: strings.TrimSpace(genre)}
}

func duplicateBook(existing *domain.Book) error {
	return domainerrors.Conflict("that book already exists").WithDetails(map[string]string{"book_id": existing.ID})
}
