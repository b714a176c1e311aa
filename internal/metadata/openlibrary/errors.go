package openlibrary

import (
	"errors"
	"fmt"
)

// Sentinel errors for Open Library operations.
var (
	ErrNotFound    = errors.New("openlibrary: not found")
	ErrRateLimited = errors.New("openlibrary: rate limited by server")
	ErrServer      = errors.New("openlibrary: server error")
	ErrUnavailable = errors.New("openlibrary: temporarily unavailable")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op    string // "search" or "work"
	Query string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("openlibrary %s [%s]: %v", e.Op, e.Query, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, query string, err error) error {
	return &Error{Op: op, Query: query, Err: err}
}
