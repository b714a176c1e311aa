package store

import "fmt"

// Error is a persistence error. Services translate these into domain errors.
type Error struct {
	Message string
	Err     error // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by message so wrapped copies still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == e.Message
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Message: e.Message, Err: err}
}

// Sentinel errors.
var (
	ErrNotFound = &Error{Message: "resource not found"}

	// ErrAlreadyExists reports a unique constraint violation.
	ErrAlreadyExists = &Error{Message: "resource already exists"}

	// ErrAlreadyUsed reports a single-use record that was already consumed.
	ErrAlreadyUsed = &Error{Message: "resource already used"}
)
