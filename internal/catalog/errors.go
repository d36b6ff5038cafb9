package catalog

import (
	"errors"
	"strings"
)

// ErrInvalidMovie matches every *ValidationError with errors.Is.
var ErrInvalidMovie = errors.New("invalid movie")

// ValidationError is returned when a movie fails validation before a write.
// The write is never attempted.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	if len(e.Reasons) == 0 {
		return ErrInvalidMovie.Error()
	}
	return ErrInvalidMovie.Error() + ": " + strings.Join(e.Reasons, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidMovie
}

// RemoteError wraps a failure reported by the document store.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *RemoteError) Unwrap() error { return e.Err }
