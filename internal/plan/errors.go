package plan

import (
	"errors"
	"fmt"
)

// ErrorKind classifies planning and file-operation failures so callers can
// branch on the kind instead of re-parsing message strings.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindMissingTemplate means a required format string is not configured.
	KindMissingTemplate
	// KindMissingPlaceholder means a template referenced a field the media
	// record does not carry.
	KindMissingPlaceholder
	// KindSkipConflict is a recoverable conflict under skip mode.
	KindSkipConflict
	// KindTargetExists is a fatal conflict under fail mode.
	KindTargetExists
	// KindFileOperation is a generic OS-level file error.
	KindFileOperation
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingTemplate:
		return "missing format string"
	case KindMissingPlaceholder:
		return "missing placeholder"
	case KindSkipConflict:
		return "conflict (skip)"
	case KindTargetExists:
		return "target exists"
	case KindFileOperation:
		return "file operation"
	default:
		return "unknown"
	}
}

// Error carries an ErrorKind alongside the underlying cause.
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with a kind and the path it concerns.
func NewError(kind ErrorKind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// KindOf extracts the ErrorKind from err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

var (
	// ErrSkipConflict signals a target collision under skip mode; the caller
	// skips this file and continues the run.
	ErrSkipConflict = errors.New("target exists, skipping")

	// ErrTargetExists signals a target collision under fail mode; it aborts
	// the entire run.
	ErrTargetExists = errors.New("target exists")

	// ErrSuffixExhausted means no free suffixed name was found within the cap.
	ErrSuffixExhausted = errors.New("no free suffix found")

	// ErrNameTooLong means a resolved filename exceeds the filesystem-safe limit.
	ErrNameTooLong = errors.New("filename too long")
)
