// Package apperr defines the error kinds surfaced by the service layer and
// their mapping from storage errors.
package apperr

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Kind classifies an Error.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindForbidden
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

// Error is a classified error. Message is safe to show to API clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports a missing entity.
func NotFound(resource string, id any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %v not found", resource, id)}
}

// Validation reports a malformed request or a violated invariant.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Forbidden reports an authenticated caller acting outside its role or jurisdiction.
func Forbidden(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Unauthenticated reports missing or invalid credentials.
func Unauthenticated(message string) error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return KindNotFound
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FromDB classifies a storage error. Constraint violations are a backstop;
// callers validate before writing.
func FromDB(err error, resource string, id any) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound(resource, id)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: KindValidation, Message: fmt.Sprintf("%s already exists", resource), Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &Error{Kind: KindValidation, Message: fmt.Sprintf("%s references a missing entity", resource), Err: err}
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return &Error{Kind: KindValidation, Message: fmt.Sprintf("%s violates a data constraint", resource), Err: err}
	}
	return Internal(fmt.Sprintf("database error when operating %s", resource), err)
}
