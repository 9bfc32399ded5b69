/*
errors.go - Error taxonomy for the ledger engine

ERROR CATEGORIES:
  ErrValidation: missing or invalid input               (HTTP 400)
  ErrForbidden:  wrong actor or role                    (HTTP 403)
  ErrNotFound:   missing entity                         (HTTP 404)
  ErrConflict:   state precondition violated, duplicate (HTTP 400)

  Anything else is an unhandled storage/infra failure (HTTP 500).

USAGE:
  if errors.Is(err, ledger.ErrConflict) { ... }

  var lerr *ledger.Error
  if errors.As(err, &lerr) {
      log.Println(lerr.Message)
  }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// =============================================================================
// STRUCTURED ERROR
// =============================================================================

// Error carries a client-facing message and unwraps to one of the sentinels.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// NewError builds a structured error of the given kind.
func NewError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationf(format string, args ...any) error {
	return NewError(ErrValidation, format, args...)
}

func forbiddenf(format string, args ...any) error {
	return NewError(ErrForbidden, format, args...)
}

func notFoundf(format string, args ...any) error {
	return NewError(ErrNotFound, format, args...)
}

func conflictf(format string, args ...any) error {
	return NewError(ErrConflict, format, args...)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether err was caused by the caller (4xx).
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict)
}

// Message returns the client-facing message of a ledger error, or fallback.
func Message(err error, fallback string) string {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Message
	}
	return fallback
}
