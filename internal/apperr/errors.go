// Package apperr defines the error kinds shared by the storage, import and
// HTTP layers, and their mapping to HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// ErrValidation indicates malformed or incomplete input.
var ErrValidation = errors.New("validation failed")

// ErrNotFound indicates a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a natural-key collision or a concurrent run.
var ErrConflict = errors.New("conflict")

// ErrStorage indicates the content store failed and writes were rolled back.
var ErrStorage = errors.New("storage failure")

// Error carries a client-facing message together with its kind and cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == ErrStorage {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Validation(message string) error {
	return &Error{Kind: ErrValidation, Message: message}
}

// NotFound builds "<resource> not found".
func NotFound(resource string) error {
	return &Error{Kind: ErrNotFound, Message: resource + " not found"}
}

func Conflict(message string) error {
	return &Error{Kind: ErrConflict, Message: message}
}

func Storage(message string, err error) error {
	return &Error{Kind: ErrStorage, Message: message, Err: err}
}

// Status maps an error to its HTTP status code. Unknown errors are 500.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text safe to show a client. Storage and unknown
// errors collapse to a generic message.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != ErrStorage {
		return appErr.Message
	}
	return "internal server error"
}

// IsUniqueViolation reports whether err came from a unique constraint.
// Drivers that gorm cannot translate are matched on their message.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "duplicate entry")
}
