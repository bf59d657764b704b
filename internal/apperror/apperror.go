// Package apperror defines the error taxonomy shared by every layer of the
// caretrack backend.
//
// Services return these errors; HTTP handlers translate them to status codes
// with errors.Is/errors.As. Sentinel errors carry the category, AppError
// carries the human-readable message (and, for validation, the field).
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both "the record does not exist" and "the record
	// belongs to a different caregiver". The two cases must stay
	// indistinguishable at the API boundary.
	ErrNotFound = errors.New("not found")

	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")

	// ErrUnauthenticated: missing, malformed, or unverifiable token.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrProfileNotFound: the token verified but no local caregiver matches
	// it. Distinct from ErrUnauthenticated so clients can tell "log in again"
	// apart from "complete registration first".
	ErrProfileNotFound = errors.New("caregiver profile not found")
)

type AppError struct {
	Err     error  // sentinel category
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, detail string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict: %s", resource, detail),
	}
}

// Unauthenticated returns an AppError the handlers map to 401.
// The message is deliberately generic — the cause (missing header, bad
// signature, expired token) is logged, never returned to the caller.
func Unauthenticated() *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: "valid authentication required",
	}
}

// ProfileNotFound returns an AppError the handlers map to 404 with a
// profile-specific error code.
func ProfileNotFound() *AppError {
	return &AppError{
		Err:     ErrProfileNotFound,
		Message: "caregiver profile not found",
	}
}
