// Package apperr provides the structured error taxonomy shared by the blog,
// account and analytics services, with HTTP status mapping for the API layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Type represents the category of error for metrics and response formatting.
type Type string

const (
	// TypeValidation indicates a missing or malformed field (HTTP 400).
	TypeValidation Type = "validation"
	// TypePermission indicates a failed role or ownership check (HTTP 403).
	TypePermission Type = "permission_denied"
	// TypeSentiment indicates content that failed the acceptance gate (HTTP 400).
	TypeSentiment Type = "sentiment_rejected"
	// TypeNotFound indicates an id that does not resolve (HTTP 404).
	TypeNotFound Type = "not_found"
	// TypeConflict indicates a duplicate key or repeated reaction (HTTP 400).
	TypeConflict Type = "conflict"
	// TypeUnauthorized indicates a credential mismatch on login (HTTP 401).
	TypeUnauthorized Type = "unauthorized"
	// TypeUnavailable indicates the storage call failed or timed out (HTTP 503).
	TypeUnavailable Type = "storage_unavailable"
	// TypeInternal indicates an unexpected fault (HTTP 500).
	TypeInternal Type = "internal"
)

// Error is a structured error with type, message, cause and context.
type Error struct {
	Type    Type
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the status code the API reports for this error type.
// Conflicts stay on 400 because existing clients expect it for duplicate
// registrations and repeated reactions.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation, TypeSentiment, TypeConflict:
		return http.StatusBadRequest
	case TypePermission:
		return http.StatusForbidden
	case TypeNotFound:
		return http.StatusNotFound
	case TypeUnauthorized:
		return http.StatusUnauthorized
	case TypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the caller may retry the operation.
func (e *Error) Retryable() bool {
	return e.Type == TypeUnavailable
}

func newError(t Type, message string, cause error) *Error {
	return &Error{
		Type:    t,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return newError(TypeValidation, message, nil)
}

// PermissionDenied creates a permission error.
func PermissionDenied(message string) *Error {
	return newError(TypePermission, message, nil)
}

// SentimentRejected creates a rejection error; the caller attaches scores
// with WithContext so the client can show why.
func SentimentRejected(message string) *Error {
	return newError(TypeSentiment, message, nil)
}

// NotFound creates a not-found error.
func NotFound(message string) *Error {
	return newError(TypeNotFound, message, nil)
}

// Conflict creates a conflict error.
func Conflict(message string) *Error {
	return newError(TypeConflict, message, nil)
}

// Unauthorized creates a credential error.
func Unauthorized(message string) *Error {
	return newError(TypeUnauthorized, message, nil)
}

// Unavailable wraps a failed storage call.
func Unavailable(message string, cause error) *Error {
	return newError(TypeUnavailable, message, cause)
}

// Internal wraps an unexpected fault.
func Internal(message string, cause error) *Error {
	return newError(TypeInternal, message, cause)
}

// WithContext adds a context field to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Is reports whether err carries the given type anywhere in its chain.
func Is(err error, t Type) bool {
	var structured *Error
	if errors.As(err, &structured) {
		return structured.Type == t
	}
	return false
}

// AsStructuredError converts any error into a structured Error.
// Errors that are not already structured become internal errors.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structured *Error
	if errors.As(err, &structured) {
		return structured
	}

	return Internal("internal server error", err)
}
