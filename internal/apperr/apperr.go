// Package apperr defines the error kinds returned at operation boundaries
// and their mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an operation failure.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindUpstream     Kind = "upstream"
)

// Error is a classified failure with a client-safe message.
// Cause is kept for logs only and is never rendered to clients.
type Error struct {
	Kind    Kind
	Message string
	Details any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Validation reports missing or malformed input.
func Validation(format string, a ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, a...)}
}

// Unauthorized reports a missing or unauthenticated session.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// Forbidden reports that the provider refused the action.
func Forbidden(msg string, cause error) *Error {
	return &Error{Kind: KindForbidden, Message: msg, Cause: cause}
}

// NotFound reports a missing or inaccessible resource.
func NotFound(msg string, cause error) *Error {
	return &Error{Kind: KindNotFound, Message: msg, Cause: cause}
}

// Upstream reports a failed call to the LLM, GitHub or the database.
func Upstream(msg string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Cause: cause}
}

// WithDetails attaches diagnostic data that may be shown to the client.
func (e *Error) WithDetails(d any) *Error {
	e.Details = d
	return e
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// HTTPStatus maps err onto a response status. Unclassified errors are 500.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
