// Package errors provides coded domain errors for the Heyrat API.
//
// Services return these errors; the API layer maps the Code to an HTTP status
// and a machine-readable envelope:
//
//	if user.RequiresDisplayName() {
//	    return errors.SetupIncomplete("display name required", "/profile/display-name")
//	}
//
//	if errors.Is(err, errors.ErrNotFound) {
//	    // 404
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

// Code is a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodeSetupIncomplete    Code = "SETUP_INCOMPLETE"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConflict           Code = "CONFLICT"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeUnavailable        Code = "UNAVAILABLE"
	CodeStorage            Code = "STORAGE_ERROR"
)

// HTTPStatus returns the HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthenticated, CodeInvalidCredentials:
		return http.StatusUnauthorized
	case CodeSetupIncomplete, CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message and optional details.
// Redirect is set for errors that the client resolves by navigating
// somewhere else (SETUP_INCOMPLETE).
type Error struct {
	Code     Code   `json:"code"`
	Message  string `json:"message"`
	Details  any    `json:"details,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// GetStatus satisfies huma.StatusError, so handlers can return domain errors
// directly.
func (e *Error) GetStatus() int {
	return e.HTTPStatus()
}

// WithDetails returns a copy of the error carrying details.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy of the error wrapping err.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.cause = err
	return &c
}

// Sentinel errors for use with errors.Is.
var (
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrUnauthenticated    = &Error{Code: CodeUnauthenticated, Message: "authentication required"}
	ErrSetupIncomplete    = &Error{Code: CodeSetupIncomplete, Message: "profile setup incomplete"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrConflict           = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "invalid credentials"}
	ErrRateLimited        = &Error{Code: CodeRateLimited, Message: "too many requests"}
	ErrStorage            = &Error{Code: CodeStorage, Message: "storage error"}
)

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// ValidationWithDetails creates a validation error with field-level details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Unauthenticated creates an unauthenticated error.
func Unauthenticated(msg string) *Error {
	return &Error{Code: CodeUnauthenticated, Message: msg}
}

// SetupIncomplete creates a setup-incomplete error pointing the client at redirect.
func SetupIncomplete(msg, redirect string) *Error {
	return &Error{Code: CodeSetupIncomplete, Message: msg, Redirect: redirect}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// InvalidCredentials creates an invalid credentials error.
func InvalidCredentials(msg string) *Error {
	return &Error{Code: CodeInvalidCredentials, Message: msg}
}

// RateLimited creates a rate limited error.
func RateLimited(msg string) *Error {
	return &Error{Code: CodeRateLimited, Message: msg}
}

// Unavailable creates an unavailable error.
func Unavailable(msg string) *Error {
	return &Error{Code: CodeUnavailable, Message: msg}
}

// Storage wraps a persistence failure. The message shown to callers stays generic.
func Storage(err error) *Error {
	return &Error{Code: CodeStorage, Message: "internal storage error", cause: err}
}
