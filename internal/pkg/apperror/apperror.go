// Package apperror holds the error taxonomy shared by services and the HTTP boundary.
package apperror

import (
	"errors"
	"net/http"

	"financebot-be/internal/constant"
)

type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "VALIDATION"
	ErrorTypeAuthentication  ErrorType = "AUTHENTICATION"
	ErrorTypeUnauthenticated ErrorType = "UNAUTHENTICATED"
	ErrorTypeUpstream        ErrorType = "UPSTREAM"
	ErrorTypeInternal        ErrorType = "INTERNAL"
)

// AppError carries the HTTP status and the client-facing message.
// Internal is kept for logs and never rendered.
type AppError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Internal   error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Internal
}

func newError(errType ErrorType, message string, statusCode int, internal error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		StatusCode: statusCode,
		Internal:   internal,
	}
}

// Validation is a missing or malformed field at the boundary (400).
func Validation(message string) *AppError {
	return newError(ErrorTypeValidation, message, http.StatusBadRequest, nil)
}

// ValidationWithStatus covers endpoints that historically answer a
// missing field with another status, e.g. 401 on the history reads.
func ValidationWithStatus(message string, statusCode int) *AppError {
	return newError(ErrorTypeValidation, message, statusCode, nil)
}

// Authentication is a bad-credentials failure reported by the identity provider (401).
func Authentication(message string) *AppError {
	return newError(ErrorTypeAuthentication, message, http.StatusUnauthorized, nil)
}

// Unauthenticated means no identity could be resolved for the caller (401).
func Unauthenticated(message string) *AppError {
	return newError(ErrorTypeUnauthenticated, message, http.StatusUnauthorized, nil)
}

// Upstream surfaces the failure message of an external store or API (500).
func Upstream(err error) *AppError {
	return newError(ErrorTypeUpstream, err.Error(), http.StatusInternalServerError, err)
}

// UpstreamWithStatus is Upstream with an explicit status (e.g. 502 for a relay).
func UpstreamWithStatus(err error, statusCode int) *AppError {
	return newError(ErrorTypeUpstream, err.Error(), statusCode, err)
}

// Internal hides the cause behind the generic localized message (500).
func Internal(err error) *AppError {
	return newError(ErrorTypeInternal, constant.MsgInternalError, http.StatusInternalServerError, err)
}

// From returns err as an *AppError, wrapping unknown errors as Internal.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

func Is(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}
