// Package utils provides utility functions used throughout the gateway.
package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types
var (
	ErrBadRequest  = errors.New("invalid request")
	ErrBadGateway  = errors.New("upstream resolution failed")
	ErrValidation  = errors.New("validation error")
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Diagnoser is implemented by errors that carry a more specific diagnostic than Error().
// The fallback resolver's exhausted error reports its last attempt this way.
type Diagnoser interface {
	Diagnostic() string
}

// AppError represents an application error with the HTTP status it should surface as.
type AppError struct {
	// Original is the underlying error that caused this error
	Original error
	// Message is the short error code shown to clients
	Message string
	// Code is the HTTP status code that should be returned
	Code int
}

// Error returns the error message, satisfying the error interface.
func (e *AppError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Original)
	}
	return e.Message
}

// Unwrap returns the underlying error, supporting errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Original
}

// Diagnostic returns the client-facing diagnostic string for the underlying failure.
func (e *AppError) Diagnostic() string {
	if e.Original == nil {
		return ""
	}
	var d Diagnoser
	if errors.As(e.Original, &d) {
		return d.Diagnostic()
	}
	return e.Original.Error()
}

// NewAppError creates a new AppError.
func NewAppError(err error, message string, code int) *AppError {
	return &AppError{
		Original: err,
		Message:  message,
		Code:     code,
	}
}

// BadGatewayError creates a 502 error. Every upstream resolution failure surfaces this way.
func BadGatewayError(message string, err error) *AppError {
	if message == "" {
		message = "Upstream request failed"
	}
	return NewAppError(err, message, http.StatusBadGateway)
}

// RateLimitError creates a new 429 Too Many Requests error.
func RateLimitError(message string, err error) *AppError {
	if message == "" {
		message = "Rate limit exceeded"
	}
	return NewAppError(err, message, http.StatusTooManyRequests)
}

// StatusCode returns the HTTP status code for the error.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrBadGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse creates the error envelope for an error.
// Gateway failures use {error, last_error}; everything else uses {error}.
func ErrorResponse(err error) map[string]any {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Code == http.StatusBadGateway {
			return map[string]any{
				"error":      appErr.Message,
				"last_error": appErr.Diagnostic(),
			}
		}
		return map[string]any{
			"error": appErr.Message,
		}
	}

	return map[string]any{
		"error": err.Error(),
	}
}
