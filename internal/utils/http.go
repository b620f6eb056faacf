// Package utils provides utility functions used throughout the gateway.
package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// APIResponse represents a standard non-gateway error response.
type APIResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Error   any  `json:"error,omitempty"`
}

// ValidationErrorItem represents a single validation error.
type ValidationErrorItem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RespondWithJSON sends a JSON response with the given status code and data.
// The body is encoded before the header is written so an encoding failure can still become a 500.
func RespondWithJSON(w http.ResponseWriter, statusCode int, data any) {
	var buf bytes.Buffer
	if data != nil {
		if err := json.NewEncoder(&buf).Encode(data); err != nil {
			GetLogger().Error("Failed to encode JSON response", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
}

// RespondWithError sends an error response with the given status code and message.
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	response := APIResponse{
		Success: false,
		Error: map[string]string{
			"message": message,
		},
	}
	RespondWithJSON(w, statusCode, response)
}

// RespondWithAppError writes err using its mapped status. Gateway failures use the
// {error, last_error} envelope.
func RespondWithAppError(w http.ResponseWriter, err error) {
	status := StatusCode(err)
	if status == http.StatusBadGateway {
		RespondWithJSON(w, status, ErrorResponse(err))
		return
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondWithError(w, status, appErr.Message)
		return
	}
	RespondWithError(w, status, http.StatusText(status))
}

// RespondWithValidationError sends a validation error response.
func RespondWithValidationError(w http.ResponseWriter, err error) {
	var validationErrors []ValidationErrorItem

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			field := e.Field()

			var message string
			switch e.Tag() {
			case "required":
				message = field + " is required"
			case "min":
				message = field + " must be at least " + e.Param()
			case "max":
				message = field + " must be at most " + e.Param()
			case "video_id":
				message = field + " must be a valid video ID"
			default:
				message = field + " failed validation: " + e.Tag()
			}

			validationErrors = append(validationErrors, ValidationErrorItem{
				Field:   field,
				Message: message,
			})
		}
	} else {
		validationErrors = append(validationErrors, ValidationErrorItem{
			Field:   "general",
			Message: err.Error(),
		})
	}

	response := APIResponse{
		Success: false,
		Error: map[string]any{
			"message": "Validation failed",
			"errors":  validationErrors,
		},
	}

	RespondWithJSON(w, http.StatusBadRequest, response)
}
