// Package httputil provides HTTP response helpers and middleware.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bissquit/worknotes/internal/domain"
	"github.com/go-playground/validator/v10"
)

// FieldError describes one invalid payload field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorBody is the body of every error response.
type ErrorBody struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

// JSON writes a JSON response.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// Text writes a plain text response.
func Text(w http.ResponseWriter, statusCode int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(text)); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// Error writes a JSON response with {"error": message} body.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// ValidationError writes a 400 response describing invalid fields.
// It understands validator.ValidationErrors and *domain.ValidationError;
// anything else is reported as a single message.
func ValidationError(w http.ResponseWriter, err error) {
	body := ErrorBody{Error: "validation error"}

	var validationErrors validator.ValidationErrors
	var domainErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErrors):
		body.Details = make([]FieldError, 0, len(validationErrors))
		for _, e := range validationErrors {
			body.Details = append(body.Details, FieldError{
				Field:   e.Field(),
				Message: e.Tag(),
			})
		}
		if len(body.Details) > 0 {
			body.Error = body.Details[0].Field + " is missing or invalid"
		}
	case errors.As(err, &domainErr):
		body.Error = domainErr.Message
		body.Details = []FieldError{{Field: domainErr.Field, Message: domainErr.Message}}
	default:
		body.Error = err.Error()
	}

	JSON(w, http.StatusBadRequest, body)
}
