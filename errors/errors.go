package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is the API error type carried from services up to the response layer.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// New creates a new Error with the given message and HTTP status code.
func New(message string, status int) *Error {
	return &Error{
		Message: message,
		Status:  status,
	}
}

var (
	ErrInternalServerError = New("internal server error", http.StatusInternalServerError)
	ErrBadRequest          = New("bad request", http.StatusBadRequest)
	ErrNotFound            = New("not found", http.StatusNotFound)
	ErrUnauthorized        = New("unauthorized", http.StatusUnauthorized)
	ErrForbidden           = New("forbidden", http.StatusForbidden)
	ErrInvalidPassword     = New("invalid email or password", http.StatusUnprocessableEntity)

	InActiveUserError = errors.New("user inactive")
)

// GetUniqueContraintError maps a unique-constraint violation to a friendly
// 4xx error, falling back to the wrapped message otherwise.
func GetUniqueContraintError(err error) *Error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "email"):
		return New("email already exists", http.StatusBadRequest)
	case strings.Contains(msg, "phone"), strings.Contains(msg, "telephone"):
		return New("telephone already exists", http.StatusBadRequest)
	default:
		return New(msg, http.StatusBadRequest)
	}
}
