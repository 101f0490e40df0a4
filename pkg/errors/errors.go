package errors

import (
	"fmt"
	"net/http"
)

type StatusError struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	Reason     string `json:"reason,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

func (e *StatusError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("status %d: %s: %s", e.Code, e.Message, e.Reason)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

func NewStatusError(code int, message string) *StatusError {
	return &StatusError{
		Code:    code,
		Message: message,
	}
}

func (e *StatusError) WithReason(reason string) *StatusError {
	return &StatusError{
		Code:       e.Code,
		Message:    e.Message,
		Reason:     reason,
		RetryAfter: e.RetryAfter,
	}
}

var (
	// Authentication errors
	ErrInvalidCredentials = NewStatusError(http.StatusUnauthorized, "invalid credentials")
	ErrTokenExpired       = NewStatusError(http.StatusUnauthorized, "token expired")
	ErrInvalidToken       = NewStatusError(http.StatusUnauthorized, "invalid token")

	// Validation errors
	ErrInvalidRequest = NewStatusError(http.StatusBadRequest, "invalid request")
	ErrInvalidInput   = NewStatusError(http.StatusBadRequest, "invalid input")

	// Schema errors
	ErrSchemaNotFound = NewStatusError(http.StatusNotFound, "schema not found")
	ErrSchemaExists   = NewStatusError(http.StatusConflict, "schema already exists")
	ErrTableNotFound  = NewStatusError(http.StatusNotFound, "table not found")

	// Server errors
	ErrInternal       = NewStatusError(http.StatusInternalServerError, "internal server error")
	ErrNotImplemented = NewStatusError(http.StatusNotImplemented, "not implemented")

	// Store operation errors
	ErrStorageOperation   = NewStatusError(http.StatusInternalServerError, "storage operation failed")
	ErrDatabaseConnection = NewStatusError(http.StatusInternalServerError, "database connection failed")

	// Dynamic field errors
	ErrInvalidFieldType = NewStatusError(http.StatusBadRequest, "invalid field type")
	ErrInvalidJSON      = NewStatusError(http.StatusBadRequest, "invalid JSON format")
	ErrInvalidTimestamp = NewStatusError(http.StatusBadRequest, "invalid timestamp format")
)
