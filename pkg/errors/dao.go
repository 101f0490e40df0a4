package errors

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError describes a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is an ordered list of field-level errors. It is raised
// before any storage call, so it never wraps a partial I/O state.
type ValidationError struct {
	Fields []FieldError `json:"errors"`
}

func NewValidationError() *ValidationError {
	return &ValidationError{}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Merge appends all field errors from other, prefixing each field name
// with the given prefix when it is non-empty.
func (e *ValidationError) Merge(prefix string, other *ValidationError) {
	if other == nil {
		return
	}
	for _, fe := range other.Fields {
		field := fe.Field
		if prefix != "" {
			field = prefix + "." + fe.Field
		}
		e.Add(field, fe.Message)
	}
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, fe := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NotFoundError is raised when a lookup or a by-identity mutation affects
// zero rows.
type NotFoundError struct {
	Message string `json:"message"`
}

func NewNotFoundError(message string) *NotFoundError {
	if message == "" {
		message = "Resource not found."
	}
	return &NotFoundError{Message: message}
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// DuplicateError is raised when a uniqueness check matches an existing
// row. ID carries the conflicting row's primary-key value.
type DuplicateError struct {
	ID    interface{} `json:"id"`
	Field string      `json:"field,omitempty"`
}

func NewDuplicateError(id interface{}) *DuplicateError {
	return &DuplicateError{ID: id}
}

func (e *DuplicateError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("duplicate resource: %s=%v", e.Field, e.ID)
	}
	return fmt.Sprintf("duplicate resource: id=%v", e.ID)
}

// ConfigError signals a schema or wiring defect rather than a runtime
// data condition. It is not recoverable by the caller.
type ConfigError struct {
	Message string `json:"message"`
}

func NewConfigError(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Error() string {
	return e.Message
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsDuplicate(err error) bool {
	var de *DuplicateError
	return errors.As(err, &de)
}

func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
