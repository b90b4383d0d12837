// Package types holds the error envelope shared by the HTTP layer and the
// catalog modules.
package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the machine readable code sent in error responses.
type ErrorCode string

const (
	ErrorCodeInternal         ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrorCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrorCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrorCodeCategoryNotFound ErrorCode = "CATEGORY_NOT_FOUND"
)

// ErrorSeverity decides the log level a failed request is reported at.
type ErrorSeverity string

const (
	SeverityInfo     ErrorSeverity = "info"
	SeverityWarning  ErrorSeverity = "warning"
	SeverityError    ErrorSeverity = "error"
	SeverityCritical ErrorSeverity = "critical"
)

// AppError is an error that knows how it should be rendered to a client.
type AppError struct {
	Code       ErrorCode
	Message    string
	Details    string
	Severity   ErrorSeverity
	HTTPStatus int
	Context    map[string]interface{}

	Cause error
}

func (e *AppError) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// WithContext attaches a key to the context object of the response body.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = map[string]interface{}{}
	}
	e.Context[key] = value
	return e
}

// NewAppError builds an error with the default severity for its status.
func NewAppError(code ErrorCode, message string, httpStatus int) *AppError {
	severity := SeverityWarning
	switch {
	case httpStatus >= http.StatusInternalServerError:
		severity = SeverityCritical
	case httpStatus == http.StatusNotFound:
		severity = SeverityInfo
	}
	return &AppError{Code: code, Message: message, Severity: severity, HTTPStatus: httpStatus}
}

func NewValidationError(message string, details ...string) *AppError {
	err := NewAppError(ErrorCodeValidation, message, http.StatusBadRequest)
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// NewNotFoundError reports that resource id does not exist.
func NewNotFoundError(resource, id string) *AppError {
	return NewAppError(ErrorCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound).
		WithContext("resource", resource).
		WithContext("id", id)
}

func NewUnauthorizedError(message string) *AppError {
	return NewAppError(ErrorCodeUnauthorized, message, http.StatusUnauthorized)
}

// NewInternalError hides cause from clients; it is only logged.
func NewInternalError(message string, cause error) *AppError {
	err := NewAppError(ErrorCodeInternal, message, http.StatusInternalServerError)
	err.Cause = cause
	return err
}
