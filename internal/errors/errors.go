// Package errors defines the service error taxonomy and its HTTP mapping.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of service error.
type ErrorCode string

const (
	CodeDuplicateID     ErrorCode = "DUPLICATE_ID"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeUnknownID       ErrorCode = "UNKNOWN_ID"
	CodeBadSecret       ErrorCode = "BAD_SECRET"
	CodeValidation      ErrorCode = "VALIDATION"
	CodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	CodeExternalFailure ErrorCode = "EXTERNAL_CALL_FAILURE"
	CodePersistence     ErrorCode = "PERSISTENCE_FAILURE"
	CodeInternal        ErrorCode = "INTERNAL"
)

// ServiceError is the boundary error type surfaced by handlers. Validation
// errors are never fatal; persistence errors abort the in-progress request.
type ServiceError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Is matches on error code so callers can test categories with errors.Is.
func (e *ServiceError) Is(target error) bool {
	var se *ServiceError
	if errors.As(target, &se) {
		return e.Code == se.Code
	}
	return false
}

// WithDetails attaches a detail field and returns the error for chaining.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// DuplicateID reports an attempt to register an already-taken store id.
func DuplicateID(id string) *ServiceError {
	return &ServiceError{
		Code:       CodeDuplicateID,
		Message:    fmt.Sprintf("store id %q is already registered", id),
		HTTPStatus: http.StatusConflict,
	}
}

// NotFound reports a missing directory record.
func NotFound(id string) *ServiceError {
	return &ServiceError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("store %q not found", id),
		HTTPStatus: http.StatusNotFound,
	}
}

// UnknownID reports a login attempt with an id absent from the directory.
func UnknownID(id string) *ServiceError {
	return &ServiceError{
		Code:       CodeUnknownID,
		Message:    fmt.Sprintf("unknown store id %q", id),
		HTTPStatus: http.StatusUnauthorized,
	}
}

// BadSecret reports a login attempt with a wrong password.
func BadSecret() *ServiceError {
	return &ServiceError{
		Code:       CodeBadSecret,
		Message:    "wrong password",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Validation reports failed input validation before any mutation.
func Validation(message string) *ServiceError {
	return &ServiceError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Unauthorized reports a missing or invalid credential.
func Unauthorized(message string) *ServiceError {
	return &ServiceError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// External reports a failed call to an external boundary. Callers recover
// these locally; they are carried for logging and degraded responses.
func External(boundary string, err error) *ServiceError {
	return &ServiceError{
		Code:       CodeExternalFailure,
		Message:    fmt.Sprintf("%s call failed", boundary),
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// Persistence reports a failed directory write. The one unrecovered class:
// it propagates and aborts the request.
func Persistence(err error) *ServiceError {
	return &ServiceError{
		Code:       CodePersistence,
		Message:    "directory write failed",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// Internal reports an unexpected failure.
func Internal(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// GetServiceError extracts a ServiceError from err, or nil if none.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return nil
}
