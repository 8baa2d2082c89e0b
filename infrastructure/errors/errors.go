// Package errors provides unified error handling for the engine.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code.
type ErrorCode string

const (
	// Argument/property validation errors (1xxx)
	ErrCodeInvalidArgument    ErrorCode = "ARG_1001"
	ErrCodeInvalidEnum        ErrorCode = "ARG_1002"
	ErrCodeInvalidType        ErrorCode = "ARG_1003"
	ErrCodeOutOfRange         ErrorCode = "ARG_1004"
	ErrCodeUnhandledProperty  ErrorCode = "ARG_1005"
	ErrCodeReadOnly           ErrorCode = "ARG_1006"

	// Job/future lifecycle errors (2xxx)
	ErrCodeNotLoaded  ErrorCode = "JOB_2001"
	ErrCodePending    ErrorCode = "JOB_2002"
	ErrCodeCancelled  ErrorCode = "JOB_2003"
	ErrCodeTimeout    ErrorCode = "JOB_2004"

	// Storage/query errors (3xxx)
	ErrCodeUnknown       ErrorCode = "STORE_3001"
	ErrCodeMemoryAlloc   ErrorCode = "STORE_3002"
	ErrCodeNotSupported  ErrorCode = "STORE_3003"
)

// ServiceError represents a structured error with code, message, and status.
type ServiceError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// WithDetails adds additional details to the error.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new ServiceError.
func New(code ErrorCode, message string, httpStatus int) *ServiceError {
	return &ServiceError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an existing error with a ServiceError.
func Wrap(code ErrorCode, message string, httpStatus int, err error) *ServiceError {
	return &ServiceError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// Argument/property constructors. These mirror the Result kinds the
// property ABI returns one-to-one.

func InvalidArgument(reason string) *ServiceError {
	return New(ErrCodeInvalidArgument, "invalid argument", http.StatusBadRequest).
		WithDetails("reason", reason)
}

func InvalidEnum(prop string) *ServiceError {
	return New(ErrCodeInvalidEnum, "property enum not in handle kind's range", http.StatusBadRequest).
		WithDetails("property", prop)
}

func InvalidType(prop string, want, got string) *ServiceError {
	return New(ErrCodeInvalidType, "value tag mismatch", http.StatusBadRequest).
		WithDetails("property", prop).WithDetails("want", want).WithDetails("got", got)
}

func OutOfRange(prop string, index, count int) *ServiceError {
	return New(ErrCodeOutOfRange, "index out of range", http.StatusBadRequest).
		WithDetails("property", prop).WithDetails("index", index).WithDetails("count", count)
}

func UnhandledProperty(kind string, prop string) *ServiceError {
	return New(ErrCodeUnhandledProperty, "property not defined for handle kind", http.StatusBadRequest).
		WithDetails("kind", kind).WithDetails("property", prop)
}

func ReadOnly(prop string) *ServiceError {
	return New(ErrCodeReadOnly, "property is computed and cannot be set", http.StatusBadRequest).
		WithDetails("property", prop)
}

// Job/future constructors.

func NotLoaded(what string) *ServiceError {
	return New(ErrCodeNotLoaded, "not yet loaded", http.StatusServiceUnavailable).
		WithDetails("what", what)
}

func Pending() *ServiceError {
	return New(ErrCodePending, "operation still pending", http.StatusAccepted)
}

func Cancelled() *ServiceError {
	return New(ErrCodeCancelled, "operation was cancelled", http.StatusRequestTimeout)
}

func Timeout(operation string) *ServiceError {
	return New(ErrCodeTimeout, "operation timed out", http.StatusGatewayTimeout).
		WithDetails("operation", operation)
}

// Storage/query constructors.

func Unknown(operation string, err error) *ServiceError {
	return Wrap(ErrCodeUnknown, "storage operation failed", http.StatusInternalServerError, err).
		WithDetails("operation", operation)
}

func MemoryAllocError(bytes int64) *ServiceError {
	return New(ErrCodeMemoryAlloc, "allocation failed", http.StatusInsufficientStorage).
		WithDetails("bytes", bytes)
}

func NotSupported(reason string) *ServiceError {
	return New(ErrCodeNotSupported, "operation not supported", http.StatusNotImplemented).
		WithDetails("reason", reason)
}

// Helper functions.

// IsServiceError checks if an error is a ServiceError.
func IsServiceError(err error) bool {
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr)
}

// GetServiceError extracts a ServiceError from an error chain.
func GetServiceError(err error) *ServiceError {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}
	return nil
}

// GetHTTPStatus returns the HTTP status code for an error.
func GetHTTPStatus(err error) int {
	if serviceErr := GetServiceError(err); serviceErr != nil {
		return serviceErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// CodeOf returns the ErrorCode of err, or "" if err is not a ServiceError.
func CodeOf(err error) ErrorCode {
	if serviceErr := GetServiceError(err); serviceErr != nil {
		return serviceErr.Code
	}
	return ""
}
