package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies an AppError for callers and for HTTP mapping.
type ErrorKind string

const (
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindValidation          ErrorKind = "VALIDATION_ERROR"
	KindInvalidState        ErrorKind = "INVALID_STATE"
	KindConcurrencyConflict ErrorKind = "CONCURRENCY_CONFLICT"
	KindTransientSignal     ErrorKind = "TRANSIENT_SIGNAL_FAILURE"
	KindInternal            ErrorKind = "INTERNAL_ERROR"
)

// AppError is the error type returned by the engine's services.
type AppError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to an HTTP status code.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindInvalidState, KindConcurrencyConflict:
		return http.StatusConflict
	case KindTransientSignal:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewNotFoundError reports an unknown subject.
func NewNotFoundError(message string, err error) *AppError {
	return &AppError{Kind: KindNotFound, Message: message, Err: err}
}

// NewValidationError reports malformed input.
func NewValidationError(message string, err error) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Err: err}
}

// NewInvalidStateError reports an operation attempted against a terminal or
// otherwise incompatible entity state.
func NewInvalidStateError(message string) *AppError {
	return &AppError{Kind: KindInvalidState, Message: message}
}

// NewConcurrencyConflictError reports a lost race on a serialized operation.
func NewConcurrencyConflictError(message string) *AppError {
	return &AppError{Kind: KindConcurrencyConflict, Message: message}
}

// NewTransientSignalError reports a signal-store fetch that failed after the
// bounded retries were exhausted. Callers must not substitute partial data.
func NewTransientSignalError(message string, err error) *AppError {
	return &AppError{Kind: KindTransientSignal, Message: message, Err: err}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(message string) *AppError {
	return &AppError{Kind: KindInternal, Message: message}
}

// AsAppError unwraps err into an *AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Kind == kind
}
