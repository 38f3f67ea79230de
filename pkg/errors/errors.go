// Package errors provides the unified error framework of the orchestrator.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable machine-readable error code.
type Code string

const (
	// Generic codes.
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeTimeout      Code = "TIMEOUT"

	// Orchestration input errors (4xx-equivalent semantics).
	CodeInvalidHorizon Code = "INVALID_HORIZON"
	CodeUnknownTeam    Code = "UNKNOWN_TEAM"
	CodeUnknownProduct Code = "UNKNOWN_PRODUCT"

	// Infrastructure errors.
	CodeTransientStorage    Code = "TRANSIENT_STORAGE"
	CodeConcurrencyConflict Code = "CONCURRENCY_CONFLICT"

	// CodeInternalInvariant marks a broken engine invariant. The run is
	// aborted without applying.
	CodeInternalInvariant Code = "INTERNAL_INVARIANT"
)

// AppError is the error type carried across layers.
type AppError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Cause      error                  `json:"-"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails attaches free-form detail text.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause attaches the underlying error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithField attaches a structured field.
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// New creates an AppError.
func New(code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap wraps an existing error with a code and message.
func Wrap(err error, code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeInvalidHorizon, CodeUnknownProduct:
		return http.StatusBadRequest
	case CodeNotFound, CodeUnknownTeam:
		return http.StatusNotFound
	case CodeConcurrencyConflict:
		return http.StatusConflict
	case CodeTransientStorage:
		return http.StatusServiceUnavailable
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the code from an error chain.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetHTTPStatus extracts the HTTP status for an error chain.
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// Retryable reports whether the caller should retry at the next tick.
func Retryable(err error) bool {
	return Is(err, CodeTransientStorage) || Is(err, CodeConcurrencyConflict)
}

// InvalidHorizon creates the error for a horizon whose end precedes its start.
func InvalidHorizon(start, end string) *AppError {
	return New(CodeInvalidHorizon, fmt.Sprintf("horizon end %s precedes start %s", end, start))
}

// UnknownTeam creates the error for a team id with no matching team.
func UnknownTeam(id string) *AppError {
	return New(CodeUnknownTeam, fmt.Sprintf("team %s does not exist", id))
}

// UnknownProduct creates the error for an unrecognized product code.
func UnknownProduct(code string) *AppError {
	return New(CodeUnknownProduct, fmt.Sprintf("unknown product code %q", code))
}

// TransientStorage wraps a storage error the caller may retry.
func TransientStorage(err error) *AppError {
	return Wrap(err, CodeTransientStorage, "storage temporarily unavailable")
}

// ConcurrencyConflict creates the busy result returned when another run
// holds the team scheduling lock.
func ConcurrencyConflict(teamID string) *AppError {
	return New(CodeConcurrencyConflict, fmt.Sprintf("team %s is being scheduled by another run", teamID))
}

// InternalInvariant creates the fatal error for a broken engine invariant.
func InternalInvariant(detail string) *AppError {
	return New(CodeInternalInvariant, "orchestrator invariant broken").WithDetails(detail)
}
