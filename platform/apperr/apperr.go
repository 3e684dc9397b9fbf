// Package apperr provides standardized domain error types for the application.
// Domain services return these typed errors, and the HTTP layer maps them
// to a status code plus the short machine-readable reason code clients key on.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindNotFound indicates a referenced record was not found.
	KindNotFound
	// KindValidation indicates invalid or missing input data.
	KindValidation
	// KindConflict indicates a conflict with existing state (e.g., already claimed).
	KindConflict
	// KindUnauthorized indicates a shared-secret or token check failed.
	KindUnauthorized
	// KindBadRequest indicates a malformed request or unsupported mode.
	KindBadRequest
	// KindUpstream indicates a third-party integration failed.
	KindUpstream
	// KindInternal indicates an unexpected internal error.
	KindInternal
)

// Reason codes returned to clients in the "error" field.
const (
	CodeMissingID             = "missing_id"
	CodeMissingName           = "missing_name"
	CodeMissingApplicant      = "missing_applicant"
	CodeMissingBookingID      = "missing_booking_id"
	CodeMissingFields         = "missing_fields"
	CodeInvalidBookingContext = "invalid_booking_context"
	CodeNotFound              = "not_found"
	CodeUnauthorized          = "unauthorized"
	CodeAlreadyClaimed        = "already_claimed"
	CodeUnsupportedMode       = "unsupported_mode"
	CodeInvalidRequest        = "invalid_request"
	CodeUpstreamFailed        = "upstream_failed"
	CodeInternal              = "internal_error"
)

// Error is a domain error with a typed Kind for HTTP mapping.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Op      string      // Operation that failed (optional)
	Err     error       // Underlying error (optional)
	Details interface{} // Additional details for response (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the appropriate HTTP status code for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindUpstream:
		return http.StatusBadGateway
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// New creates a new domain error with the given kind, reason code and message.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// WithOp returns the error with the operation set.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithDetails returns the error with additional details.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// NotFound creates a not_found error.
func NotFound(message string) *Error {
	return New(KindNotFound, CodeNotFound, message)
}

// Validation creates a validation error carrying the given reason code.
func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

// Conflict creates a conflict error.
func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, CodeUnauthorized, message)
}

// BadRequest creates a bad request error.
func BadRequest(code, message string) *Error {
	return New(KindBadRequest, code, message)
}

// Upstream wraps a failed third-party call.
func Upstream(message string, err error) *Error {
	return Wrap(KindUpstream, CodeUpstreamFailed, message, err)
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, CodeInternal, message, err)
}

// GetKind extracts the error kind from an error chain.
// Returns KindUnknown if no *Error is present.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// GetCode extracts the reason code from an error chain.
func GetCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is checks if err carries an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
