// Package resterrors defines the closed set of error codes the gateway
// returns to callers, and the translation of internal failures into a
// caller-facing envelope. Anything outside this set is reported as
// internal_error with no detail.
package resterrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned in the "error" field of the response envelope.
const (
	ErrorCodeInvalidGrantType = "invalid_grant_type"
	ErrorCodeMissingMandatory = "missing_mandatory_field"
	ErrorCodeInvalidPassword  = "invalid_password"
	ErrorCodeInternalError    = "internal_error"
)

// RestError is a failure that crosses the gateway boundary. Code and
// Message are rendered verbatim in the response envelope; Status is the
// HTTP status the gateway answers with.
type RestError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *RestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New creates a RestError answered at 400, the default for request
// validation and transcoding failures.
func New(code, message string) *RestError {
	return &RestError{Code: code, Message: message, Status: http.StatusBadRequest}
}

// WithStatus creates a RestError with an explicit HTTP status.
func WithStatus(code, message string, status int) *RestError {
	return &RestError{Code: code, Message: message, Status: status}
}

// Internal is the catch-all failure. The message is deliberately empty:
// diagnostic detail is logged, never returned.
func Internal() *RestError {
	return &RestError{Code: ErrorCodeInternalError, Status: http.StatusInternalServerError}
}

// DownstreamStatus maps a downstream error to the status the gateway
// answers with. Errors the IAM server flags as unauthorized or
// invalid-grant conditions are rendered as 401 regardless of the
// downstream status; everything else mirrors the downstream status.
func DownstreamStatus(code string, downstream int) int {
	switch code {
	case ErrorCodeInvalidGrantType, "invalid_grant", "unauthorized", "unauthorized_client":
		return http.StatusUnauthorized
	}
	return downstream
}

// Translate normalizes any failure into a RestError. Failures that are
// not already a RestError, including transport errors and unparsable
// downstream bodies, collapse to internal_error at 500.
func Translate(err error) *RestError {
	var restErr *RestError
	if errors.As(err, &restErr) {
		return restErr
	}
	return Internal()
}
