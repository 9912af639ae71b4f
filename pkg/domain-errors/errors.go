// Package derrors defines coded domain errors shared across services.
//
// Services wrap infrastructure failures and invariant breaches with a code so
// transports can map them to a response without inspecting error strings.
package derrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and alerting.
type Code string

const (
	// CodeInvalidInput marks input rejected at a trust boundary (parsing, IDs).
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks a structurally valid but unprocessable request.
	CodeBadRequest Code = "bad_request"
	// CodeValidation marks an internal consistency check failure. A computed
	// value outside its documented range is a defect, never a user error.
	CodeValidation Code = "validation_error"
	// CodeInsufficientData marks inputs too small or too degenerate for a
	// statistically meaningful answer.
	CodeInsufficientData Code = "insufficient_data"
	CodeNotFound         Code = "not_found"
	CodeConflict         Code = "conflict"
	CodeUnauthorized     Code = "unauthorized"
	CodeInternal         Code = "internal_error"
	// CodeInvariantViolation marks a broken state-machine or store invariant.
	CodeInvariantViolation Code = "invariant_violation"
)

// Error is a domain error with a machine-readable code and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
// Wrapping nil returns nil so call sites can pass through store results.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal
// for unclassified errors so nothing leaks as a 400.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
