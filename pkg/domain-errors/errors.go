// Package domainerrors defines the code-carrying error type used across
// service boundaries. Stores return sentinel errors (pkg/platform/sentinel);
// services translate them into domain errors with a machine-readable code so
// the transport layer can map them to HTTP statuses without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a domain error category. Codes are part of the API contract:
// clients branch on them to decide whether to re-prompt, back off, or bail.
type Code string

const (
	CodeInternal           Code = "internal_error"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_failed"
	CodeNotFound           Code = "not_found"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeTimeout            Code = "timeout"
	CodeUnavailable        Code = "unavailable"

	// Phone verification outcomes. These are expected, user-facing results of
	// the verification state machine, not faults.
	CodeDispatchFailed      Code = "dispatch_failed"
	CodeSessionMismatch     Code = "session_mismatch"
	CodeExpired             Code = "code_expired"
	CodeAlreadyVerified     Code = "already_verified"
	CodeInvalidCode         Code = "code_mismatch"
	CodeResendTooSoon       Code = "resend_too_soon"
	CodeVerificationPending Code = "verification_pending"
)

// Error is a domain error with a stable code, a human-readable message and
// optional structured details surfaced to clients (cooldown timers, resume
// tokens). It wraps an underlying cause for errors.Is/As chains.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. The cause remains
// reachable through errors.Unwrap.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// WithDetail returns the error with an extra key/value detail attached.
// Details are serialized into the HTTP error envelope for non-internal codes.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// GetCode extracts the code from err, walking the wrap chain. Errors without
// a domain code report CodeInternal.
func GetCode(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability:
// dErrors.Is(err, dErrors.CodeNotFound).
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// Details extracts the structured details from err, or nil.
func Details(err error) map[string]any {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}
