// Package httputil centralizes JSON response writing and domain-error
// translation so every handler returns the same error envelope.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	dErrors "afridio/pkg/domain-errors"
)

// statusByCode maps domain error codes to HTTP statuses. Codes missing from
// the map are treated as internal faults.
var statusByCode = map[dErrors.Code]int{
	dErrors.CodeBadRequest:         http.StatusBadRequest,
	dErrors.CodeInvalidInput:       http.StatusBadRequest,
	dErrors.CodeValidation:         http.StatusBadRequest,
	dErrors.CodeNotFound:           http.StatusNotFound,
	dErrors.CodeUnauthorized:       http.StatusUnauthorized,
	dErrors.CodeForbidden:          http.StatusForbidden,
	dErrors.CodeConflict:           http.StatusConflict,
	dErrors.CodeTimeout:            http.StatusGatewayTimeout,
	dErrors.CodeUnavailable:        http.StatusServiceUnavailable,
	dErrors.CodeInvariantViolation: http.StatusInternalServerError,
	dErrors.CodeInternal:           http.StatusInternalServerError,

	dErrors.CodeDispatchFailed:      http.StatusBadGateway,
	dErrors.CodeSessionMismatch:     http.StatusBadRequest,
	dErrors.CodeExpired:             http.StatusBadRequest,
	dErrors.CodeAlreadyVerified:     http.StatusConflict,
	dErrors.CodeInvalidCode:         http.StatusBadRequest,
	dErrors.CodeResendTooSoon:       http.StatusTooManyRequests,
	dErrors.CodeVerificationPending: http.StatusForbidden,
}

// ToHTTPStatus returns the HTTP status for a domain error code.
func ToHTTPStatus(code dErrors.Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type errorEnvelope struct {
	Error            string         `json:"error"`
	ErrorDescription string         `json:"error_description,omitempty"`
	Details          map[string]any `json:"details,omitempty"`
}

// WriteError translates err into the JSON error envelope. Internal errors
// omit the description so backend details never leak to clients. A
// retry_after detail additionally becomes a Retry-After header.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	status := ToHTTPStatus(code)

	envelope := errorEnvelope{Error: string(code)}
	if status < http.StatusInternalServerError {
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) {
			envelope.ErrorDescription = domainErr.Message
		}
		envelope.Details = dErrors.Details(err)
		if retryAfter, ok := envelope.Details["retry_after"].(int); ok {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope)
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
