package testutil

import (
	"net/http"

	id "afridio/pkg/domain"
	"afridio/pkg/requestcontext"
)

// WithAccountID adds an account ID to the request context, simulating what
// the auth middleware does for authenticated requests. Invalid IDs are
// silently ignored.
func WithAccountID(req *http.Request, accountID string) *http.Request {
	parsed, err := id.ParseAccountID(accountID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithAccountID(req.Context(), parsed))
}

// WithAuth adds both account ID and session ID to the request context, the
// typical state for an authenticated request. Invalid IDs are silently
// ignored.
func WithAuth(req *http.Request, accountID, sessionID string) *http.Request {
	ctx := req.Context()
	if parsed, err := id.ParseAccountID(accountID); err == nil {
		ctx = requestcontext.WithAccountID(ctx, parsed)
	}
	if parsed, err := id.ParseSessionID(sessionID); err == nil {
		ctx = requestcontext.WithSessionID(ctx, parsed)
	}
	return req.WithContext(ctx)
}
