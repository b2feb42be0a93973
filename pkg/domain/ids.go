// Package domain holds the shared identity types used across services.
// Typed UUIDs prevent cross-type assignment at compile time: an AccountID can
// never be passed where a SessionID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "afridio/pkg/domain-errors"
)

// AccountID identifies a registered account.
type AccountID uuid.UUID

// SessionID identifies an authenticated session.
type SessionID uuid.UUID

// NewAccountID returns a fresh random account ID.
func NewAccountID() AccountID {
	return AccountID(uuid.New())
}

// NewSessionID returns a fresh random session ID.
func NewSessionID() SessionID {
	return SessionID(uuid.New())
}

// ParseAccountID parses and validates an account ID at a trust boundary.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseAccountID(s string) (AccountID, error) {
	parsed, err := parseUUID(s, "account id")
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(parsed), nil
}

// ParseSessionID parses and validates a session ID at a trust boundary.
func ParseSessionID(s string) (SessionID, error) {
	parsed, err := parseUUID(s, "session id")
	if err != nil {
		return SessionID{}, err
	}
	return SessionID(parsed), nil
}

func (id AccountID) String() string { return uuid.UUID(id).String() }
func (id SessionID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero UUID.
func (id AccountID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// IsNil reports whether the ID is the zero UUID.
func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", what)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s", what)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be the nil uuid", what)
	}
	return parsed, nil
}
