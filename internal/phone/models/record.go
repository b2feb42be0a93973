package models

import (
	"crypto/subtle"
	"time"

	id "afridio/pkg/domain"
)

// VerificationRecord is the single OTP challenge for one account, keyed by
// phone number.
//
// Invariants:
//   - At most one active (unexpired, unverified) code per phone at a time;
//     a new issuance replaces the previous code/token pair.
//   - Verified transitions false→true exactly once per issuance; after that
//     the code is consumed and a fresh issuance is required to verify again.
//   - SessionToken must match the token handed out at issuance before any
//     code comparison happens; a matching code under a stale token is
//     rejected.
//   - The record is created lazily on first issuance and never deleted, only
//     regenerated.
//
// Expiry and cooldown are not stored; they are computed lazily from
// IssuedAt/LastSentAt against the request clock, so no background sweep
// exists to race against.
type VerificationRecord struct {
	AccountID    id.AccountID   `json:"account_id"`
	Phone        id.PhoneNumber `json:"phone_number"`
	SecurityCode string         `json:"-"`
	SessionToken string         `json:"session_token"`
	Verified     bool           `json:"verified"`
	IssuedAt     time.Time      `json:"issued_at"`
	LastSentAt   time.Time      `json:"last_sent_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewRecord builds a fresh verification record for a new issuance.
func NewRecord(accountID id.AccountID, phone id.PhoneNumber, code, token string, now time.Time) *VerificationRecord {
	return &VerificationRecord{
		AccountID:    accountID,
		Phone:        phone,
		SecurityCode: code,
		SessionToken: token,
		Verified:     false,
		IssuedAt:     now,
		LastSentAt:   now,
		UpdatedAt:    now,
	}
}

// ExpiresAt derives the expiry instant from the issuance time.
func (r *VerificationRecord) ExpiresAt(ttl time.Duration) time.Time {
	return r.IssuedAt.Add(ttl)
}

// IsExpiredAt reports whether the code has passed its TTL at the given
// instant. Expiry is exclusive: a verify at exactly ExpiresAt still succeeds.
func (r *VerificationRecord) IsExpiredAt(now time.Time, ttl time.Duration) bool {
	return now.After(r.ExpiresAt(ttl))
}

// CooldownRemaining returns how long until another SMS may be sent. Zero
// means the cooldown has elapsed.
func (r *VerificationRecord) CooldownRemaining(now time.Time, cooldown time.Duration) time.Duration {
	remaining := r.LastSentAt.Add(cooldown).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TokenMatches compares the supplied session token against the stored one in
// constant time.
func (r *VerificationRecord) TokenMatches(token string) bool {
	return subtle.ConstantTimeCompare([]byte(r.SessionToken), []byte(token)) == 1
}

// CodeMatches compares the supplied security code against the stored one in
// constant time so attempt latency reveals nothing about prefix matches.
func (r *VerificationRecord) CodeMatches(code string) bool {
	return subtle.ConstantTimeCompare([]byte(r.SecurityCode), []byte(code)) == 1
}

// ApplyReissue rotates the code/token pair, resetting the record to a fresh
// unverified issuance.
func (r *VerificationRecord) ApplyReissue(code, token string, now time.Time) {
	r.SecurityCode = code
	r.SessionToken = token
	r.Verified = false
	r.IssuedAt = now
	r.LastSentAt = now
	r.UpdatedAt = now
}

// ApplyResend records a re-dispatch of the current code. The code and token
// are deliberately untouched so in-flight user input stays valid.
func (r *VerificationRecord) ApplyResend(now time.Time) {
	r.LastSentAt = now
	r.UpdatedAt = now
}

// ApplyVerified consumes the code. Callers must validate the transition
// first; this only mutates.
func (r *VerificationRecord) ApplyVerified(now time.Time) {
	r.Verified = true
	r.UpdatedAt = now
}

// Clone returns a deep copy so the memory store can hand out records without
// sharing mutable state with callers.
func (r *VerificationRecord) Clone() *VerificationRecord {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}
