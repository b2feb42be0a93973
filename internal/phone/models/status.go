package models

import "time"

// CodeStatus classifies a verification record relative to one caller-supplied
// session token. Resend and the login gate branch on it; each status demands
// a different action, not just an error/non-error split.
type CodeStatus string

const (
	// StatusNoRecord means no issuance exists yet for the phone number.
	StatusNoRecord CodeStatus = "no_record"
	// StatusTokenMismatch means the caller's session token does not belong
	// to the current issuance.
	StatusTokenMismatch CodeStatus = "token_mismatch"
	// StatusVerified means the current code was already consumed.
	StatusVerified CodeStatus = "verified"
	// StatusExpired means the code passed its TTL without being verified.
	StatusExpired CodeStatus = "expired"
	// StatusCooldownActive means the code is live but another SMS may not be
	// sent yet.
	StatusCooldownActive CodeStatus = "cooldown_active"
	// StatusResendReady means the code is live and the cooldown has elapsed,
	// so the same code may be re-dispatched.
	StatusResendReady CodeStatus = "resend_ready"
)

// Classify maps the record to a CodeStatus for the given token and clock.
// Verified wins over expired: a consumed code must surface as already
// verified, never trigger a silent reissue.
func (r *VerificationRecord) Classify(now time.Time, sessionToken string, ttl, cooldown time.Duration) CodeStatus {
	if r == nil {
		return StatusNoRecord
	}
	if !r.TokenMatches(sessionToken) {
		return StatusTokenMismatch
	}
	if r.Verified {
		return StatusVerified
	}
	if r.IsExpiredAt(now, ttl) {
		return StatusExpired
	}
	if r.CooldownRemaining(now, cooldown) > 0 {
		return StatusCooldownActive
	}
	return StatusResendReady
}
