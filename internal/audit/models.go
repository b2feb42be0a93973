package audit

import (
	"time"

	id "afridio/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
//
// Phone is always the masked form; raw phone numbers never enter the audit
// trail.
type Event struct {
	Timestamp time.Time    `json:"timestamp"`
	AccountID id.AccountID `json:"account_id,omitempty"`
	Phone     string       `json:"phone,omitempty"`
	Action    string       `json:"action"`
	Reason    string       `json:"reason,omitempty"`
	ClientIP  string       `json:"client_ip,omitempty"`
	UserAgent string       `json:"user_agent,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	// Account events
	EventAccountCreated AuditEvent = "account_created"
	EventLoginSucceeded AuditEvent = "login_succeeded"
	EventLoginFailed    AuditEvent = "login_failed"
	EventLoginBlocked   AuditEvent = "login_blocked"

	// Phone verification events
	EventCodeIssued         AuditEvent = "code_issued"
	EventCodeResent         AuditEvent = "code_resent"
	EventCodeVerified       AuditEvent = "code_verified"
	EventVerificationFailed AuditEvent = "verification_failed"
)
