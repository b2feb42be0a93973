package domain

import (
	"regexp"
	"strings"

	dErrors "afridio/pkg/domain-errors"
)

// PhoneNumber is an E.164-formatted phone number ("+251911000001").
// It is validated once at the trust boundary and treated as opaque after that.
type PhoneNumber string

// e164Pattern accepts a leading + followed by 2 to 15 digits, first digit
// nonzero. Matches the 17-char column limit of the verification record.
var e164Pattern = regexp.MustCompile(`^\+[1-9][0-9]{1,14}$`)

// ParsePhoneNumber validates s as an E.164 phone number. Spaces and dashes
// are stripped before validation so "+251 911-000-001" is accepted.
func ParsePhoneNumber(s string) (PhoneNumber, error) {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "phone number is required")
	}
	if !e164Pattern.MatchString(cleaned) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "phone number must be in E.164 format")
	}
	return PhoneNumber(cleaned), nil
}

func (p PhoneNumber) String() string { return string(p) }

// Masked returns the number with all but the last three digits redacted,
// for logs and audit events.
func (p PhoneNumber) Masked() string {
	s := string(p)
	if len(s) <= 4 {
		return "***"
	}
	return s[:2] + strings.Repeat("*", len(s)-5) + s[len(s)-3:]
}
