package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "afridio/pkg/domain"
)

const (
	testTTL      = time.Hour
	testCooldown = 5 * time.Minute
)

func newTestRecord(now time.Time) *VerificationRecord {
	return NewRecord(id.NewAccountID(), "+251911000001", "123456", "token-1", now)
}

func TestExpiryIsExclusive(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := newTestRecord(issued)

	assert.False(t, r.IsExpiredAt(issued.Add(testTTL), testTTL), "exactly at expiry is still valid")
	assert.True(t, r.IsExpiredAt(issued.Add(testTTL+time.Second), testTTL))
}

func TestCooldownRemaining(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := newTestRecord(issued)

	assert.Equal(t, 200*time.Second, r.CooldownRemaining(issued.Add(100*time.Second), testCooldown))
	assert.Equal(t, time.Duration(0), r.CooldownRemaining(issued.Add(testCooldown), testCooldown))
	assert.Equal(t, time.Duration(0), r.CooldownRemaining(issued.Add(time.Hour), testCooldown))
}

func TestClassify(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		record func() *VerificationRecord
		token  string
		now    time.Time
		want   CodeStatus
	}{
		{
			name:   "nil record",
			record: func() *VerificationRecord { return nil },
			token:  "token-1",
			now:    issued,
			want:   StatusNoRecord,
		},
		{
			name:   "token mismatch",
			record: func() *VerificationRecord { return newTestRecord(issued) },
			token:  "other-token",
			now:    issued,
			want:   StatusTokenMismatch,
		},
		{
			name: "verified wins over expired",
			record: func() *VerificationRecord {
				r := newTestRecord(issued)
				r.ApplyVerified(issued.Add(time.Minute))
				return r
			},
			token: "token-1",
			now:   issued.Add(2 * testTTL),
			want:  StatusVerified,
		},
		{
			name:   "expired",
			record: func() *VerificationRecord { return newTestRecord(issued) },
			token:  "token-1",
			now:    issued.Add(testTTL + time.Second),
			want:   StatusExpired,
		},
		{
			name:   "cooldown active",
			record: func() *VerificationRecord { return newTestRecord(issued) },
			token:  "token-1",
			now:    issued.Add(100 * time.Second),
			want:   StatusCooldownActive,
		},
		{
			name:   "resend ready",
			record: func() *VerificationRecord { return newTestRecord(issued) },
			token:  "token-1",
			now:    issued.Add(testCooldown + time.Second),
			want:   StatusResendReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.record().Classify(tt.now, tt.token, testTTL, testCooldown)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyReissueRotatesCodeAndToken(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := newTestRecord(issued)
	r.ApplyVerified(issued.Add(time.Minute))

	later := issued.Add(time.Hour)
	r.ApplyReissue("654321", "token-2", later)

	assert.False(t, r.Verified, "reissue resets the verified flag")
	assert.True(t, r.CodeMatches("654321"))
	assert.False(t, r.CodeMatches("123456"))
	assert.True(t, r.TokenMatches("token-2"))
	assert.Equal(t, later, r.IssuedAt)
	assert.Equal(t, later, r.LastSentAt)
}

func TestApplyResendKeepsCodeAndToken(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := newTestRecord(issued)

	later := issued.Add(6 * time.Minute)
	r.ApplyResend(later)

	assert.True(t, r.CodeMatches("123456"))
	assert.True(t, r.TokenMatches("token-1"))
	assert.Equal(t, issued, r.IssuedAt, "resend must not extend the TTL")
	assert.Equal(t, later, r.LastSentAt)
}

func TestCloneIsIndependent(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := newTestRecord(issued)

	clone := r.Clone()
	clone.ApplyVerified(issued.Add(time.Minute))

	assert.False(t, r.Verified)
	assert.True(t, clone.Verified)
}
