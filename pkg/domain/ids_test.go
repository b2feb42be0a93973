package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "afridio/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// IDs must be valid, non-empty, non-nil UUIDs.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAccountID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseAccountID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseAccountID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseAccountID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, AccountID(validUUID), id)
	})
}

// TestTypeDistinction verifies the compiler enforces type safety.
// If this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	accountID := AccountID(uuid.New())
	sessionID := SessionID(uuid.New())

	// These would fail to compile if the types were interchangeable:
	// var _ AccountID = sessionID   // compile error
	// var _ SessionID = accountID   // compile error

	assert.NotEqual(t, uuid.UUID(accountID), uuid.UUID(sessionID))
}

func TestIsNil(t *testing.T) {
	assert.True(t, AccountID{}.IsNil())
	assert.False(t, NewAccountID().IsNil())
}

func TestParsePhoneNumber(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    PhoneNumber
		wantErr bool
	}{
		{name: "valid E.164", in: "+251911000001", want: "+251911000001"},
		{name: "strips spaces and dashes", in: "+251 911-000-001", want: "+251911000001"},
		{name: "rejects empty", in: "", wantErr: true},
		{name: "rejects missing plus", in: "251911000001", wantErr: true},
		{name: "rejects leading zero", in: "+0251911000001", wantErr: true},
		{name: "rejects letters", in: "+2519abc00001", wantErr: true},
		{name: "rejects too long", in: "+1234567890123456", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePhoneNumber(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPhoneNumberMasked(t *testing.T) {
	assert.Equal(t, "+2********001", PhoneNumber("+251911000001").Masked())
	assert.Equal(t, "***", PhoneNumber("+12").Masked())
}
