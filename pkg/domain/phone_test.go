package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "afridio/pkg/domain-errors"
)

func TestParsePhoneNumberSubtests(t *testing.T) {
	t.Run("accepts E.164", func(t *testing.T) {
		phone, err := ParsePhoneNumber("+251911000001")
		require.NoError(t, err)
		assert.Equal(t, PhoneNumber("+251911000001"), phone)
	})

	t.Run("strips spaces and dashes", func(t *testing.T) {
		phone, err := ParsePhoneNumber("  +251 911-000-001 ")
		require.NoError(t, err)
		assert.Equal(t, PhoneNumber("+251911000001"), phone)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		for _, raw := range []string{"", "251911000001", "+0251911000001", "+1", "+2519110000011234567", "+2519abc11"} {
			_, err := ParsePhoneNumber(raw)
			require.Error(t, err, "input %q", raw)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		}
	})
}

func TestPhoneNumberMaskedSubtests(t *testing.T) {
	phone := PhoneNumber("+251911000001")
	assert.Equal(t, "+2********001", phone.Masked())
	assert.NotContains(t, phone.Masked(), "911000")

	assert.Equal(t, "***", PhoneNumber("+123").Masked())
}
