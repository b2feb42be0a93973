package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "afridio/pkg/domain-errors"
)

func TestNewRejectsUnusableLengths(t *testing.T) {
	for _, length := range []int{0, 3, 11} {
		_, err := New(length)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}
}

func TestCodeIsFixedLengthNumeric(t *testing.T) {
	gen, err := New(6)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		code, err := gen.Code()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9', "code %q contains non-digit", code)
		}
	}
}

func TestSessionTokenIsOpaqueAndUnique(t *testing.T) {
	gen, err := New(6)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := gen.SessionToken()
		require.NoError(t, err)
		// 32 bytes base64url without padding.
		assert.Len(t, token, 43)
		assert.False(t, strings.ContainsAny(token, "+/="), "token must be URL-safe")
		assert.False(t, seen[token], "token collision")
		seen[token] = true
	}
}
