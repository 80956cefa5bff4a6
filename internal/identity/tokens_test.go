package identity

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfirmationToken(t *testing.T) {
	encoded, digest, err := NewConfirmationToken()
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	require.NoError(t, err, "token must be url-safe base64")
	assert.Len(t, raw, confirmationTokenBytes)
	assert.Len(t, digest, 64) // hex sha256

	assert.True(t, VerifyConfirmationToken(encoded, digest))
}

func TestNewConfirmationToken_Unique(t *testing.T) {
	a, _, err := NewConfirmationToken()
	require.NoError(t, err)
	b, _, err := NewConfirmationToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestVerifyConfirmationToken(t *testing.T) {
	encoded, digest, err := NewConfirmationToken()
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		digest  string
		expected bool
	}{
		{"valid", encoded, digest, true},
		{"wrong digest", encoded, "deadbeef", false},
		{"not base64url", "%%%", digest, false},
		{"different token", "QUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBQUE", digest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, VerifyConfirmationToken(tt.token, tt.digest))
		})
	}
}
