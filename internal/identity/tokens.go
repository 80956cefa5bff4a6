package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// confirmationTokenBytes is the entropy of a confirmation token.
const confirmationTokenBytes = 32

// NewConfirmationToken generates a single-use email confirmation token.
// It returns the url-safe encoded token for embedding in the
// confirmation link and the digest stored on the user row. Only the
// digest is persisted.
func NewConfirmationToken() (encoded, digest string, err error) {
	raw := make([]byte, confirmationTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate confirmation token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), digestToken(raw), nil
}

// VerifyConfirmationToken decodes an encoded token and compares it in
// constant time against the stored digest.
func VerifyConfirmationToken(encoded, storedDigest string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}
	digest := digestToken(raw)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(storedDigest)) == 1
}

func digestToken(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
