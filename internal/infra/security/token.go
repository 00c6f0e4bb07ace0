package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// TokenByteLength is the entropy of session and reset tokens. Tokens are the
// hex encoding of this many random bytes, so 40 characters on the wire.
const TokenByteLength = 20

// GenerateToken returns a hex-encoded random token of TokenByteLength bytes.
func GenerateToken() (string, error) {
	buf := make([]byte, TokenByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
