package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// TokenLength is the length of every hex token handed out by RandomHex(16).
const TokenLength = 32

// RandomHex returns n random bytes from the system CSPRNG, hex encoded.
func RandomHex(n int) string {
	b := make([]byte, n)
	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// NewToken returns a fresh 32-character session or state token.
func NewToken() string {
	return RandomHex(TokenLength / 2)
}
