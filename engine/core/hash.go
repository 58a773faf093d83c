package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the hex encoded SHA-256 digest of text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
