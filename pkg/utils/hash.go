package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashText returns a hex SHA-256 digest, used for cache keys over query text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
