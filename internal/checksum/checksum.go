// Package checksum fingerprints inbox files.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// shortLen is the prefix length used for batch ids.
const shortLen = 16

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Short returns a truncated digest, stable for identical content.
func Short(data []byte) string {
	return Sum(data)[:shortLen]
}
