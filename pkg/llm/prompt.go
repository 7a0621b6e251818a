package llm

import (
	"crypto/sha256"
	"encoding/hex"
)

// DigestString returns the sha256 digest of s, short enough to log next to
// a prompt without dumping the full text.
func DigestString(s string) string {
	return computeDigest([]byte(s))
}

func computeDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
