// Package ids generates the short suffixes used to name scratch files.
package ids

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// DefaultLength is the suffix length used for scratch file names.
const DefaultLength = 10

// Generate creates a deterministic, lowercase base32 ID derived from input.
func Generate(input string, length int) string {
	hash := sha256.Sum256([]byte(input))
	encoded := base32.StdEncoding.EncodeToString(hash[:])
	if length <= 0 {
		return ""
	}
	if length > len(encoded) {
		length = len(encoded)
	}
	return strings.ToLower(encoded[:length])
}

// GenerateWithTimestamp appends a timestamp to input before hashing.
func GenerateWithTimestamp(input string, timestamp time.Time, length int) string {
	return Generate(input+timestamp.Format(time.RFC3339Nano), length)
}

// Scratch returns a fresh ID for a scratch file owned by process pid.
// A random nonce is mixed in so two calls within one clock tick differ.
func Scratch(pid int, now time.Time) string {
	nonce := make([]byte, 8)
	_, _ = rand.Read(nonce)
	return GenerateWithTimestamp(strconv.Itoa(pid)+"/"+hex.EncodeToString(nonce), now, DefaultLength)
}
