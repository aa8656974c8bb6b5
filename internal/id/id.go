package id

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

const maxLen = 64

// New returns a random 128-bit request identifier in hex.
func New() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "request-fallback-id"
	}
	return hex.EncodeToString(b[:])
}

// Accept returns candidate when it is a usable client supplied identifier
// and a fresh one otherwise. Usable means non-empty, at most 64 bytes, and
// limited to letters, digits, '-', '_' and '.'.
func Accept(candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || len(candidate) > maxLen {
		return New()
	}
	for _, r := range candidate {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return New()
		}
	}
	return candidate
}
