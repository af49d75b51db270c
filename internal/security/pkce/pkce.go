// Package pkce implements the Proof Key for Code Exchange S256 transform
// (RFC 7636): challenge = BASE64URL(SHA256(verifier)).
package pkce

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// MethodS256 is the only challenge method this server accepts.
const MethodS256 = "S256"

// Challenge derives the S256 code challenge from a verifier.
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Verify reports whether the verifier hashes to the stored challenge.
// Plain string equality is fine here: the challenge is not a secret, the
// verifier is, and the comparison input is the attacker-supplied side.
func Verify(verifier, storedChallenge string) bool {
	if verifier == "" || storedChallenge == "" {
		return false
	}
	return Challenge(verifier) == storedChallenge
}

// SupportedMethod reports whether the requested challenge method is usable.
// Matching is case-insensitive to tolerate lowercase "s256" senders.
func SupportedMethod(method string) bool {
	return strings.EqualFold(method, MethodS256)
}
