// Package password wraps bcrypt hashing for core-identity credentials.
package password

import "golang.org/x/crypto/bcrypt"

// Cost mirrors bcrypt.DefaultCost; bumped independently of call sites.
const Cost = bcrypt.DefaultCost

// Hash returns the bcrypt hash of a plaintext password.
func Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Check reports whether the plaintext matches the stored hash.
func Check(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
