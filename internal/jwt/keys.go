package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Keypair is the signing key for access tokens. The kid is derived from the
// public key so restarts with the same seed keep a stable header.
type Keypair struct {
	KID  string
	Priv ed25519.PrivateKey
	Pub  ed25519.PublicKey
}

// LoadOrGenerateKey builds the keypair from a base64 32-byte seed, or
// generates an ephemeral one when the seed is empty (dev only: tokens do not
// survive a restart).
func LoadOrGenerateKey(seedB64 string) (*Keypair, error) {
	if seedB64 == "" {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		return &Keypair{KID: kidFor(pub), Priv: priv, Pub: pub}, nil
	}

	seed, err := base64.StdEncoding.DecodeString(seedB64)
	if err != nil {
		return nil, fmt.Errorf("jwt: decode signing seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("jwt: signing seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &Keypair{KID: kidFor(pub), Priv: priv, Pub: pub}, nil
}

func kidFor(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return base64.RawURLEncoding.EncodeToString(sum[:8])
}
