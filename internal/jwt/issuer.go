// Package jwt mints the brand-scoped access tokens returned by the token
// endpoint. Tokens are EdDSA-signed JWTs; brands verify them against the
// issuer's public key.
package jwt

import (
	"crypto/ed25519"
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// BrandClaims are the brand-scoped claims embedded in an access token.
type BrandClaims struct {
	UserID     string // brand user id → "sub"
	CoreUserID string // canonical identity → "cid"
	Email      string
	Role       string
	BrandID    string
	BrandCode  string
	ClientID   string // → "aud"
	Scope      string
}

// Issuer signs access tokens with a fixed lifetime.
type Issuer struct {
	Iss       string
	Keys      *Keypair
	AccessTTL time.Duration
}

func NewIssuer(iss string, keys *Keypair, accessTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &Issuer{Iss: iss, Keys: keys, AccessTTL: accessTTL}
}

// IssueAccess signs a brand-scoped access token and returns it with its
// expiry instant.
func (i *Issuer) IssueAccess(c BrandClaims) (string, time.Time, error) {
	if i.Keys == nil {
		return "", time.Time{}, errors.New("jwt: no signing key")
	}
	now := time.Now().UTC()
	exp := now.Add(i.AccessTTL)

	claims := jwtv5.MapClaims{
		"iss":        i.Iss,
		"sub":        c.UserID,
		"aud":        c.ClientID,
		"iat":        now.Unix(),
		"nbf":        now.Unix(),
		"exp":        exp.Unix(),
		"cid":        c.CoreUserID,
		"email":      c.Email,
		"role":       c.Role,
		"brand_id":   c.BrandID,
		"brand_code": c.BrandCode,
		"scope":      c.Scope,
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = i.Keys.KID
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.Keys.Priv)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Keyfunc returns a jwt.Keyfunc for verifying tokens this issuer signed.
func (i *Issuer) Keyfunc() jwtv5.Keyfunc {
	return func(t *jwtv5.Token) (any, error) {
		if i.Keys == nil {
			return nil, errors.New("jwt: no signing key")
		}
		return ed25519.PublicKey(i.Keys.Pub), nil
	}
}

// Parse verifies a token signed by this issuer and returns its claims.
func (i *Issuer) Parse(raw string) (jwtv5.MapClaims, error) {
	tk, err := jwtv5.Parse(raw, i.Keyfunc(),
		jwtv5.WithValidMethods([]string{"EdDSA"}),
		jwtv5.WithIssuer(i.Iss))
	if err != nil {
		return nil, err
	}
	claims, ok := tk.Claims.(jwtv5.MapClaims)
	if !ok || !tk.Valid {
		return nil, errors.New("jwt: invalid token")
	}
	return claims, nil
}
