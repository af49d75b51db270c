package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	keys, err := LoadOrGenerateKey("")
	require.NoError(t, err)
	iss := NewIssuer("https://sso.acme.com", keys, time.Hour)

	signed, exp, err := iss.IssueAccess(BrandClaims{
		UserID:     "bu-1",
		CoreUserID: "cu-1",
		Email:      "ada@example.com",
		Role:       "member",
		BrandID:    "lit",
		BrandCode:  "LIT",
		ClientID:   "web",
		Scope:      "profile",
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := iss.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "bu-1", claims["sub"])
	assert.Equal(t, "cu-1", claims["cid"])
	assert.Equal(t, "web", claims["aud"])
	assert.Equal(t, "lit", claims["brand_id"])
	assert.Equal(t, "LIT", claims["brand_code"])
	assert.Equal(t, "https://sso.acme.com", claims["iss"])
}

func TestParseRejectsForeignKey(t *testing.T) {
	keysA, err := LoadOrGenerateKey("")
	require.NoError(t, err)
	keysB, err := LoadOrGenerateKey("")
	require.NoError(t, err)

	issA := NewIssuer("https://sso.acme.com", keysA, time.Hour)
	issB := NewIssuer("https://sso.acme.com", keysB, time.Hour)

	signed, _, err := issA.IssueAccess(BrandClaims{UserID: "bu-1", ClientID: "web"})
	require.NoError(t, err)

	_, err = issB.Parse(signed)
	assert.Error(t, err)
}

func TestStableKIDFromSeed(t *testing.T) {
	seed := "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=" // 32 zero bytes
	a, err := LoadOrGenerateKey(seed)
	require.NoError(t, err)
	b, err := LoadOrGenerateKey(seed)
	require.NoError(t, err)
	assert.Equal(t, a.KID, b.KID)

	_, err = LoadOrGenerateKey("dG9vc2hvcnQ=")
	assert.Error(t, err)
}
