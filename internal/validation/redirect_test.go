package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRedirectURI(t *testing.T) {
	assert.Equal(t, "https://play.acme.com/cb", NormalizeRedirectURI("https://play.acme.com/cb?state=x#frag"))
	assert.Equal(t, "https://play.acme.com/cb", NormalizeRedirectURI("HTTPS://Play.ACME.com/cb"))
	assert.Equal(t, "", NormalizeRedirectURI("not a uri"))
	assert.Equal(t, "", NormalizeRedirectURI("/relative/path"))
	assert.Equal(t, "", NormalizeRedirectURI(""))
}

func TestRedirectURIAllowedExact(t *testing.T) {
	allowed := []string{"https://play.acme.com/callback"}

	assert.True(t, RedirectURIAllowed("https://play.acme.com/callback", allowed))
	// Query strings are dropped before comparison.
	assert.True(t, RedirectURIAllowed("https://play.acme.com/callback?next=%2Fhome", allowed))
	assert.False(t, RedirectURIAllowed("https://evil.com/callback", allowed))
	assert.False(t, RedirectURIAllowed("https://play.acme.com/other", allowed))
	assert.False(t, RedirectURIAllowed("", allowed))
}

func TestRedirectURIAllowedLegacyRaw(t *testing.T) {
	// Legacy rows were stored verbatim with query strings.
	allowed := []string{"https://play.acme.com/cb?src=app"}
	assert.True(t, RedirectURIAllowed("https://play.acme.com/cb?src=app", allowed))
	assert.True(t, RedirectURIAllowed("https://play.acme.com/cb", allowed))
}

func TestRedirectURIAllowedWildcard(t *testing.T) {
	allowed := []string{"https://*.vercel.app/callback"}

	assert.True(t, RedirectURIAllowed("https://preview-42.vercel.app/callback", allowed))
	assert.False(t, RedirectURIAllowed("https://vercel.app.evil.com/callback", allowed))
	assert.False(t, RedirectURIAllowed("http://preview.vercel.app/callback", allowed))

	// '*' is the only live metacharacter; '.' must not match freely.
	assert.False(t, RedirectURIAllowed("https://preview-42.vercelXapp/callback", allowed))
}

func TestRedirectURIAllowedWildcardLeading(t *testing.T) {
	allowed := []string{"*://localhost:3000/cb"}
	assert.True(t, RedirectURIAllowed("http://localhost:3000/cb", allowed))
	assert.True(t, RedirectURIAllowed("https://localhost:3000/cb", allowed))
}

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"https://play.acme.com", "https://shop.acme.com/"}
	assert.True(t, OriginAllowed("https://play.acme.com", allowed))
	assert.True(t, OriginAllowed("https://shop.acme.com", allowed))
	assert.True(t, OriginAllowed("HTTPS://PLAY.acme.com", allowed))
	assert.False(t, OriginAllowed("https://evil.com", allowed))
	assert.False(t, OriginAllowed("", allowed))
}
