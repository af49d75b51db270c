package session

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetlabs/brandsso/internal/brands"
)

func testWriter(t *testing.T) *CookieWriter {
	t.Helper()
	d, err := brands.NewDirectory("acme.com", "", []brands.Brand{
		{ID: "lit", Code: "LIT", Origins: []string{"https://lit.acme.com"}},
	})
	require.NoError(t, err)
	return NewCookieWriter(d, 168*time.Hour)
}

func request(host string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/sso/login", nil)
	r.Host = host
	return r
}

func TestSessionCookieOnParentDomain(t *testing.T) {
	w := testWriter(t)

	r := request("sso.acme.com")
	r.Header.Set("X-Forwarded-Proto", "https")
	c := w.Session(r, "tok123")
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "tok123", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, ".acme.com", c.Domain)
	assert.Equal(t, 604800, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteNoneMode, c.SameSite)
}

func TestSessionCookieSecurePerRequest(t *testing.T) {
	w := testWriter(t)

	// Plain HTTP, no proxy header.
	c := w.Session(request("sso.acme.com"), "tok123")
	assert.False(t, c.Secure)

	// TLS terminated on this server.
	r := request("sso.acme.com")
	r.TLS = &tls.ConnectionState{}
	c = w.Session(r, "tok123")
	assert.True(t, c.Secure)

	// TLS terminated upstream.
	r = request("sso.acme.com")
	r.Header.Set("X-Forwarded-Proto", "https")
	c = w.Session(r, "tok123")
	assert.True(t, c.Secure)
}

func TestSessionCookieOnForeignHostOmitsDomain(t *testing.T) {
	w := testWriter(t)

	c := w.Session(request("sso.other.net"), "tok123")
	assert.Empty(t, c.Domain)
}

func TestDeletionCookieMatchesAttributes(t *testing.T) {
	w := testWriter(t)

	r := request("acme.com:443")
	r.Header.Set("X-Forwarded-Proto", "https")
	c := w.Deletion(r)
	assert.Equal(t, CookieName, c.Name)
	assert.Empty(t, c.Value)
	assert.Equal(t, ".acme.com", c.Domain)
	assert.Equal(t, -1, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteNoneMode, c.SameSite)
}
