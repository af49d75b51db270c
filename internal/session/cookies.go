package session

import (
	"net/http"
	"time"

	"github.com/velvetlabs/brandsso/internal/brands"
)

// CookieName is the SSO session cookie.
const CookieName = "sso_session"

// CookieWriter builds the session cookie with the correct scoping for the
// request host. The wide Domain=.{parent} attribute is only set when the
// request arrived on the parent domain or a subdomain of it; on any other
// host the attribute would orphan the cookie.
type CookieWriter struct {
	directory *brands.Directory
	ttl       time.Duration
}

func NewCookieWriter(directory *brands.Directory, ttl time.Duration) *CookieWriter {
	if ttl <= 0 {
		ttl = 168 * time.Hour
	}
	return &CookieWriter{directory: directory, ttl: ttl}
}

func (w *CookieWriter) domainFor(host string) string {
	if w.directory.WithinParentDomain(host) {
		return "." + w.directory.ParentDomain()
	}
	return ""
}

// secureFor is a per-request decision: the request either terminated TLS
// here or arrived through a TLS-terminating proxy that set the
// forwarded-proto header.
func secureFor(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}

// Session builds the Set-Cookie for a freshly issued token.
func (w *CookieWriter) Session(r *http.Request, token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Domain:   w.domainFor(r.Host),
		MaxAge:   int(w.ttl / time.Second),
		HttpOnly: true,
		Secure:   secureFor(r),
		SameSite: http.SameSiteNoneMode,
	}
}

// Deletion builds the expired twin of the session cookie. Attributes must
// match the issuing cookie or browsers keep the original.
func (w *CookieWriter) Deletion(r *http.Request) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   w.domainFor(r.Host),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secureFor(r),
		SameSite: http.SameSiteNoneMode,
	}
}

// FromRequest extracts the raw session token, empty when absent.
func FromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
