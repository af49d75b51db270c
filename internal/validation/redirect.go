// Package validation contains request-level validators shared by the SSO
// endpoints. The redirect validator is the open-redirect gate: a URI that
// fails here must never be redirected to.
package validation

import (
	"net/url"
	"regexp"
	"strings"
)

// NormalizeRedirectURI reduces a URI to origin + path, dropping query and
// fragment. Browsers re-encode query strings inconsistently across vendors;
// comparing origin+path absorbs that. Returns "" for unparseable input.
func NormalizeRedirectURI(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + u.Path
}

// RedirectURIAllowed matches a requested redirect URI against a client's
// allow-list. Each entry is one of:
//   - an exact URI (normalized comparison, plus a raw comparison for legacy
//     entries stored with query strings),
//   - a pattern containing '*', compiled to a regexp where '*' is the only
//     live metacharacter.
func RedirectURIAllowed(requested string, allowed []string) bool {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return false
	}
	norm := NormalizeRedirectURI(requested)

	for _, entry := range allowed {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		// Legacy entries were stored verbatim, query string included.
		if entry == requested {
			return true
		}

		if strings.Contains(entry, "*") {
			re, err := compileWildcard(entry)
			if err != nil {
				continue
			}
			if re.MatchString(requested) || (norm != "" && re.MatchString(norm)) {
				return true
			}
			continue
		}

		if norm != "" && NormalizeRedirectURI(entry) == norm {
			return true
		}
	}
	return false
}

// compileWildcard escapes every regexp metacharacter except '*', which maps
// to '.*', and anchors the pattern.
func compileWildcard(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i, part := range strings.Split(pattern, "*") {
		if i > 0 {
			b.WriteString(".*")
		}
		b.WriteString(regexp.QuoteMeta(part))
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// OriginAllowed reports whether a browser Origin header is on the client's
// allowed-origins list (exact, case-insensitive).
func OriginAllowed(origin string, allowed []string) bool {
	origin = strings.TrimSpace(strings.TrimSuffix(origin, "/"))
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimSuffix(strings.TrimSpace(a), "/"), origin) {
			return true
		}
	}
	return false
}
