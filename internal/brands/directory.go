// Package brands is the boundary to brand configuration. The rest of the
// platform owns brand CRUD; the SSO authority only needs a read view built
// once at startup: which brands exist, their origins, and the shared parent
// domain that scopes the session cookie.
package brands

import (
	"fmt"
	"net"
	"sort"
	"strings"
)

// Brand is one independently hosted product sharing the platform identity.
type Brand struct {
	ID      string   `yaml:"id"`
	Code    string   `yaml:"code"`
	Name    string   `yaml:"name"`
	Origins []string `yaml:"origins"` // e.g. https://play.acme.com
}

// Directory is an immutable snapshot of brand configuration. It replaces
// the lazily filled module-level brand cache of earlier iterations: the
// default brand id is explicit configuration, populated at startup.
type Directory struct {
	parentDomain   string
	defaultBrandID string
	byID           map[string]Brand
	byCode         map[string]Brand
	ordered        []Brand
}

// NewDirectory validates and indexes brand configuration.
func NewDirectory(parentDomain, defaultBrandID string, list []Brand) (*Directory, error) {
	parentDomain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(parentDomain)), ".")
	if parentDomain == "" {
		return nil, fmt.Errorf("brands: parent domain is required")
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("brands: at least one brand is required")
	}

	d := &Directory{
		parentDomain:   parentDomain,
		defaultBrandID: defaultBrandID,
		byID:           make(map[string]Brand, len(list)),
		byCode:         make(map[string]Brand, len(list)),
	}
	for _, b := range list {
		if b.ID == "" || b.Code == "" {
			return nil, fmt.Errorf("brands: brand %q/%q missing id or code", b.ID, b.Code)
		}
		if _, dup := d.byID[b.ID]; dup {
			return nil, fmt.Errorf("brands: duplicate brand id %q", b.ID)
		}
		d.byID[b.ID] = b
		d.byCode[strings.ToLower(b.Code)] = b
		d.ordered = append(d.ordered, b)
	}
	if defaultBrandID != "" {
		if _, ok := d.byID[defaultBrandID]; !ok {
			return nil, fmt.Errorf("brands: default brand id %q not configured", defaultBrandID)
		}
	} else {
		d.defaultBrandID = d.ordered[0].ID
	}
	return d, nil
}

func (d *Directory) ParentDomain() string { return d.parentDomain }

func (d *Directory) DefaultBrandID() string { return d.defaultBrandID }

func (d *Directory) ByID(id string) (Brand, bool) {
	b, ok := d.byID[id]
	return b, ok
}

func (d *Directory) ByCode(code string) (Brand, bool) {
	b, ok := d.byCode[strings.ToLower(code)]
	return b, ok
}

func (d *Directory) All() []Brand {
	out := make([]Brand, len(d.ordered))
	copy(out, d.ordered)
	return out
}

// DefaultClientRedirectURIs computes the redirect allow-list the default
// multi-brand web client should carry: a wildcard per brand origin. The
// client registry merges these additively on resolution, so a new brand
// domain needs no data migration.
func (d *Directory) DefaultClientRedirectURIs() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, b := range d.ordered {
		for _, o := range b.Origins {
			o = strings.TrimSuffix(strings.TrimSpace(o), "/")
			if o == "" {
				continue
			}
			uri := o + "/*"
			if _, ok := seen[uri]; ok {
				continue
			}
			seen[uri] = struct{}{}
			out = append(out, uri)
		}
	}
	sort.Strings(out)
	return out
}

// DefaultClientOrigins computes the allowed browser origins for the default
// web client.
func (d *Directory) DefaultClientOrigins() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, b := range d.ordered {
		for _, o := range b.Origins {
			o = strings.TrimSuffix(strings.TrimSpace(o), "/")
			if o == "" {
				continue
			}
			if _, ok := seen[o]; ok {
				continue
			}
			seen[o] = struct{}{}
			out = append(out, o)
		}
	}
	sort.Strings(out)
	return out
}

// WithinParentDomain reports whether a request host (with or without port)
// is the parent domain or one of its subdomains. Only such hosts may
// receive the wide Domain=.{parent} cookie attribute; setting it anywhere
// else makes the cookie unreadable for the brand that owns the request.
func (d *Directory) WithinParentDomain(host string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "" {
		return false
	}
	return host == d.parentDomain || strings.HasSuffix(host, "."+d.parentDomain)
}
