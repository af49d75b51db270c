// Package repository defines the persistence records and interfaces for the
// SSO authority. Implementations live in internal/store.
package repository

import "time"

// CoreUser is the canonical cross-brand identity, keyed by email. Brand
// users are projections of it, never the other way around.
type CoreUser struct {
	ID           string
	Email        string
	Name         string
	PasswordHash *string // nil for passwordless / provider-linked accounts
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BrandUser is the per-brand projection of a CoreUser. Rows that predate the
// SSO rollout carry their own email and password hash and a nil CoreUserID
// until they are adopted by a core identity.
type BrandUser struct {
	ID                 string
	CoreUserID         *string
	BrandID            string
	Email              string
	Role               string
	Credits            int
	LegacyPasswordHash *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Client is a registered relying application.
type Client struct {
	ID             string // opaque slug, e.g. "web"
	BrandID        string
	RedirectURIs   []string
	AllowedOrigins []string
	RequirePKCE    bool
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Session is the platform-wide login credential. Only hashes of the opaque
// token are stored; LookupKey is a short indexed HMAC used to find hash
// candidates without weakening the token itself.
type Session struct {
	ID         string
	CoreUserID string
	TokenHash  string
	LookupKey  string
	ExpiresAt  time.Time
	LastUsedAt time.Time
	Revoked    bool
	CreatedAt  time.Time
}

// AuthCode binds one authorize attempt: client, brand, core user, PKCE
// challenge and redirect URI. State machine: issued → used, or issued →
// expired. Consumption flips Used atomically.
type AuthCode struct {
	ID              string
	CodeHash        string
	ClientID        string
	BrandID         string
	CoreUserID      string
	Challenge       string
	ChallengeMethod string
	RedirectURI     string
	Scope           string
	State           string
	Used            bool
	ExpiresAt       time.Time
	CreatedAt       time.Time
}
