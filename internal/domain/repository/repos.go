package repository

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by lookups when no row matches. "Absent" and
// "storage failure" are distinct outcomes by contract, never a panic.
var ErrNotFound = errors.New("repository: not found")

// ErrConflict is returned when an insert collides with a uniqueness
// constraint (e.g. a second core identity for the same email).
var ErrConflict = errors.New("repository: conflict")

// CreateCoreUserInput creates a canonical identity. PasswordHash may be nil.
type CreateCoreUserInput struct {
	Email        string
	Name         string
	PasswordHash *string
}

// BrandUserDefaults seeds a lazily provisioned brand user.
type BrandUserDefaults struct {
	Email   string
	Role    string
	Credits int
}

// UpsertSessionInput replaces the active session of a core user. The upsert
// is keyed by CoreUserID: a second login supersedes the first token.
type UpsertSessionInput struct {
	CoreUserID string
	TokenHash  string
	LookupKey  string
	ExpiresAt  time.Time
}

// CreateAuthCodeInput records one issued authorization code.
type CreateAuthCodeInput struct {
	CodeHash        string
	ClientID        string
	BrandID         string
	CoreUserID      string
	Challenge       string
	ChallengeMethod string
	RedirectURI     string
	Scope           string
	State           string
	ExpiresAt       time.Time
}

type CoreUsers interface {
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*CoreUser, error)
	GetByID(ctx context.Context, id string) (*CoreUser, error)
	Create(ctx context.Context, in CreateCoreUserInput) (*CoreUser, error)
}

type BrandUsers interface {
	GetByID(ctx context.Context, id string) (*BrandUser, error)
	Get(ctx context.Context, coreUserID, brandID string) (*BrandUser, error)
	// FindOrCreate provisions the (coreUserID, brandID) projection. It must
	// tolerate concurrent first-time calls: insert ON CONFLICT DO NOTHING,
	// then re-read.
	FindOrCreate(ctx context.Context, coreUserID, brandID string, defaults BrandUserDefaults) (*BrandUser, error)
	// GetLegacyByEmail finds a pre-SSO row (nil CoreUserID) by email, oldest
	// first, so its password hash can seed a new core identity.
	GetLegacyByEmail(ctx context.Context, email string) (*BrandUser, error)
	// Adopt links a legacy row to a core identity.
	Adopt(ctx context.Context, brandUserID, coreUserID string) error
}

type Clients interface {
	Get(ctx context.Context, id string) (*Client, error)
	// Upsert inserts or fully replaces a client registration.
	Upsert(ctx context.Context, c *Client) error
}

type Sessions interface {
	// Upsert keeps at most one active session row per core user.
	Upsert(ctx context.Context, in UpsertSessionInput) (*Session, error)
	// CandidatesByLookupKey returns non-revoked, non-expired sessions whose
	// lookup key matches; the caller confirms with the full hash.
	CandidatesByLookupKey(ctx context.Context, lookupKey string) ([]Session, error)
	Revoke(ctx context.Context, id string) error
	Touch(ctx context.Context, id string, at time.Time) error
}

type AuthCodes interface {
	Create(ctx context.Context, in CreateAuthCodeInput) (*AuthCode, error)
	// Consume marks the code used and returns it in one atomic operation.
	// A code that is missing, expired, or already used yields ErrNotFound;
	// two concurrent calls can never both succeed.
	Consume(ctx context.Context, codeHash string, now time.Time) (*AuthCode, error)
}

// Store aggregates the repositories over one backing connection pool.
type Store interface {
	CoreUsers() CoreUsers
	BrandUsers() BrandUsers
	Clients() Clients
	Sessions() Sessions
	AuthCodes() AuthCodes
	Ping(ctx context.Context) error
	Close()
}
