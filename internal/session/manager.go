// Package session manages the platform-wide SSO session: an opaque bearer
// token carried in a cookie, stored server-side only as hashes.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/velvetlabs/brandsso/internal/domain/repository"
	"github.com/velvetlabs/brandsso/internal/observability/logger"
	"github.com/velvetlabs/brandsso/internal/security/tokens"
)

const tokenBytes = 32

// ErrNoSession is returned when a presented token matches no live session.
var ErrNoSession = errors.New("session: no active session")

// Manager issues, validates and revokes sessions. The lookup key is an
// HMAC of the token under lookupSecret, truncated for indexing; the full
// SHA-256 hash is the authoritative comparison.
type Manager struct {
	repo         repository.Sessions
	lookupSecret []byte
	ttl          time.Duration
}

func NewManager(repo repository.Sessions, lookupSecret []byte, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 168 * time.Hour
	}
	return &Manager{repo: repo, lookupSecret: lookupSecret, ttl: ttl}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue mints a fresh opaque token for the core user and upserts the single
// session row. A previous session of the same user is superseded: its token
// stops validating everywhere at once.
func (m *Manager) Issue(ctx context.Context, coreUserID string) (string, *repository.Session, error) {
	raw, err := tokens.GenerateOpaque(tokenBytes)
	if err != nil {
		return "", nil, fmt.Errorf("session: generate token: %w", err)
	}
	s, err := m.repo.Upsert(ctx, repository.UpsertSessionInput{
		CoreUserID: coreUserID,
		TokenHash:  tokens.SHA256Base64URL(raw),
		LookupKey:  tokens.LookupKey(m.lookupSecret, raw),
		ExpiresAt:  time.Now().UTC().Add(m.ttl),
	})
	if err != nil {
		return "", nil, fmt.Errorf("session: upsert: %w", err)
	}
	logger.From(ctx).Debug("session issued",
		logger.Component("session"),
		logger.CoreUserID(coreUserID))
	return raw, s, nil
}

// Validate resolves a presented token to its session. Candidates come from
// the indexed lookup key; the full hash comparison is constant time.
func (m *Manager) Validate(ctx context.Context, raw string) (*repository.Session, error) {
	if raw == "" {
		return nil, ErrNoSession
	}
	candidates, err := m.repo.CandidatesByLookupKey(ctx, tokens.LookupKey(m.lookupSecret, raw))
	if err != nil {
		return nil, fmt.Errorf("session: candidates: %w", err)
	}
	want := tokens.SHA256Base64URL(raw)
	for i := range candidates {
		if tokens.ConstantTimeEquals(candidates[i].TokenHash, want) {
			s := candidates[i]
			if err := m.repo.Touch(ctx, s.ID, time.Now().UTC()); err != nil {
				logger.From(ctx).Warn("session touch failed",
					logger.Component("session"), logger.Err(err))
			}
			return &s, nil
		}
	}
	return nil, ErrNoSession
}

// Revoke ends the session behind a presented token. An already invalid
// token is a successful logout.
func (m *Manager) Revoke(ctx context.Context, raw string) error {
	s, err := m.Validate(ctx, raw)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := m.repo.Revoke(ctx, s.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("session: revoke: %w", err)
	}
	return nil
}
