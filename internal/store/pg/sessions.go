package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velvetlabs/brandsso/internal/domain/repository"
)

type sessionRepo struct {
	pool *pgxpool.Pool
}

const sessionCols = `id, core_user_id, token_hash, lookup_key, expires_at, last_used_at, revoked, created_at`

func scanSession(row pgx.Row) (*repository.Session, error) {
	var s repository.Session
	err := row.Scan(&s.ID, &s.CoreUserID, &s.TokenHash, &s.LookupKey,
		&s.ExpiresAt, &s.LastUsedAt, &s.Revoked, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) Upsert(ctx context.Context, in repository.UpsertSessionInput) (*repository.Session, error) {
	// One session row per core user: a second login replaces the token,
	// invalidating the first one everywhere.
	row := r.pool.QueryRow(ctx, `
		INSERT INTO sso_session (id, core_user_id, token_hash, lookup_key, expires_at, last_used_at, revoked)
		VALUES ($1, $2, $3, $4, $5, now(), FALSE)
		ON CONFLICT (core_user_id) DO UPDATE SET
			token_hash   = EXCLUDED.token_hash,
			lookup_key   = EXCLUDED.lookup_key,
			expires_at   = EXCLUDED.expires_at,
			last_used_at = now(),
			revoked      = FALSE
		RETURNING `+sessionCols,
		uuid.NewString(), in.CoreUserID, in.TokenHash, in.LookupKey, in.ExpiresAt)

	s, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("pg: upsert session: %w", err)
	}
	return s, nil
}

func (r *sessionRepo) CandidatesByLookupKey(ctx context.Context, lookupKey string) ([]repository.Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionCols+` FROM sso_session
		WHERE lookup_key = $1 AND revoked = FALSE AND expires_at > now()`,
		lookupKey)
	if err != nil {
		return nil, fmt.Errorf("pg: session candidates: %w", err)
	}
	defer rows.Close()

	var out []repository.Session
	for rows.Next() {
		var s repository.Session
		if err := rows.Scan(&s.ID, &s.CoreUserID, &s.TokenHash, &s.LookupKey,
			&s.ExpiresAt, &s.LastUsedAt, &s.Revoked, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sessionRepo) Revoke(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sso_session SET revoked = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pg: revoke session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *sessionRepo) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sso_session SET last_used_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("pg: touch session: %w", err)
	}
	return nil
}
