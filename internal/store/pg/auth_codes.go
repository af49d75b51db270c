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

type authCodeRepo struct {
	pool *pgxpool.Pool
}

const authCodeCols = `id, code_hash, client_id, brand_id, core_user_id, challenge,
	challenge_method, redirect_uri, scope, state, used, expires_at, created_at`

func scanAuthCode(row pgx.Row) (*repository.AuthCode, error) {
	var c repository.AuthCode
	err := row.Scan(&c.ID, &c.CodeHash, &c.ClientID, &c.BrandID, &c.CoreUserID,
		&c.Challenge, &c.ChallengeMethod, &c.RedirectURI, &c.Scope, &c.State,
		&c.Used, &c.ExpiresAt, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *authCodeRepo) Create(ctx context.Context, in repository.CreateAuthCodeInput) (*repository.AuthCode, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO auth_code (id, code_hash, client_id, brand_id, core_user_id,
			challenge, challenge_method, redirect_uri, scope, state, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+authCodeCols,
		uuid.NewString(), in.CodeHash, in.ClientID, in.BrandID, in.CoreUserID,
		in.Challenge, in.ChallengeMethod, in.RedirectURI, in.Scope, in.State, in.ExpiresAt)

	c, err := scanAuthCode(row)
	if err != nil {
		return nil, fmt.Errorf("pg: create auth code: %w", err)
	}
	return c, nil
}

func (r *authCodeRepo) Consume(ctx context.Context, codeHash string, now time.Time) (*repository.AuthCode, error) {
	// Conditional update: of two concurrent exchanges only one matches
	// used = FALSE, the other sees zero rows.
	row := r.pool.QueryRow(ctx, `
		UPDATE auth_code
		SET used = TRUE
		WHERE code_hash = $1 AND used = FALSE AND expires_at > $2
		RETURNING `+authCodeCols,
		codeHash, now)
	return scanAuthCode(row)
}
