package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velvetlabs/brandsso/internal/domain/repository"
)

type brandUserRepo struct {
	pool *pgxpool.Pool
}

const brandUserCols = `id, core_user_id, brand_id, email, role, credits, legacy_password_hash, created_at, updated_at`

func scanBrandUser(row pgx.Row) (*repository.BrandUser, error) {
	var u repository.BrandUser
	err := row.Scan(&u.ID, &u.CoreUserID, &u.BrandID, &u.Email, &u.Role,
		&u.Credits, &u.LegacyPasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *brandUserRepo) GetByID(ctx context.Context, id string) (*repository.BrandUser, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+brandUserCols+` FROM brand_user WHERE id = $1`, id)
	return scanBrandUser(row)
}

func (r *brandUserRepo) Get(ctx context.Context, coreUserID, brandID string) (*repository.BrandUser, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+brandUserCols+` FROM brand_user
		 WHERE core_user_id = $1 AND brand_id = $2`, coreUserID, brandID)
	return scanBrandUser(row)
}

func (r *brandUserRepo) FindOrCreate(ctx context.Context, coreUserID, brandID string, defaults repository.BrandUserDefaults) (*repository.BrandUser, error) {
	// Concurrent first-time calls race on the partial unique index; the
	// loser's insert is a no-op and the re-read below returns the winner.
	_, err := r.pool.Exec(ctx, `
		INSERT INTO brand_user (id, core_user_id, brand_id, email, role, credits)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (core_user_id, brand_id) WHERE core_user_id IS NOT NULL DO NOTHING`,
		uuid.NewString(), coreUserID, brandID, defaults.Email, defaults.Role, defaults.Credits)
	if err != nil {
		return nil, fmt.Errorf("pg: provision brand user: %w", err)
	}
	return r.Get(ctx, coreUserID, brandID)
}

func (r *brandUserRepo) GetLegacyByEmail(ctx context.Context, email string) (*repository.BrandUser, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+brandUserCols+` FROM brand_user
		 WHERE core_user_id IS NULL AND lower(email) = lower($1)
		 ORDER BY created_at ASC
		 LIMIT 1`, email)
	return scanBrandUser(row)
}

func (r *brandUserRepo) Adopt(ctx context.Context, brandUserID, coreUserID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE brand_user
		SET core_user_id = $2, updated_at = now()
		WHERE id = $1 AND core_user_id IS NULL`, brandUserID, coreUserID)
	if err != nil {
		return fmt.Errorf("pg: adopt brand user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
