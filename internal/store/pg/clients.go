package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velvetlabs/brandsso/internal/domain/repository"
)

type clientRepo struct {
	pool *pgxpool.Pool
}

const clientCols = `id, brand_id, redirect_uris, allowed_origins, require_pkce, active, created_at, updated_at`

func scanClient(row pgx.Row) (*repository.Client, error) {
	var c repository.Client
	err := row.Scan(&c.ID, &c.BrandID, &c.RedirectURIs, &c.AllowedOrigins,
		&c.RequirePKCE, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clientRepo) Get(ctx context.Context, id string) (*repository.Client, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+clientCols+` FROM oauth_client WHERE id = $1`, id)
	return scanClient(row)
}

func (r *clientRepo) Upsert(ctx context.Context, c *repository.Client) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO oauth_client (id, brand_id, redirect_uris, allowed_origins, require_pkce, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			brand_id        = EXCLUDED.brand_id,
			redirect_uris   = EXCLUDED.redirect_uris,
			allowed_origins = EXCLUDED.allowed_origins,
			require_pkce    = EXCLUDED.require_pkce,
			active          = EXCLUDED.active,
			updated_at      = now()`,
		c.ID, c.BrandID, c.RedirectURIs, c.AllowedOrigins, c.RequirePKCE, c.Active)
	if err != nil {
		return fmt.Errorf("pg: upsert client %s: %w", c.ID, err)
	}
	return nil
}
