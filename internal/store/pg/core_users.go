package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velvetlabs/brandsso/internal/domain/repository"
)

type coreUserRepo struct {
	pool *pgxpool.Pool
}

const coreUserCols = `id, email, name, password_hash, created_at, updated_at`

func scanCoreUser(row pgx.Row) (*repository.CoreUser, error) {
	var u repository.CoreUser
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *coreUserRepo) GetByEmail(ctx context.Context, email string) (*repository.CoreUser, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+coreUserCols+` FROM core_user WHERE lower(email) = lower($1)`, email)
	return scanCoreUser(row)
}

func (r *coreUserRepo) GetByID(ctx context.Context, id string) (*repository.CoreUser, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+coreUserCols+` FROM core_user WHERE id = $1`, id)
	return scanCoreUser(row)
}

func (r *coreUserRepo) Create(ctx context.Context, in repository.CreateCoreUserInput) (*repository.CoreUser, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO core_user (id, email, name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING `+coreUserCols,
		uuid.NewString(), in.Email, in.Name, in.PasswordHash)

	u, err := scanCoreUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, repository.ErrConflict
		}
		return nil, fmt.Errorf("pg: create core user: %w", err)
	}
	return u, nil
}
