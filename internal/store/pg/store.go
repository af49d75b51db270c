// Package pg implements the repositories on PostgreSQL via pgx.
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velvetlabs/brandsso/internal/domain/repository"
	"github.com/velvetlabs/brandsso/internal/observability/logger"
)

// Config holds the connection settings for the pool.
type Config struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
}

// Store is the pgx-backed repository.Store.
type Store struct {
	pool *pgxpool.Pool

	coreUsers  *coreUserRepo
	brandUsers *brandUserRepo
	clients    *clientRepo
	sessions   *sessionRepo
	authCodes  *authCodeRepo
}

var _ repository.Store = (*Store)(nil)

// New opens the pool and pings it once.
func New(ctx context.Context, cfg Config) (*Store, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}

	connectCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(connectCtx, pc)
	if err != nil {
		return nil, fmt.Errorf("pg: open pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}

	s := &Store{pool: pool}
	s.coreUsers = &coreUserRepo{pool: pool}
	s.brandUsers = &brandUserRepo{pool: pool}
	s.clients = &clientRepo{pool: pool}
	s.sessions = &sessionRepo{pool: pool}
	s.authCodes = &authCodeRepo{pool: pool}

	logger.L().Info("postgres pool ready",
		logger.Component("store"),
		logger.Int("max_conns", int(pc.MaxConns)))
	return s, nil
}

func (s *Store) CoreUsers() repository.CoreUsers   { return s.coreUsers }
func (s *Store) BrandUsers() repository.BrandUsers { return s.brandUsers }
func (s *Store) Clients() repository.Clients       { return s.clients }
func (s *Store) Sessions() repository.Sessions     { return s.sessions }
func (s *Store) AuthCodes() repository.AuthCodes   { return s.authCodes }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() { s.pool.Close() }

// Pool exposes the underlying pool for migrations.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }
