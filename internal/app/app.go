// Package app wires configuration into a runnable service.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/velvetlabs/brandsso/internal/brands"
	"github.com/velvetlabs/brandsso/internal/cache"
	"github.com/velvetlabs/brandsso/internal/clients"
	"github.com/velvetlabs/brandsso/internal/config"
	"github.com/velvetlabs/brandsso/internal/domain/repository"
	ssocontroller "github.com/velvetlabs/brandsso/internal/http/controllers/sso"
	"github.com/velvetlabs/brandsso/internal/http/router"
	"github.com/velvetlabs/brandsso/internal/http/server"
	ssoservice "github.com/velvetlabs/brandsso/internal/http/services/sso"
	"github.com/velvetlabs/brandsso/internal/jwt"
	"github.com/velvetlabs/brandsso/internal/metrics"
	"github.com/velvetlabs/brandsso/internal/observability/logger"
	"github.com/velvetlabs/brandsso/internal/rate"
	"github.com/velvetlabs/brandsso/internal/session"
	"github.com/velvetlabs/brandsso/internal/store/memory"
	"github.com/velvetlabs/brandsso/internal/store/pg"
	migrations "github.com/velvetlabs/brandsso/migrations/postgres"
)

// App holds the wired components.
type App struct {
	cfg     *config.Config
	store   repository.Store
	cache   cache.Client
	handler http.Handler
}

// New builds the full dependency graph. Postgres migrations run here when
// enabled so a fresh deployment is one command.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	directory, err := brands.NewDirectory(cfg.Brands.ParentDomain, cfg.Brands.DefaultBrandID, cfg.Brands.List)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cacheClient, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Driver,
		Addr:     cfg.Cache.Addr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
		Prefix:   cfg.Cache.Prefix,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("app: cache: %w", err)
	}

	keys, err := jwt.LoadOrGenerateKey(cfg.JWT.SeedB64)
	if err != nil {
		store.Close()
		return nil, err
	}

	registry := clients.NewRegistry(store.Clients(), directory)
	sessions := session.NewManager(store.Sessions(), []byte(cfg.Auth.SessionKey), cfg.Auth.SessionTTL)
	issuer := jwt.NewIssuer(cfg.JWT.Issuer, keys, cfg.JWT.AccessTTL)

	svc := ssoservice.NewService(ssoservice.Config{
		CodeTTL:        cfg.Auth.CodeTTL,
		DefaultRole:    cfg.Auth.DefaultRole,
		DefaultCredits: cfg.Auth.DefaultCredits,
	}, store, registry, directory, sessions, issuer)

	cookies := session.NewCookieWriter(directory, cfg.Auth.SessionTTL)
	controller := ssocontroller.NewController(svc, cookies, cfg.JWT.Issuer)

	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		limiter = rate.NewFixedWindow(cacheClient, cfg.Cache.Prefix+":rl", cfg.Rate.AuthMax, cfg.Rate.AuthWindow)
	}

	if err := metrics.Register(nil); err != nil {
		store.Close()
		return nil, err
	}

	handler := router.New(router.Deps{
		SSO:            controller,
		AllowedOrigins: directory.DefaultClientOrigins(),
		AuthLimiter:    limiter,
		Health: func(w http.ResponseWriter, r *http.Request) {
			if err := store.Ping(r.Context()); err != nil {
				http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		},
	})

	return &App{cfg: cfg, store: store, cache: cacheClient, handler: handler}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Storage.Driver {
	case "memory":
		logger.L().Warn("using in-memory storage, data will not survive a restart",
			logger.Component("app"))
		return memory.New(), nil
	case "postgres", "":
		store, err := pg.New(ctx, cfg.Storage.Postgres)
		if err != nil {
			return nil, err
		}
		if cfg.Storage.Migrate {
			if err := pg.NewMigrator(store.Pool(), migrations.FS).Run(ctx); err != nil {
				store.Close()
				return nil, err
			}
		}
		return store, nil
	default:
		return nil, fmt.Errorf("app: unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Handler exposes the HTTP surface, mainly for tests.
func (a *App) Handler() http.Handler { return a.handler }

// Run serves HTTP until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()
	return server.Run(ctx, a.cfg.Server, a.handler)
}

// Close releases the store and cache.
func (a *App) Close() {
	a.store.Close()
	if err := a.cache.Close(); err != nil {
		logger.L().Warn("cache close failed", logger.Component("app"), logger.Err(err))
	}
}
