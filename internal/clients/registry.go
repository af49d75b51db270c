// Package clients resolves OAuth client registrations. The default web
// client used by all first-party brand frontends is self-healing: resolution
// repairs a missing or stale registration from the brand directory instead
// of failing the login flow.
package clients

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/velvetlabs/brandsso/internal/brands"
	"github.com/velvetlabs/brandsso/internal/domain/repository"
	"github.com/velvetlabs/brandsso/internal/observability/logger"
)

// DefaultClientID is the shared first-party client every brand frontend uses.
const DefaultClientID = "web"

const cacheTTL = 30 * time.Second

// ErrUnknownClient is returned for client ids that are not registered.
var ErrUnknownClient = errors.New("clients: unknown client")

// Registry resolves clients with a short memoization window so the hot
// authorize path does not hit storage on every request.
type Registry struct {
	repo      repository.Clients
	directory *brands.Directory
	cache     *gocache.Cache

	healMu sync.Mutex
}

func NewRegistry(repo repository.Clients, directory *brands.Directory) *Registry {
	return &Registry{
		repo:      repo,
		directory: directory,
		cache:     gocache.New(cacheTTL, 2*cacheTTL),
	}
}

// Resolve returns an active client registration. For the default client it
// ensures the registration exists and carries a redirect wildcard for every
// configured brand origin; repairs are additive and idempotent, so
// operator-added redirect URIs survive.
func (r *Registry) Resolve(ctx context.Context, clientID string) (*repository.Client, error) {
	if cached, ok := r.cache.Get(clientID); ok {
		return cached.(*repository.Client), nil
	}

	c, err := r.repo.Get(ctx, clientID)
	switch {
	case err == nil:
		if clientID == DefaultClientID {
			c, err = r.healDefault(ctx, c)
			if err != nil {
				return nil, err
			}
		}
	case errors.Is(err, repository.ErrNotFound):
		if clientID != DefaultClientID {
			return nil, ErrUnknownClient
		}
		c, err = r.healDefault(ctx, nil)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("clients: load %s: %w", clientID, err)
	}

	if !c.Active {
		return nil, ErrUnknownClient
	}
	r.cache.Set(clientID, c, cacheTTL)
	return c, nil
}

// Invalidate drops a client from the memoization cache.
func (r *Registry) Invalidate(clientID string) { r.cache.Delete(clientID) }

func (r *Registry) healDefault(ctx context.Context, existing *repository.Client) (*repository.Client, error) {
	r.healMu.Lock()
	defer r.healMu.Unlock()

	wantURIs := r.directory.DefaultClientRedirectURIs()
	wantOrigins := r.directory.DefaultClientOrigins()

	if existing == nil {
		c := &repository.Client{
			ID:             DefaultClientID,
			BrandID:        r.directory.DefaultBrandID(),
			RedirectURIs:   wantURIs,
			AllowedOrigins: wantOrigins,
			RequirePKCE:    true,
			Active:         true,
		}
		if err := r.repo.Upsert(ctx, c); err != nil {
			return nil, fmt.Errorf("clients: register default client: %w", err)
		}
		logger.L().Info("default client registered",
			logger.Component("clients"),
			logger.ClientID(DefaultClientID),
			logger.Int("redirect_uris", len(wantURIs)))
		return c, nil
	}

	merged := *existing
	added := mergeMissing(&merged.RedirectURIs, wantURIs) + mergeMissing(&merged.AllowedOrigins, wantOrigins)
	if !merged.Active {
		merged.Active = true
		added++
	}
	if added == 0 {
		return existing, nil
	}
	if err := r.repo.Upsert(ctx, &merged); err != nil {
		return nil, fmt.Errorf("clients: heal default client: %w", err)
	}
	logger.L().Info("default client healed",
		logger.Component("clients"),
		logger.ClientID(DefaultClientID),
		logger.Int("entries_added", added))
	return &merged, nil
}

func mergeMissing(dst *[]string, want []string) int {
	have := make(map[string]struct{}, len(*dst))
	for _, v := range *dst {
		have[v] = struct{}{}
	}
	added := 0
	for _, v := range want {
		if _, ok := have[v]; ok {
			continue
		}
		*dst = append(*dst, v)
		added++
	}
	return added
}
