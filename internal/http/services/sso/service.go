// Package sso implements the authorization flows behind the HTTP
// controllers: credential login, signup, session-based authorize, code
// issuance and token exchange.
package sso

import (
	"time"

	"github.com/velvetlabs/brandsso/internal/brands"
	"github.com/velvetlabs/brandsso/internal/clients"
	"github.com/velvetlabs/brandsso/internal/domain/repository"
	"github.com/velvetlabs/brandsso/internal/jwt"
	"github.com/velvetlabs/brandsso/internal/session"
)

// Config tunes the flow parameters.
type Config struct {
	// CodeTTL bounds the authorize→token round trip. Sixty seconds covers a
	// browser redirect with margin; anything longer widens the replay window.
	CodeTTL time.Duration

	// Defaults for lazily provisioned brand users.
	DefaultRole    string
	DefaultCredits int
}

func (c *Config) normalize() {
	if c.CodeTTL <= 0 {
		c.CodeTTL = 60 * time.Second
	}
	if c.DefaultRole == "" {
		c.DefaultRole = "member"
	}
}

// Service wires the flows to storage, the client registry, the session
// manager and the token issuer.
type Service struct {
	cfg       Config
	store     repository.Store
	registry  *clients.Registry
	directory *brands.Directory
	sessions  *session.Manager
	issuer    *jwt.Issuer
}

func NewService(cfg Config, store repository.Store, registry *clients.Registry,
	directory *brands.Directory, sessions *session.Manager, issuer *jwt.Issuer) *Service {
	cfg.normalize()
	return &Service{
		cfg:       cfg,
		store:     store,
		registry:  registry,
		directory: directory,
		sessions:  sessions,
		issuer:    issuer,
	}
}

// Sessions exposes the session manager for controllers that only need
// cookie validation.
func (s *Service) Sessions() *session.Manager { return s.sessions }
