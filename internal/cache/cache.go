// Package cache provides a small multi-backend cache used for client
// registry memoization and rate-limit windows.
//
// Backends:
//   - memory (in-process, dev/testing)
//   - redis (shared, production)
package cache

import (
	"context"
	"errors"
	"time"
)

// Client defines the cache operations.
type Client interface {
	// Get returns the value or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value. A zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Incr atomically increments a counter key, creating it with the given
	// ttl on first use. Returns the new value.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error

	Close() error
}

// ErrNotFound signals a missing key.
var ErrNotFound = errors.New("cache: key not found")

// Config selects and configures a backend.
type Config struct {
	Driver   string // "memory" | "redis"
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// New builds a cache client from config. Unknown drivers fall back to
// memory, matching dev defaults.
func New(cfg Config) (Client, error) {
	switch cfg.Driver {
	case "redis":
		return NewRedis(cfg)
	default:
		return NewMemory(cfg.Prefix), nil
	}
}
