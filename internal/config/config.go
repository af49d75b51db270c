// Package config loads the service configuration: YAML file first,
// environment overrides second. Every secret can come from the
// environment so the YAML file stays committable.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/velvetlabs/brandsso/internal/brands"
	"github.com/velvetlabs/brandsso/internal/http/server"
	"github.com/velvetlabs/brandsso/internal/store/pg"
)

type Config struct {
	Env     string        `yaml:"env"` // dev | prod
	Server  server.Config `yaml:"server"`
	Storage Storage       `yaml:"storage"`
	Cache   Cache         `yaml:"cache"`
	Brands  Brands        `yaml:"brands"`
	Auth    Auth          `yaml:"auth"`
	JWT     JWT           `yaml:"jwt"`
	Rate    Rate          `yaml:"rate"`
	Logging Logging       `yaml:"logging"`
}

type Storage struct {
	// Driver selects the store: "postgres" or "memory" (dev only).
	Driver   string    `yaml:"driver"`
	Postgres pg.Config `yaml:"postgres"`
	// Migrate applies pending migrations on startup.
	Migrate bool `yaml:"migrate"`
}

type Cache struct {
	Driver   string `yaml:"driver"` // memory | redis
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type Brands struct {
	ParentDomain   string         `yaml:"parent_domain"`
	DefaultBrandID string         `yaml:"default_brand_id"`
	List           []brands.Brand `yaml:"list"`
}

type Auth struct {
	SessionTTL time.Duration `yaml:"session_ttl"`
	CodeTTL    time.Duration `yaml:"code_ttl"`
	// SessionKey feeds the session lookup HMAC. Required in prod.
	SessionKey     string `yaml:"session_key"`
	DefaultRole    string `yaml:"default_role"`
	DefaultCredits int    `yaml:"default_credits"`
}

type JWT struct {
	Issuer    string        `yaml:"issuer"`
	SeedB64   string        `yaml:"seed_b64"`
	AccessTTL time.Duration `yaml:"access_ttl"`
}

type Rate struct {
	Enabled    bool          `yaml:"enabled"`
	AuthMax    int           `yaml:"auth_max"`
	AuthWindow time.Duration `yaml:"auth_window"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// Load reads the YAML file (optional) and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Env: "dev",
		Server: server.Config{
			Addr: ":8080",
		},
		Storage: Storage{
			Driver:  "postgres",
			Migrate: true,
		},
		Cache: Cache{
			Driver: "memory",
			Prefix: "brandsso",
		},
		Auth: Auth{
			SessionTTL:  168 * time.Hour,
			CodeTTL:     60 * time.Second,
			DefaultRole: "member",
		},
		JWT: JWT{
			Issuer:    "https://sso.local",
			AccessTTL: time.Hour,
		},
		Rate: Rate{
			Enabled:    true,
			AuthMax:    30,
			AuthWindow: time.Minute,
		},
		Logging: Logging{Level: "info"},
	}
}

func applyEnv(cfg *Config) {
	cfg.Env = envStr("APP_ENV", cfg.Env)
	cfg.Server.Addr = envStr("HTTP_ADDR", cfg.Server.Addr)
	cfg.Storage.Driver = envStr("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.Postgres.DSN = envStr("DATABASE_URL", cfg.Storage.Postgres.DSN)
	cfg.Storage.Migrate = envBool("STORAGE_MIGRATE", cfg.Storage.Migrate)
	cfg.Cache.Driver = envStr("CACHE_DRIVER", cfg.Cache.Driver)
	cfg.Cache.Addr = envStr("REDIS_ADDR", cfg.Cache.Addr)
	cfg.Cache.Password = envStr("REDIS_PASSWORD", cfg.Cache.Password)
	cfg.Cache.DB = envInt("REDIS_DB", cfg.Cache.DB)
	cfg.Brands.ParentDomain = envStr("BRANDS_PARENT_DOMAIN", cfg.Brands.ParentDomain)
	cfg.Brands.DefaultBrandID = envStr("BRANDS_DEFAULT_ID", cfg.Brands.DefaultBrandID)
	cfg.Auth.SessionKey = envStr("AUTH_SESSION_KEY", cfg.Auth.SessionKey)
	cfg.Auth.SessionTTL = envDur("AUTH_SESSION_TTL", cfg.Auth.SessionTTL)
	cfg.Auth.CodeTTL = envDur("AUTH_CODE_TTL", cfg.Auth.CodeTTL)
	cfg.JWT.Issuer = envStr("JWT_ISSUER", cfg.JWT.Issuer)
	cfg.JWT.SeedB64 = envStr("JWT_SEED", cfg.JWT.SeedB64)
	cfg.JWT.AccessTTL = envDur("JWT_ACCESS_TTL", cfg.JWT.AccessTTL)
	cfg.Rate.Enabled = envBool("RATE_ENABLED", cfg.Rate.Enabled)
	cfg.Rate.AuthMax = envInt("RATE_AUTH_MAX", cfg.Rate.AuthMax)
	cfg.Rate.AuthWindow = envDur("RATE_AUTH_WINDOW", cfg.Rate.AuthWindow)
	cfg.Logging.Level = envStr("LOG_LEVEL", cfg.Logging.Level)
}

func (c *Config) validate() error {
	if c.Brands.ParentDomain == "" {
		return fmt.Errorf("config: brands.parent_domain is required")
	}
	if len(c.Brands.List) == 0 {
		return fmt.Errorf("config: at least one brand is required")
	}
	if c.Storage.Driver == "postgres" && c.Storage.Postgres.DSN == "" {
		return fmt.Errorf("config: storage.postgres.dsn (or DATABASE_URL) is required")
	}
	if c.Env == "prod" {
		if c.Auth.SessionKey == "" {
			return fmt.Errorf("config: auth.session_key is required in prod")
		}
		if c.JWT.SeedB64 == "" {
			return fmt.Errorf("config: jwt.seed_b64 is required in prod")
		}
	}
	return nil
}

func envStr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func envInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
