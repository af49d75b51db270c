package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
env: dev
server:
  addr: ":9090"
storage:
  driver: memory
brands:
  parent_domain: acme.com
  default_brand_id: lit
  list:
    - id: lit
      code: LIT
      name: Lit
      origins: ["https://lit.acme.com"]
    - id: play
      code: PLAY
      name: Play
      origins: ["https://play.acme.com"]
auth:
  session_ttl: 168h
  code_ttl: 60s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "acme.com", cfg.Brands.ParentDomain)
	assert.Equal(t, "lit", cfg.Brands.DefaultBrandID)
	assert.Len(t, cfg.Brands.List, 2)
	assert.Equal(t, 168*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 60*time.Second, cfg.Auth.CodeTTL)
	// Untouched keys keep their defaults.
	assert.Equal(t, time.Hour, cfg.JWT.AccessTTL)
	assert.True(t, cfg.Rate.Enabled)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":7070")
	t.Setenv("AUTH_CODE_TTL", "30s")
	t.Setenv("CACHE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load(writeConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Auth.CodeTTL)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "redis:6379", cfg.Cache.Addr)
}

func TestValidation(t *testing.T) {
	_, err := Load(writeConfig(t, "env: dev\n"))
	assert.Error(t, err, "missing parent domain must fail")

	_, err = Load(writeConfig(t, `
brands:
  parent_domain: acme.com
  list:
    - id: lit
      code: LIT
storage:
  driver: postgres
`))
	assert.Error(t, err, "postgres without dsn must fail")

	prod := testYAML + "\n"
	path := writeConfig(t, prod)
	t.Setenv("APP_ENV", "prod")
	_, err = Load(path)
	assert.Error(t, err, "prod without session key must fail")
}
