package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
debug: true
app_secret: secret
db:
  dsn: postgres://localhost/yamdb
limiter:
  enabled: true
  rps: 2
cors:
  allowed_origins: ["http://localhost:3000"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "secret", cfg.AppSecret)
	assert.Equal(t, "postgres://localhost/yamdb", cfg.DB.Dsn)
	assert.Equal(t, 2.0, cfg.Limiter.Rps)
	assert.Equal(t, 5, cfg.Limiter.Burst)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.Tokens.AccessTTL)
	assert.Equal(t, "localhost:8000", cfg.Server.Addr())
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "app_secret: secret\ndb:\n  dsn: postgres://localhost/yamdb\n")
	t.Setenv("DB_DSN", "postgres://db/override")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://db/override", cfg.DB.Dsn)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
	assert.Panics(t, func() { MustLoad("") })
}
