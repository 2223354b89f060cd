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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  dsn: "file::memory:"
auth:
  jwt_secret: "s3cret"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Server.DueSoonDays)
	assert.Equal(t, time.UTC, cfg.Server.Location)
	assert.Equal(t, 60*time.Minute, cfg.Auth.TokenExpiry)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Len(t, cfg.Server.CORSOrigins, 3)
	assert.False(t, cfg.Push.Enabled())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: "host=db"
auth:
  jwt_secret: "from-file"
  token_expiry_minutes: 15
`)
	t.Setenv("ACM_JWT_SECRET", "from-env")
	t.Setenv("ACM_DATABASE_DRIVER", "sqlite")
	t.Setenv("ACM_TOKEN_EXPIRY_MINUTES", "480")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 8*time.Hour, cfg.Auth.TokenExpiry)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "missing secret", body: "database:\n  dsn: x\n"},
		{name: "missing dsn", body: "auth:\n  jwt_secret: x\n"},
		{name: "unknown driver", body: "database:\n  driver: mysql\n  dsn: x\nauth:\n  jwt_secret: x\n"},
		{name: "bad timezone", body: "server:\n  timezone: Nowhere/City\ndatabase:\n  dsn: x\nauth:\n  jwt_secret: x\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}
