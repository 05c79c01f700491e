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

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/mamastoria?sslmode=disable
jwt:
  secret: test-secret
email:
  provider: smtp
  smtp_host: localhost
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Verification.CodeTTL)
	assert.Equal(t, time.Minute, cfg.Verification.ResendCooldown)
	assert.Equal(t, 10*time.Second, cfg.Email.SendTimeout)
	assert.Equal(t, 20, cfg.Pagination.DefaultPerPage)
	assert.Equal(t, 100, cfg.Pagination.MaxPerPage)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
}

func TestLoadParsesDurations(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/db
jwt:
  secret: s
  access_ttl: 2h
email:
  provider: smtp
  smtp_host: localhost
  send_timeout: 3s
verification:
  code_ttl: 5m
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.JWT.AccessTTL)
	assert.Equal(t, 3*time.Second, cfg.Email.SendTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Verification.CodeTTL)
}

func TestEnvOverridesSecrets(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://from-file
email:
  provider: resend
`)
	t.Setenv("DATABASE_URL", "postgres://from-env")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("RESEND_API_KEY", "re_env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://from-env", cfg.Database.DSN)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "re_env", cfg.Email.ResendAPIKey)
}

func TestLoadRejectsMissingSecrets(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/db
email:
  provider: resend
`)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("RESEND_API_KEY", "")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
	assert.Contains(t, err.Error(), "resend_api_key")
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/db
jwt:
  secret: s
email:
  provider: pigeon
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
