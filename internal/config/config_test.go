package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func requiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("INKDRIFT_JWT__SECRET_KEY", "test-secret")
	t.Setenv("INKDRIFT_ADMIN__PASSWORD_HASH", "$2a$10$hash")
}

func TestLoad_Defaults(t *testing.T) {
	requiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.MetricsPort)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TokenDuration)
	assert.Equal(t, "", cfg.Newsletter.Provider)
	assert.Equal(t, 10*time.Second, cfg.Newsletter.SendTimeout)
	assert.Equal(t, 587, cfg.Newsletter.SMTP.Port)
	assert.True(t, cfg.Database.Migrate)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	requiredEnv(t)

	path := writeConfigFile(t, `
server:
  port: "3000"
log:
  level: debug
newsletter:
  provider: smtp
  site_title: Harbor Notes
  smtp:
    host: smtp.example.com
    from_address: news@example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "smtp", cfg.Newsletter.Provider)
	assert.Equal(t, "Harbor Notes", cfg.Newsletter.SiteTitle)
	assert.Equal(t, "smtp.example.com", cfg.Newsletter.SMTP.Host)

	// Untouched keys keep their defaults.
	assert.Equal(t, "9090", cfg.Server.MetricsPort)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	requiredEnv(t)
	t.Setenv("INKDRIFT_SERVER__PORT", "9999")

	path := writeConfigFile(t, `
server:
  port: "3000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Server.Port)
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	requiredEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("INKDRIFT_ADMIN__PASSWORD_HASH", "$2a$10$hash")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret_key")
}

func TestLoad_RequiresAdminPasswordHash(t *testing.T) {
	t.Setenv("INKDRIFT_JWT__SECRET_KEY", "test-secret")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin.password_hash")
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	requiredEnv(t)
	t.Setenv("INKDRIFT_NEWSLETTER__PROVIDER", "pigeon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newsletter.provider")
}
