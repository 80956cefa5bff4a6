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

func TestLoad(t *testing.T) {
	t.Run("file values with defaults", func(t *testing.T) {
		path := writeConfigFile(t, `
server:
  port: "9999"
database:
  url: postgres://localhost:5432/app
jwt:
  secret_key: file-secret
mail:
  smtp_host: smtp.example.com
  from_address: noreply@example.com
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "9999", cfg.Server.Port)
		assert.Equal(t, "postgres://localhost:5432/app", cfg.Database.URL)
		assert.Equal(t, "file-secret", cfg.JWT.SecretKey)

		// Untouched keys keep their defaults.
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 3, cfg.Mail.MaxAttempts)
		assert.Equal(t, time.Second, cfg.Mail.BackoffUnit)
		assert.Equal(t, 24*time.Hour, cfg.JWT.TokenDuration)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := writeConfigFile(t, `
server:
  port: "9999"
database:
  url: postgres://localhost:5432/app
jwt:
  secret_key: file-secret
mail:
  enabled: false
`)
		t.Setenv("SOLFRANCE_SERVER__PORT", "7777")
		t.Setenv("SOLFRANCE_JWT__SECRET_KEY", "env-secret")
		t.Setenv("SOLFRANCE_DATABASE__MAX_OPEN_CONNS", "42")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "7777", cfg.Server.Port)
		assert.Equal(t, "env-secret", cfg.JWT.SecretKey)
		assert.Equal(t, 42, cfg.Database.MaxOpenConns)
	})

	t.Run("unprefixed variables are ignored", func(t *testing.T) {
		t.Setenv("SOLFRANCE_DATABASE__URL", "postgres://localhost:5432/app")
		t.Setenv("SOLFRANCE_JWT__SECRET_KEY", "env-secret")
		t.Setenv("SOLFRANCE_MAIL__ENABLED", "false")
		t.Setenv("SERVER__PORT", "1234")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Server.Port)
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		t.Setenv("SOLFRANCE_DATABASE__URL", "postgres://localhost:5432/app")
		t.Setenv("SOLFRANCE_JWT__SECRET_KEY", "env-secret")
		t.Setenv("SOLFRANCE_MAIL__ENABLED", "false")

		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "postgres://localhost:5432/app", cfg.Database.URL)
	})

	t.Run("database url is required", func(t *testing.T) {
		t.Setenv("SOLFRANCE_JWT__SECRET_KEY", "env-secret")

		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.url")
	})

	t.Run("smtp host required when mail enabled", func(t *testing.T) {
		t.Setenv("SOLFRANCE_DATABASE__URL", "postgres://localhost:5432/app")
		t.Setenv("SOLFRANCE_JWT__SECRET_KEY", "env-secret")

		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mail.smtp_host")
	})
}
