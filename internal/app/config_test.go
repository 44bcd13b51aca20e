package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 3000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "http://localhost:3000", cfg.Server.BaseURL)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 23*time.Hour, cfg.Auth.JWT.TTL)
	require.False(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, 250, cfg.Avatars.Size)
	require.Equal(t, 60, cfg.Avatars.Quality)
	require.Equal(t, "@hourly", cfg.Maintenance.UploadSchedule)
	require.Equal(t, time.Hour, cfg.Maintenance.TempUploadMaxAge)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
server:
  port: 8080
  base_url: https://contacts.example.com
auth:
  jwt:
    secret: file-secret
    session_token_ttl: 2h
email:
  smtp:
    enabled: true
    host: smtp.example.com
    port: 2525
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "https://contacts.example.com", cfg.Server.BaseURL)
	require.Equal(t, "file-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, 2*time.Hour, cfg.Auth.JWT.TTL)
	require.True(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, 2525, cfg.Email.SMTP.Port)
}

func TestJWTServiceConfigConversion(t *testing.T) {
	cfg := AuthConfig{JWT: JWTSettings{Secret: "s", Issuer: "i", TTL: time.Hour}}
	out := cfg.JWTServiceConfig()

	require.Equal(t, "s", out.Secret)
	require.Equal(t, "i", out.Issuer)
	require.Equal(t, time.Hour, out.SessionTokenTTL)
}
