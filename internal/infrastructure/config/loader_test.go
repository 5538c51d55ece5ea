package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, env, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, env+".yaml"), []byte(content), 0o600))
	return dir
}

func TestLoad_FileValuesAndDefaults(t *testing.T) {
	dir := writeConfig(t, Test, `
database:
  driver: memory
ledger:
  maxRetries: 5
  retryBaseDelay: 2
  retryMaxDelay: 40
redis:
  cacheTTL: 5
`)

	cfg, err := Load(Test, dir)
	require.NoError(t, err)

	assert.Equal(t, Test, cfg.Environment)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Ledger.MaxRetries)
	assert.Equal(t, 2*time.Millisecond, cfg.Ledger.RetryBaseDelay)
	assert.Equal(t, 40*time.Millisecond, cfg.Ledger.RetryMaxDelay)
	assert.Equal(t, 5*time.Second, cfg.Redis.CacheTTL)

	assert.Equal(t, 5001, cfg.Server.Port)
	assert.Equal(t, "/api", cfg.Server.BasePath)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 200*time.Millisecond, cfg.Database.SlowQueryThreshold)
	assert.Equal(t, 24*time.Hour, cfg.Redis.IdempotencyTTL)
	assert.True(t, cfg.Ledger.SerializeInProcess)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	dir := writeConfig(t, Development, `
server:
  port: 5001
database:
  host: localhost
  username: file-user
redis:
  enabled: false
`)

	t.Setenv("WL_DB_HOST", "db.internal")
	t.Setenv("WL_DB_USERNAME", "env-user")
	t.Setenv("WL_SERVER_PORT", "6000")
	t.Setenv("WL_REDIS_ENABLED", "true")
	t.Setenv("WL_SERVER_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(Development, dir)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "env-user", cfg.Database.Username)
	assert.Equal(t, 6000, cfg.Server.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(Development, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := writeConfig(t, Development, "server: [unclosed")

	_, err := Load(Development, dir)
	assert.Error(t, err)
}
