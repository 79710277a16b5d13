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
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Empty(t, cfg.FilePath)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, time.Second, cfg.Storage.ProbeTimeout)
	assert.Equal(t, []string{"969631", "969632", "969634"}, cfg.Assignment.AdminIDs)
	assert.Equal(t, "969633", cfg.Assignment.RestrictedID)
	assert.Len(t, cfg.Assignment.StandardModules, 9)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: "8081"
  mode: debug
storage:
  probe_timeout: 250ms
  reconnect_interval: 10s
jwt:
  secret: file-secret
  expire_hours: 2
auth:
  require_token: true
assignment:
  admin_ids: ["1"]
  restricted_id: "2"
  restricted_modules: [phishing]
  standard_modules: [phishing, password]
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.FilePath)
	assert.Equal(t, 250*time.Millisecond, cfg.Storage.ProbeTimeout)
	assert.Equal(t, 10*time.Second, cfg.Storage.ReconnectInterval)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
	assert.True(t, cfg.Auth.RequireToken)
	assert.Equal(t, []string{"phishing", "password"}, cfg.Assignment.StandardModules)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := writeConfig(t, "server:\n  port: \"8081\"\n")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
}

func TestLoadConfigRejectsWeakSecretInRelease(t *testing.T) {
	dir := writeConfig(t, "server:\n  mode: release\njwt:\n  secret: short\n")

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}
