package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "test.db")
	path := writeConfig(t, `
server:
  port: 9000
  admin_api_key: ${TEST_ADMIN_KEY}
database:
  path: `+dbPath+`
hold:
  ttl_minutes: 15
  sweep_interval_seconds: 30
availability:
  cache_ttl_seconds: 120
catalog:
  - id: tarot-reading
    name: Tarot Reading
    base_price: 6500
    addon_price: 1500
`)
	t.Setenv("TEST_ADMIN_KEY", "secret-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "secret-key", cfg.Server.AdminAPIKey)
	assert.Equal(t, 15*time.Minute, cfg.HoldTTL())
	assert.Equal(t, 30*time.Second, cfg.SweepInterval())
	assert.Equal(t, 120*time.Second, cfg.CacheTTL())
	require.Len(t, cfg.Catalog, 1)
	assert.Equal(t, int64(1500), cfg.Catalog[0].AddOnPrice)

	// The database directory is created on load.
	_, err = os.Stat(filepath.Dir(dbPath))
	assert.NoError(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(old) })

	path := writeConfig(t, "server: {}\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/arcana.db", cfg.Database.Path)
	assert.Equal(t, 10*time.Minute, cfg.HoldTTL())
	assert.Equal(t, 10*time.Second, cfg.SweepInterval())
	assert.Equal(t, 60*time.Second, cfg.CacheTTL())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
