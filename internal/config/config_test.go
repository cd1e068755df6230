package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_DefaultsWithoutConfigFile(t *testing.T) {
	chdirTemp(t)
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 30*time.Second, cfg.Report.Freshness)
	assert.Equal(t, 5*time.Second, cfg.Lock.Wait)
	assert.Equal(t, "procurement.events", cfg.Redis.Channel)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	yaml := []byte(`
server:
  port: 9090
store:
  driver: memory
report:
  freshness: 5s
redis:
  addr: localhost:6379
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "config.yaml"), yaml, 0o600))
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port, "env overrides file")
	assert.Equal(t, 5*time.Second, cfg.Report.Freshness)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	chdirTemp(t)
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := Load()
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(LogConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, log)

	_, err = NewLogger(LogConfig{Level: "verbose"})
	assert.Error(t, err)
}
