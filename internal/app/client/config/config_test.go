package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("SERVER_ADDRESS", "")
	t.Setenv("SYNC_INTERVAL_SECONDS", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.ServerAddress)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL())
	assert.True(t, cfg.SyncEnabled)
	assert.Equal(t, 30*time.Second, cfg.SyncInterval)
	assert.Equal(t, 2*time.Second, cfg.SyncRetryBase)
	assert.Equal(t, 5*time.Minute, cfg.SyncRetryMax)
	assert.Equal(t, filepath.Join(dir, "watchlist.db"), cfg.DataPath)
	assert.Equal(t, filepath.Join(dir, "device_id"), cfg.DeviceIDPath)
	assert.Equal(t, filepath.Join(dir, "watchlist.signal"), cfg.SignalPath)
	assert.False(t, cfg.MemoryFallback)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("SERVER_ADDRESS", "")

	file := filepath.Join(dir, "client.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server_address: sync.example.com\nenable_tls: true\nsync_enabled: false\n"), 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "https://sync.example.com", cfg.BaseURL())
	assert.False(t, cfg.SyncEnabled)
}

func TestLoad_InvalidRetry(t *testing.T) {
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("SYNC_RETRY_BASE_SECONDS", "10")
	t.Setenv("SYNC_RETRY_MAX_SECONDS", "5")

	_, err := Load("")
	assert.Error(t, err)
}

func TestConfig_BaseURL(t *testing.T) {
	c := &Config{ServerAddress: "http://127.0.0.1:9000/"}
	assert.Equal(t, "http://127.0.0.1:9000", c.BaseURL())
}
