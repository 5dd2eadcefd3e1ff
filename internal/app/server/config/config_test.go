package config

import (
	"testing"
	"time"

	domainsync "watchkeeper/internal/domain/sync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("RUN_ADDRESS", "")
	t.Setenv("DATABASE_URI", "")
	t.Setenv("SYNC_RESPONSE_MODE", "")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, ":8080", cfg.Server.RunAddress)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Empty(t, cfg.DB.DatabaseURI)
	assert.Equal(t, domainsync.ResponseTouched, cfg.Sync.ResponseMode)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("RUN_ADDRESS", "127.0.0.1:9000")
	t.Setenv("DATABASE_URI", "postgres://u:p@localhost/watch")
	t.Setenv("SYNC_TOKEN", "s3cret")
	t.Setenv("SYNC_RESPONSE_MODE", "full")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvProd, cfg.Env)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.RunAddress)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "postgres://u:p@localhost/watch", cfg.DB.DatabaseURI)
	assert.Equal(t, "s3cret", cfg.Sync.Token)
	assert.Equal(t, domainsync.ResponseFull, cfg.Sync.ResponseMode)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("SYNC_RESPONSE_MODE", "sometimes")

	_, err := Load()
	assert.ErrorIs(t, err, domainsync.ErrInvalidResponseMode)

	t.Setenv("SYNC_RESPONSE_MODE", "")
	t.Setenv("APP_ENV", "staging")
	_, err = Load()
	assert.Error(t, err)
}
