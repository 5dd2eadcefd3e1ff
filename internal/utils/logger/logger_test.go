package logger

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"watchkeeper/internal/app/server/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name          string
		env           string
		expectedLevel slog.Level
	}{
		{
			name:          "local environment",
			env:           config.EnvLocal,
			expectedLevel: slog.LevelDebug,
		},
		{
			name:          "dev environment",
			env:           config.EnvDev,
			expectedLevel: slog.LevelDebug,
		},
		{
			name:          "prod environment",
			env:           config.EnvProd,
			expectedLevel: slog.LevelInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.env)
			require.NotNil(t, logger)
			ctx := context.Background()
			assert.Equal(t, tt.expectedLevel <= slog.LevelDebug, logger.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.expectedLevel <= slog.LevelInfo, logger.Enabled(ctx, slog.LevelInfo))
		})
	}
}

func TestSetupPrettySlog(t *testing.T) {
	logger := setupPrettySlog()
	require.NotNil(t, logger)

	ctx := context.Background()
	assert.True(t, logger.Enabled(ctx, slog.LevelDebug))
}

func TestNewWithLevel(t *testing.T) {
	ctx := context.Background()

	// LOG_LEVEL перекрывает уровень окружения
	warnLogger := NewWithLevel(config.EnvDev, "warn", &bytes.Buffer{})
	assert.False(t, warnLogger.Enabled(ctx, slog.LevelInfo))
	assert.True(t, warnLogger.Enabled(ctx, slog.LevelWarn))

	// Неизвестный уровень - значение окружения
	prodLogger := NewWithLevel(config.EnvProd, "loud", &bytes.Buffer{})
	assert.False(t, prodLogger.Enabled(ctx, slog.LevelDebug))
	assert.True(t, prodLogger.Enabled(ctx, slog.LevelInfo))
}

func TestPrettyHandler_Output(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithLevel(config.EnvLocal, "", &buf).With("component", "sync")

	log.Info("round finished", "applied", 3, "error", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "round finished")
	assert.Contains(t, out, `"component":"sync"`)
	assert.Contains(t, out, `"applied":3`)
	assert.Contains(t, out, `"error":"boom"`)
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "client.log")

	log, closer, err := NewFile(config.EnvProd, "", path)
	require.NoError(t, err)

	log.Info("hello", "k", "v")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"k":"v"`)
}

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel(" DEBUG ")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelDebug, l)

	_, ok = ParseLevel("")
	assert.False(t, ok)
}
