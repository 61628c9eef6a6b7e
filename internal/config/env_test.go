package config

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv(t *testing.T) {
	t.Setenv("SKROBAKIOS_API_KEY", "secret")
	t.Setenv("SKROBAKIOS_LOG_LEVEL", "warn")
	t.Setenv("SKROBAKIOS_SAVE_CONCURRENCY", "0")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "secret", env.APIKey)
	assert.Equal(t, "local", env.Env)
	assert.True(t, env.IsLocal())
	assert.Equal(t, slog.LevelWarn, env.SlogLevel())
	assert.Equal(t, 30, env.TimelineFallbackDays)
	assert.Equal(t, 1, env.SaveConcurrency)
	assert.Equal(t, ".skrobakios/data", env.BaseDir)
}

func TestLoadEnv_RequiresAPIKey(t *testing.T) {
	t.Setenv("SKROBAKIOS_API_KEY", "restored after the test")
	require.NoError(t, os.Unsetenv("SKROBAKIOS_API_KEY"))
	_, err := LoadEnv()
	assert.Error(t, err)
}

func TestSlogLevel_Fallback(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, (&BaseEnv{LogLevel: "loud"}).SlogLevel())
	assert.Equal(t, slog.LevelDebug, (*BaseEnv)(nil).SlogLevel())
}
