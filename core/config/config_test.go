package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"rebelinux-site/core/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "site", cfg.Storage.Bucket)
	assert.Equal(t, 3, cfg.Loader.MaxAttempts)
	assert.Equal(t, 1000, cfg.Loader.RetryDelayMS)
	assert.Equal(t, 5000, cfg.Loader.TimeoutMS)
	assert.Equal(t, "http://localhost:8080/components/", cfg.Loader.Origin)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("LOADER_MAX_ATTEMPTS", "5")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Loader.MaxAttempts)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOADER_RETRY_DELAY_MS=250\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LOADER_RETRY_DELAY_MS") })

	cfg, err := config.LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Loader.RetryDelayMS)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("LOADER_ORIGIN", "components/")
	t.Setenv("SERVER_PORT", "http")

	_, err := config.LoadConfig(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loader.origin")
	assert.Contains(t, err.Error(), "server.port")
}
