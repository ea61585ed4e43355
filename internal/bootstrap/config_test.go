package bootstrap

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoledesexcellents/ecole-ui/config"
)

func TestLoadConfig_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("API_URL=http://api.ecole.test/api/\nAPI_REFRESH_QUEUE_LIMIT=8\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("NODE_ENV", "")
	// godotenv never overrides variables that are already set.
	t.Setenv("SESSION_LOGIN_PATH", "/connexion")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = os.Unsetenv("API_URL")
		_ = os.Unsetenv("API_REFRESH_QUEUE_LIMIT")
	})

	assert.Equal(t, "http://api.ecole.test/api", cfg.API.BaseURL)
	assert.Equal(t, 8, cfg.API.RefreshQueueLimit)
	assert.Equal(t, "/connexion", cfg.Session.LoginPath)
	assert.Equal(t, 100*time.Millisecond, cfg.API.CookiePropagationDelay)
}

func TestLoadConfig_MissingDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NODE_ENV", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultAPIURL, cfg.API.BaseURL)
}

func TestLoadConfig_InvalidValue(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("API_TIMEOUT", "soon")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestApplyLogLevel(t *testing.T) {
	t.Cleanup(func() { logLevel.Set(slog.LevelInfo) })

	cfg := &config.AppConfig{Observability: config.ObservabilityConfig{LogLevel: "warn"}}
	ApplyLogLevel(cfg)
	assert.Equal(t, slog.LevelWarn, logLevel.Level())

	cfg.IsDev = true
	ApplyLogLevel(cfg)
	assert.Equal(t, slog.LevelDebug, logLevel.Level())

	ApplyLogLevel(nil)
	assert.Equal(t, slog.LevelDebug, logLevel.Level())
}
