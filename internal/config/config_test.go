package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "opsdeck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
	require.Equal(t, "http://localhost:8000", cfg.Backend.URL)
	require.Equal(t, "efficient", cfg.Refresh.Mode)
	require.Equal(t, ":8080", cfg.Server.Listen)
}

func TestLoadOverlaysPartialFileOnDefaults(t *testing.T) {
	path := writeConfig(t, `
refresh:
  mode: live
  interval: 45s
demo: true
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "live", cfg.Refresh.Mode)
	require.Equal(t, 45*time.Second, cfg.Refresh.Interval.Std())
	require.True(t, cfg.Demo)
	// Untouched sections keep their defaults.
	require.Equal(t, "http://localhost:8000", cfg.Backend.URL)
	require.Equal(t, "opsdeck:prefs:", cfg.Redis.KeyPrefix)
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, `
backend:
  url: https://ops.internal:8443
redis:
  addr: localhost:6379
  db: 2
  key_prefix: "team:prefs:"
server:
  listen: 127.0.0.1:9090
debug: true
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://ops.internal:8443", cfg.Backend.URL)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr)
	require.Equal(t, 2, cfg.Redis.DB)
	require.Equal(t, "team:prefs:", cfg.Redis.KeyPrefix)
	require.Equal(t, "127.0.0.1:9090", cfg.Server.Listen)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel())
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `
refresh:
  interval: soon
`)

	_, err := config.Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid duration")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "backend: [")

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLogLevelDefaultsToInfo(t *testing.T) {
	require.Equal(t, slog.LevelInfo, config.Default().LogLevel())
}
