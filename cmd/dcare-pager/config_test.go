package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pager.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := parseConfig(nil, io.Discard)
		require.NoError(t, err)

		assert.Equal(t, 18806, cfg.Port)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, DefaultKickInterval, cfg.KickInterval)
		assert.NotEmpty(t, cfg.SettingsPath)
		assert.False(t, cfg.Discover)
	})

	t.Run("Flags", func(t *testing.T) {
		cfg, err := parseConfig([]string{
			"-destination", "10.0.4.2",
			"-name", "Ward 3 desk",
			"-kick", "30s",
			"-discover",
			"-site", "north",
		}, io.Discard)
		require.NoError(t, err)

		assert.Equal(t, "10.0.4.2", cfg.Destination)
		assert.Equal(t, "Ward 3 desk", cfg.FriendlyName)
		assert.Equal(t, 30*time.Second, cfg.KickInterval)
		assert.True(t, cfg.Discover)
		assert.Equal(t, "north", cfg.browserConfig().Site)
	})

	t.Run("FileValues", func(t *testing.T) {
		path := writeConfig(t, `
destination: 10.0.9.1
port: 19000
api_port: 8080
log_level: debug
metrics: ":9118"
kick_interval: 2m
`)
		cfg, err := parseConfig([]string{"-config", path}, io.Discard)
		require.NoError(t, err)

		assert.Equal(t, path, cfg.ConfigFile)
		assert.Equal(t, "10.0.9.1", cfg.Destination)
		assert.Equal(t, 19000, cfg.Port)
		assert.Equal(t, 8080, cfg.APIPort)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, ":9118", cfg.MetricsAddr)
		assert.Equal(t, 2*time.Minute, cfg.KickInterval)
	})

	t.Run("FlagsOverrideFile", func(t *testing.T) {
		path := writeConfig(t, "destination: 10.0.9.1\nport: 19000\n")
		cfg, err := parseConfig([]string{"-config", path, "-port", "19001"}, io.Discard)
		require.NoError(t, err)

		assert.Equal(t, "10.0.9.1", cfg.Destination)
		assert.Equal(t, 19001, cfg.Port)
	})

	t.Run("EmptyFile", func(t *testing.T) {
		path := writeConfig(t, "")
		cfg, err := parseConfig([]string{"-config", path}, io.Discard)
		require.NoError(t, err)
		assert.Equal(t, 18806, cfg.Port)
	})

	t.Run("UnknownKey", func(t *testing.T) {
		path := writeConfig(t, "destinaton: 10.0.9.1\n")
		_, err := parseConfig([]string{"-config", path}, io.Discard)
		assert.Error(t, err)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := parseConfig([]string{"-config", filepath.Join(t.TempDir(), "none.yaml")}, io.Discard)
		assert.Error(t, err)
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, args := range [][]string{
			{"-port", "0"},
			{"-port", "70000"},
			{"-api-port", "-1"},
			{"-kick", "0s"},
			{"-log-level", "verbose"},
			{"-settings", " "},
		} {
			_, err := parseConfig(args, io.Discard)
			assert.Error(t, err, "args %v", args)
		}
	})
}
