package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/pagefetch/config"
)

func TestLoadConfigExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9100\"\nlimits:\n  default_timeout: 45s\n"), 0o644))

	cfg, err := loadConfig(path, "")
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, 45*time.Second, cfg.Limits.DefaultTimeout)
	// Unset fields keep their defaults.
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigLogLevelFlagWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o644))

	cfg, err := loadConfig(path, "DEBUG")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("limits:\n  max_bytes: 1\n"), 0o644))

	_, err := loadConfig(path, "")
	assert.Error(t, err)
}

func TestRootCmdSubcommands(t *testing.T) {
	cmd := rootCmd()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "get")
	assert.Contains(t, names, "version")
}

func TestBuildBlocklistFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocked.txt")
	require.NoError(t, os.WriteFile(path, []byte("*.file.example\n"), 0o644))

	cfg := config.DefaultConfig()
	cfg.Safety.BlockedHosts = []string{"*.static.example"}
	cfg.Safety.BlocklistFile = path

	blocklist, err := buildBlocklist(cfg)
	require.NoError(t, err)

	assert.True(t, blocklist.Match("host.static.example"))
	assert.True(t, blocklist.Match("host.file.example"))
	assert.False(t, blocklist.Match("public.example"))
}

func TestBuildBlocklistMissingFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Safety.BlocklistFile = filepath.Join(t.TempDir(), "absent.txt")

	_, err := buildBlocklist(cfg)
	assert.Error(t, err)
}
