package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoval-dev/replica/internal/config"
)

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.Defaults.Verify)
	assert.Nil(t, cfg.Defaults.ScanWorkers)
	assert.Empty(t, cfg.Defaults.Exclude)
}

func TestLoad_FullConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "replica")
	require.NoError(t, os.MkdirAll(configDir, 0o755))

	content := `
[defaults]
verify = true
scan_workers = 8
verify_workers = 4
one_filesystem = false
bwlimit = "100MB"
exclude = ["*.tmp", "node_modules"]
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(content), 0o644))

	cfg, err := config.Load()
	require.NoError(t, err)

	require.NotNil(t, cfg.Defaults.Verify)
	assert.True(t, *cfg.Defaults.Verify)

	require.NotNil(t, cfg.Defaults.ScanWorkers)
	assert.Equal(t, 8, *cfg.Defaults.ScanWorkers)

	require.NotNil(t, cfg.Defaults.VerifyWorkers)
	assert.Equal(t, 4, *cfg.Defaults.VerifyWorkers)

	require.NotNil(t, cfg.Defaults.OneFilesystem)
	assert.False(t, *cfg.Defaults.OneFilesystem)

	require.NotNil(t, cfg.Defaults.BWLimit)
	assert.Equal(t, "100MB", *cfg.Defaults.BWLimit)

	assert.Equal(t, []string{"*.tmp", "node_modules"}, cfg.Defaults.Exclude)
}

func TestLoad_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "replica")
	require.NoError(t, os.MkdirAll(configDir, 0o755))

	content := `
[defaults]
verify = true
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(content), 0o644))

	cfg, err := config.Load()
	require.NoError(t, err)

	require.NotNil(t, cfg.Defaults.Verify)
	assert.True(t, *cfg.Defaults.Verify)

	// Unset fields stay nil.
	assert.Nil(t, cfg.Defaults.ScanWorkers)
	assert.Nil(t, cfg.Defaults.BWLimit)
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "replica")
	require.NoError(t, os.MkdirAll(configDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte("invalid [[["), 0o644))

	_, err := config.Load()
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/replica/config.toml", config.Path())
}
