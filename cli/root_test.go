package cli

import (
	"os"
	"path/filepath"
	"testing"

	lserrors "github.com/gear6io/lakeshare/pkg/errors"
	"github.com/gear6io/lakeshare/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withConfigFlag(t *testing.T, path string) {
	t.Helper()
	prev := configFile
	configFile = path
	t.Cleanup(func() { configFile = prev })
}

func TestLoadConfigExplicitMissingFileFails(t *testing.T) {
	// A typo'd --config path must fail loudly, not silently serve defaults.
	withConfigFlag(t, filepath.Join(t.TempDir(), "nope.yml"))

	_, err := loadConfig()
	require.Error(t, err)
	assert.Equal(t, config.ErrConfigFileReadFailed.String(), lserrors.GetCode(err))
}

func TestLoadConfigExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lakeshare.yml")
	cfg := config.LoadDefaultConfig()
	cfg.Storage.DataPath = "/srv/shared-tables"
	require.NoError(t, config.SaveConfig(cfg, path))

	withConfigFlag(t, path)

	loaded, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/srv/shared-tables", loaded.Storage.DataPath)
}

func TestLoadConfigExplicitUnparseableFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [unclosed"), 0644))

	withConfigFlag(t, path)

	_, err := loadConfig()
	require.Error(t, err)
}

func TestLoadConfigDefaultsWhenNoFlagAndNoFile(t *testing.T) {
	withConfigFlag(t, "")

	// Run from a directory without a lakeshare.yml.
	dir := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.LoadDefaultConfig().Storage.DataPath, cfg.Storage.DataPath)
}
