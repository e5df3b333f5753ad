package config

import (
	"os"
	"path/filepath"
	"testing"

	lserrors "github.com/gear6io/lakeshare/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultConfig(t *testing.T) {
	cfg := LoadDefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "./data", cfg.GetStoragePath())
	assert.Equal(t, HTTP_SERVER_PORT, cfg.GetHTTPPort())
}

func TestLoadConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lakeshare.yml")

	cfg := LoadDefaultConfig()
	cfg.Environment = "production"
	cfg.Storage.DataPath = "/srv/lakeshare/data"
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, loaded.IsProduction())
	assert.Equal(t, "/srv/lakeshare/data", loaded.GetStoragePath())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/lakeshare.yml")
	require.Error(t, err)
	assert.Equal(t, ErrConfigFileReadFailed.String(), lserrors.GetCode(err))
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unclosed"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Equal(t, ErrConfigFileParseFailed.String(), lserrors.GetCode(err))
}

func TestValidateRejectsBadEnvironment(t *testing.T) {
	cfg := LoadDefaultConfig()
	cfg.Environment = "staging"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, ErrEnvironmentInvalid.String(), lserrors.GetCode(err))
}

func TestValidateRequiresPaths(t *testing.T) {
	cfg := LoadDefaultConfig()
	cfg.Storage.DataPath = ""
	assert.Error(t, cfg.Validate())

	cfg = LoadDefaultConfig()
	cfg.Registry.DBPath = ""
	assert.Error(t, cfg.Validate())
}

func TestIsValidPort(t *testing.T) {
	assert.True(t, IsValidPort(HTTP_SERVER_PORT))
	assert.False(t, IsValidPort(0))
	assert.False(t, IsValidPort(70000))
}
