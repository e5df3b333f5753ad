package server

import (
	"path/filepath"
	"testing"

	"github.com/gear6io/lakeshare/server/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.LoadDefaultConfig()
	cfg.Storage.DataPath = filepath.Join(dir, "data")
	cfg.Registry.DBPath = filepath.Join(dir, "registry.db")
	return cfg
}

func TestNewWithoutProvider(t *testing.T) {
	srv, err := New(testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, srv)
	require.NoError(t, srv.Shutdown())
}

func TestNewSkipsIncompleteProviderSettings(t *testing.T) {
	// A half-filled auth block must not stop the server: provider
	// registration is skipped and bearer auth runs on the registry alone.
	cfg := testConfig(t)
	cfg.Auth = config.AuthConfig{Provider: "okta", IssuerURL: "https://example.okta.com"}

	srv, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, srv)
	assert.NotNil(t, srv.Registry())
	require.NoError(t, srv.Shutdown())
}

func TestNewSkipsUnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth = config.AuthConfig{
		Provider:     "my-idp",
		IssuerURL:    "https://idp.example.com",
		ClientID:     "id",
		ClientSecret: "secret",
	}

	srv, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, srv.Shutdown())
}
