package config

import (
	"os"

	"github.com/gear6io/lakeshare/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the server configuration
type Config struct {
	Environment string         `yaml:"environment"` // "production" or "development"
	Log         LogConfig      `yaml:"log"`
	Storage     StorageConfig  `yaml:"storage"`
	Registry    RegistryConfig `yaml:"registry"`
	Auth        AuthConfig     `yaml:"auth"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`      // "json" or "console"
	FilePath   string `yaml:"file_path"`   // Path to log file
	Console    bool   `yaml:"console"`     // Whether to log to console
	MaxSize    int    `yaml:"max_size"`    // Max file size in MB
	MaxBackups int    `yaml:"max_backups"` // Max number of backup files
	MaxAge     int    `yaml:"max_age"`     // Max age in days
	Cleanup    bool   `yaml:"cleanup"`     // Whether to cleanup log file on startup
}

// StorageConfig represents table storage configuration. DataPath is the root
// under which each shared table keeps its data files and its _log directory.
type StorageConfig struct {
	DataPath string `yaml:"data_path"`
}

// RegistryConfig represents the recipient registry configuration
type RegistryConfig struct {
	DBPath string `yaml:"db_path"`
}

// AuthConfig carries the identity-provider settings consumed by the auth
// provider presets. Provider selection happens once at startup; the serving
// path never reads these fields.
type AuthConfig struct {
	Provider     string `yaml:"provider"` // "", "okta", "azure-ad" or "oidc"
	IssuerURL    string `yaml:"issuer_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// LoadDefaultConfig returns a default configuration
func LoadDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			FilePath:   "logs/lakeshare-server.log",
			Console:    true,
			MaxSize:    100, // 100MB
			MaxBackups: 3,
			MaxAge:     7, // 7 days
			Cleanup:    true,
		},
		Storage: StorageConfig{
			DataPath: "./data",
		},
		Registry: RegistryConfig{
			DBPath: "./data/recipients.db",
		},
	}
}

// LoadConfig loads configuration from a file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.New(ErrConfigFileReadFailed, "failed to read config file", err).AddContext("path", filename)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.New(ErrConfigFileParseFailed, "failed to parse config file", err).AddContext("path", filename)
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if err := config.Validate(); err != nil {
		return nil, errors.New(ErrConfigValidationFailed, "configuration validation failed", err)
	}

	return &config, nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config *Config, filename string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.New(ErrConfigFileMarshalFailed, "failed to marshal config", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.New(ErrConfigFileWriteFailed, "failed to write config file", err).AddContext("path", filename)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Environment != "production" && c.Environment != "development" {
		return errors.New(ErrEnvironmentInvalid, "environment must be 'production' or 'development'", nil).AddContext("environment", c.Environment)
	}

	if c.Storage.DataPath == "" {
		return errors.New(ErrDataPathRequired, "data_path is required in storage configuration", nil)
	}

	if c.Registry.DBPath == "" {
		return errors.New(ErrRegistryDBPathRequired, "db_path is required in registry configuration", nil)
	}

	return nil
}

// IsProduction reports whether the server runs with production error hygiene
// (no stack traces in responses).
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GetHTTPPort returns the fixed HTTP server port
func (c *Config) GetHTTPPort() int {
	return HTTP_SERVER_PORT
}

// GetHTTPAddress returns the HTTP server bind address
func (c *Config) GetHTTPAddress() string {
	return DEFAULT_SERVER_ADDRESS
}

// GetStoragePath returns the table storage root
func (c *Config) GetStoragePath() string {
	return c.Storage.DataPath
}

// GetRegistryPath returns the recipient registry database path
func (c *Config) GetRegistryPath() string {
	return c.Registry.DBPath
}
