package cli

import (
	"github.com/gear6io/lakeshare/server/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lakeshare",
	Short: "A versioned table sharing server",
	Long: `Lakeshare serves versioned columnar tables to external recipients
over HTTP. Tables live as parquet files with an append-only commit log;
recipients authenticate with long-lived bearer tokens and page through
listings with expiring opaque tokens.`,
	Version: "0.1.0",
}

var configFile string

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// defaultConfigFile is probed when no --config flag is given
const defaultConfigFile = "lakeshare.yml"

// loadConfig reads the configuration. An explicitly passed --config path
// must load; only the implicit default file may be absent, in which case
// built-in defaults apply.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadConfig(configFile)
	}

	cfg, err := config.LoadConfig(defaultConfigFile)
	if err != nil {
		return config.LoadDefaultConfig(), nil
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}
