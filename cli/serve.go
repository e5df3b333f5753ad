package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gear6io/lakeshare/server"
	"github.com/gear6io/lakeshare/server/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sharing server",
	Long: `Start the HTTP sharing server and serve the configured tables
until interrupted. Shutdown on SIGINT/SIGTERM is graceful: in-flight
requests are drained before the process exits.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := config.SetupLogger(cfg)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info().Msg("Shutting down lakeshare server...")
		cancel()
	}()

	logger.Info().Msg("Starting lakeshare server...")
	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	if err := srv.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("Error during shutdown")
	}

	logger.Info().Msg("Server stopped gracefully")
	return nil
}
