package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gear6io/lakeshare/server/auth"
	"github.com/gear6io/lakeshare/server/auth/registry"
	"github.com/gear6io/lakeshare/server/config"
	"github.com/gear6io/lakeshare/server/deltalog"
	"github.com/gear6io/lakeshare/server/pagination"
	"github.com/gear6io/lakeshare/server/protocols/http"
	"github.com/gear6io/lakeshare/server/sharing"
	"github.com/gear6io/lakeshare/server/storage/parquet"
	"github.com/rs/zerolog"
)

// Server wires the recipient registry, the table log store and the
// sharing service behind the protocol servers and manages their
// lifecycle.
type Server struct {
	config     *config.Config
	logger     zerolog.Logger
	registry   *registry.Store
	httpServer *http.Server
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	startTime  time.Time
}

// New creates a new server instance
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())

	// Resolve identity-provider settings up front. Incomplete or unknown
	// settings skip provider registration; the server still runs on the
	// recipient registry alone.
	preset, err := auth.ResolveProvider(&cfg.Auth)
	if err != nil {
		logger.Warn().Err(err).Msg("Identity provider not registered")
	}
	if preset != nil {
		logger.Info().Str("provider", preset.Name).Msg("Identity provider configured")
	}

	// Recipient registry backs bearer-token validation
	recipientRegistry, err := registry.NewStore(cfg.Registry.DBPath)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open recipient registry: %w", err)
	}

	authenticator := auth.NewAuthenticator(recipientRegistry, logger)

	sharingService := sharing.NewService(
		deltalog.NewStore(cfg.Storage.DataPath, logger),
		parquet.NewReader(logger),
		pagination.NewCodec(),
		logger,
	)

	// Create HTTP server
	httpServer, err := http.NewServer(cfg, sharingService, authenticator, logger)
	if err != nil {
		cancel()
		recipientRegistry.Close()
		return nil, fmt.Errorf("failed to create HTTP server: %w", err)
	}

	return &Server{
		config:     cfg,
		logger:     logger.With().Str("component", "server").Logger(),
		registry:   recipientRegistry,
		httpServer: httpServer,
		wg:         sync.WaitGroup{},
		ctx:        ctx,
		cancel:     cancel,
		startTime:  time.Now(),
	}, nil
}

// Registry exposes the recipient registry for management commands
func (s *Server) Registry() *registry.Store {
	return s.registry
}

// Start starts all protocol servers
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info().Msg("Starting Lakeshare server...")

	if config.HTTP_SERVER_ENABLED {
		s.logger.Info().Msg("Starting HTTP server")
		if err := s.httpServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		s.logger.Info().Msg("HTTP server started")
	}

	s.logger.Info().
		Bool("http_enabled", config.HTTP_SERVER_ENABLED).
		Str("http_address", config.DEFAULT_SERVER_ADDRESS).
		Int("http_port", config.HTTP_SERVER_PORT).
		Str("data_path", s.config.Storage.DataPath).
		Msg("All servers started")

	return nil
}

// Shutdown gracefully shuts down all servers
func (s *Server) Shutdown() error {
	s.logger.Info().Msg("Shutting down server...")

	s.cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Stop(); err != nil {
			s.logger.Error().Err(err).Msg("Error stopping HTTP server")
		}
	}

	if s.registry != nil {
		if err := s.registry.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing recipient registry")
		}
	}

	// Wait for all servers to stop
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Graceful shutdown completed")
	case <-time.After(30 * time.Second):
		s.logger.Warn().Msg("Shutdown timeout, forcing close")
	}

	return nil
}

// GetUptime returns the server uptime
func (s *Server) GetUptime() time.Duration {
	return time.Since(s.startTime)
}

// GetStatus returns the server status
func (s *Server) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"uptime":       s.GetUptime().String(),
		"start_time":   s.startTime,
		"http_enabled": config.HTTP_SERVER_ENABLED,
		"data_path":    s.config.Storage.DataPath,
	}
}
