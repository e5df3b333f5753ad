package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gear6io/lakeshare/server/auth"
	"github.com/gear6io/lakeshare/server/config"
	"github.com/gear6io/lakeshare/server/sharing"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Server represents the HTTP protocol server
type Server struct {
	cfg           *config.Config
	sharing       *sharing.Service
	authenticator *auth.Authenticator
	logger        zerolog.Logger
	server        *http.Server
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// NewServer creates a new HTTP server instance. A nil authenticator
// disables bearer auth and serves every request anonymously.
func NewServer(cfg *config.Config, sharingService *sharing.Service, authenticator *auth.Authenticator, logger zerolog.Logger) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:           cfg,
		sharing:       sharingService,
		authenticator: authenticator,
		logger:        logger.With().Str("component", "http-server").Logger(),
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	if !config.HTTP_SERVER_ENABLED {
		s.logger.Info().Msg("HTTP server is disabled")
		return nil
	}

	addr := fmt.Sprintf("%s:%d", config.DEFAULT_SERVER_ADDRESS, config.HTTP_SERVER_PORT)
	s.logger.Info().Str("address", addr).Msg("Starting HTTP server")

	s.server = &http.Server{
		Addr:    addr,
		Handler: s.handler(),
	}

	// Start server in goroutine
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	s.logger.Info().Msg("HTTP server started successfully")
	return nil
}

// handler builds the route table. Listing and data endpoints sit behind
// bearer auth; health and status stay open for probes.
func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/tables", s.authenticated(s.handleListTables))
	mux.HandleFunc("GET /api/v1/tables/{table}/version", s.authenticated(s.handleTableVersion))
	mux.HandleFunc("GET /api/v1/tables/{table}/metadata", s.authenticated(s.handleTableMetadata))
	mux.HandleFunc("GET /api/v1/tables/{table}/files", s.authenticated(s.handleListFiles))
	mux.HandleFunc("GET /api/v1/tables/{table}/rows", s.authenticated(s.handleQueryRows))

	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /health", s.handleHealth)

	return s.withRequestID(mux)
}

// withRequestID tags every request with an id for log correlation
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		logger := s.logger.With().Str("request_id", requestID).Logger()
		logger.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("Request received")
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}

// authenticated resolves the bearer token before the handler runs. The
// resolved principal rides the request context.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authenticator == nil {
			next(w, r)
			return
		}

		principal, err := s.authenticator.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		next(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	}
}

// handleStatus handles status requests
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeData(w, r, map[string]interface{}{
		"status": "running",
		"server": "lakeshare-http",
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeData(w, r, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"server":    "lakeshare-http",
	})
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping HTTP server")

	s.cancel()

	if s.server != nil {
		// Create a context with timeout for graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("Error during HTTP server shutdown")
		}
	}

	// Wait for all goroutines to finish
	s.wg.Wait()

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}

// GetStatus returns server status
func (s *Server) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"enabled": config.HTTP_SERVER_ENABLED,
		"address": config.DEFAULT_SERVER_ADDRESS,
		"port":    config.HTTP_SERVER_PORT,
	}
}
