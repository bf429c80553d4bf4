package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Server wraps the gin engine in an http.Server with graceful shutdown
type Server struct {
	srv    *http.Server
	logger zerolog.Logger
}

// NewServer creates an HTTP server for the given router
func NewServer(addr string, router *gin.Engine, logger zerolog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		logger: logger.With().Str("component", "http_server").Logger(),
	}
}

// Start runs the server until it is stopped
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.srv.Addr).Msg("Starting HTTP server")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests and shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Stopping HTTP server")
	return s.srv.Shutdown(ctx)
}
