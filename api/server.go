package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"realestate-insights/utils"
)

// Server runs the HTTP API as a supervised service.
type Server struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          *utils.Logger
}

func NewServer(addr string, handler http.Handler, logger *utils.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: 10 * time.Second,
		logger:          logger.With("http"),
	}
}

// Serve implements suture.Service. It returns nil after a graceful shutdown
// triggered by ctx, or the listener error otherwise.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.server.Addr).Msg("[http] Listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info().Msg("[http] Server stopped")
	return nil
}

func (s *Server) String() string {
	return "http-server"
}
