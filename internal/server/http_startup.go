package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobgate/internal/config"
	"jobgate/internal/observability"
)

// Start starts the HTTP server with all configured components
func (s *Server) Start() error {
	om := s.Observability
	if om == nil {
		var err error
		om, err = observability.NewObservabilityManager(s.AppConfig.Observability)
		if err != nil {
			return fmt.Errorf("failed to initialize observability: %w", err)
		}
	}
	defer s.shutdownObservability(om)

	promptWatcher, err := config.NewPromptWatcher(s.AppConfig.AI.SystemPromptFile, s.Logger)
	if err != nil {
		return err
	}
	if promptWatcher != nil {
		watchCtx, cancelWatch := context.WithCancel(context.Background())
		defer cancelWatch()
		promptWatcher.Start(watchCtx)
		defer func() {
			if err := promptWatcher.Close(); err != nil {
				s.Logger.Warn("Failed to close prompt watcher", "error", err.Error())
			}
		}()
	}

	httpServer, err := s.setupHTTPServer(om)
	if err != nil {
		return err
	}

	if err := s.configureTLS(httpServer); err != nil {
		return err
	}

	s.Logger.Info("Server configuration",
		"address", httpServer.Addr,
		"tls_mode", s.TLSConfig.Mode,
		"auth_enabled", len(s.APIKeys) > 0,
		"rate_limit_enabled", s.RateLimit != nil && s.RateLimit.Enabled,
		"ai_provider_configured", s.AIProvider != nil,
		"search_credentials", s.Gateway != nil && s.Gateway.HasCredentials())

	return s.startWithGracefulShutdown(httpServer)
}

// shutdownObservability handles observability cleanup
func (s *Server) shutdownObservability(om *observability.ObservabilityManager) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer(om *observability.ObservabilityManager) (*http.Server, error) {
	mux := s.setupRoutes(om)
	handler := om.HTTPMiddleware()(mux)
	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}, nil
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(server *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server",
			"address", server.Addr,
			"tls_enabled", server.TLSConfig != nil)

		var err error
		if server.TLSConfig != nil {
			err = server.ListenAndServeTLS(s.TLSConfig.CertFile, s.TLSConfig.KeyFile)
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())

		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.cleanupRateLimiter()

	if s.AIProvider != nil {
		if err := s.AIProvider.Close(); err != nil {
			s.Logger.LogError(err, "Failed to close AI provider")
		}
	}

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// cleanupRateLimiter cleans up the rate limiter resources
func (s *Server) cleanupRateLimiter() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}
}
