package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"jobmatch/internal/config"
)

const shutdownTimeout = 30 * time.Second

// Start serves until ctx is cancelled or SIGINT/SIGTERM arrives, then drains
// in-flight requests for up to 30 seconds.
func (s *Server) Start(ctx context.Context) error {
	httpServer := s.newHTTPServer()

	if err := s.configureTLS(httpServer); err != nil {
		return err
	}
	if err := s.startVaultWatcher(); err != nil {
		s.stopBackground()
		return err
	}

	s.displayServerInfo()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.serveUntilDone(ctx, httpServer)
}

// newHTTPServer creates the http.Server with the routed handler
func (s *Server) newHTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// startVaultWatcher rotates API keys when Vault and a watch interval are configured
func (s *Server) startVaultWatcher() error {
	vaultCfg := s.AppConfig.Vault
	if !vaultCfg.Enabled || vaultCfg.WatchInterval <= 0 || vaultCfg.Secrets.APIKeys == "" {
		return nil
	}

	vc, err := config.NewVaultClient(vaultCfg, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Vault client: %w", err)
	}

	watcher := NewVaultWatcher(vc, vaultCfg.Secrets.APIKeys, vaultCfg.WatchInterval, s.APIKeys, s.Logger)
	if err := watcher.Start(); err != nil {
		return err
	}
	s.VaultWatcher = watcher
	return nil
}

func (s *Server) serveUntilDone(ctx context.Context, server *http.Server) error {
	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server",
			"address", server.Addr,
			"tls_enabled", server.TLSConfig != nil)

		var err error
		if server.TLSConfig != nil {
			// Certificates come from GetCertificate
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		s.stopBackground()
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		s.Logger.Info("Received shutdown signal, starting graceful shutdown")
		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.stopBackground()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// stopBackground stops watchers and the rate limiter cleanup loop
func (s *Server) stopBackground() {
	if s.CertificateManager != nil {
		if err := s.CertificateManager.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop certificate manager")
		}
	}
	if s.VaultWatcher != nil {
		if err := s.VaultWatcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop Vault watcher")
		}
	}
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
	}
}
