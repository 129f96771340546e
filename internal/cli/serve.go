package cli

import (
	"context"
	"fmt"
	"time"

	"jobmatch/internal/config"
	"jobmatch/internal/observability"
	"jobmatch/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server exposing match analysis and the scraped job snapshot.

Available endpoints:
- GET  /: Service banner
- POST /analyze: Match a resume against a job URL or text
- POST /analyze-pdf: Same, with the resume uploaded as a PDF
- POST /upload-cv: Extract text from an uploaded PDF resume
- POST /scrape: Run a bulk scrape pass and replace the snapshot
- GET  /jobs: List jobs from the last scrape
- GET  /jobs/{id}: One job from the last scrape
- GET  /health: Health check endpoint
- GET  /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
}

// applyServeFlags copies explicitly set flags over the loaded configuration
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	overrides := map[string]*string{
		"port":      &cfg.Server.Port,
		"host":      &cfg.Server.Host,
		"tls-mode":  &cfg.Server.TLS.Mode,
		"cert-file": &cfg.Server.TLS.CertFile,
		"key-file":  &cfg.Server.TLS.KeyFile,
		"ca-file":   &cfg.Server.TLS.CAFile,
	}
	for name, target := range overrides {
		if cmd.Flags().Changed(name) {
			*target, _ = cmd.Flags().GetString(name)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	applyServeFlags(cmd, cfg)

	// Validate TLS configuration after applying overrides
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	telemetry, err := observability.NewManager(observability.FromConfig(cfg, Version), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.LogError(err, "Failed to shut down observability")
		}
	}()

	app, err := buildComponents(ctx, cfg, logger, telemetry)
	if err != nil {
		return err
	}
	defer app.close(logger)

	srv := server.NewServer(cfg, Version, server.Deps{
		Analyzer:  app.orchestrator,
		Store:     app.store,
		Model:     app.ai,
		Telemetry: telemetry,
	}, logger)
	return srv.Start(ctx)
}
