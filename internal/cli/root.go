package cli

import (
	"context"

	"jobmatch/internal/config"
	"jobmatch/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "jobmatch",
	Short: "Match your resume against job postings using AI",
	Long: `jobmatch fetches job descriptions (by URL or pasted text), compares them with
your resume using a language model and reports a match score, strengths,
missing skills and a short summary. It can also scrape a list of job URLs in
bulk and keep the results as a snapshot served over HTTP.`,
	SilenceUsage: true,
}

// Execute runs the CLI with cfg and logger available to every subcommand
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
