package cli

import (
	"context"

	"jobmatch/internal/common"
	"jobmatch/internal/errors"
	"jobmatch/internal/types"

	"github.com/spf13/cobra"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Analyze a list of job URLs and save the snapshot",
	Long: `Fetch and analyze every job URL in order, then atomically replace the
snapshot file. URLs come from --urls-file (one per line, # starts a comment)
or scrape.urls in the configuration; the resume from --cv or
scrape.resumeFile.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if scrapeConfig.OutputFormat == "" {
			scrapeConfig.OutputFormat = "text"
		}
		return common.ValidateOutputFormat(scrapeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runScrape,
}

var (
	scrapeConfig   common.CommandConfig
	scrapeURLsFile string
	scrapeCV       string
)

func init() {
	scrapeCmd.Flags().StringVar(&scrapeURLsFile, "urls-file", "", "File with one job URL per line (default: scrape.urls)")
	scrapeCmd.Flags().StringVar(&scrapeCV, "cv", "", "Resume file (default: scrape.resumeFile)")
	scrapeCmd.Flags().StringVarP(&scrapeConfig.OutputFile, "output", "o", "", "Also write the result to this file")
	scrapeCmd.Flags().StringVar(&scrapeConfig.OutputFormat, "format", "", "Output format: json, yaml, text or markdown")
	_ = scrapeCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)
	files := common.NewFileProcessor(logger, cfg.App.MaxFileSize)

	urls := cfg.Scrape.URLs
	if scrapeURLsFile != "" {
		lines, err := files.ReadLines(scrapeURLsFile)
		if err != nil {
			return err
		}
		urls = lines
	}

	cvFile := scrapeCV
	if cvFile == "" {
		cvFile = cfg.Scrape.ResumeFile
	}
	if len(urls) == 0 || cvFile == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"job URLs and a resume are required (use --urls-file and --cv, or scrape.urls and scrape.resumeFile)", nil)
	}
	resume, err := files.ReadResume(cvFile)
	if err != nil {
		return err
	}

	app, err := buildComponents(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer app.close(logger)

	logger.Info("Starting scrape pass", "urls", len(urls), "snapshot", app.store.Path())

	return common.RunCommand(ctx, logger, scrapeConfig, cmd.OutOrStdout(), "scrape",
		func(ctx context.Context) (types.Snapshot, error) {
			return app.orchestrator.ScrapeAll(ctx, urls, resume)
		})
}
