package cli

import (
	"context"

	"jobmatch/internal/common"
	"jobmatch/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Match a resume against one job description",
	Long: `Compare a resume with a job description and report a match score,
strengths, missing skills and a summary.

The job description can be a URL (fetched with a headless browser, falling
back to plain HTTP), literal text, or @file to read it from a file. The resume
can be a PDF, DOCX or plain text file.`,
	Example: `  jobmatch analyze --jd https://example.com/jobs/123 --cv resume.pdf
  jobmatch analyze --jd @posting.txt --cv resume.docx --format markdown -o match.md`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if analyzeConfig.OutputFormat == "" {
			analyzeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(analyzeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runAnalyze,
}

var (
	analyzeConfig common.CommandConfig
	analyzeJD     string
	analyzeCV     string
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeJD, "jd", "", "Job description: URL, literal text or @file")
	analyzeCmd.Flags().StringVar(&analyzeCV, "cv", "", "Resume file (pdf, docx or text)")
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, yaml, text or markdown")
	_ = analyzeCmd.MarkFlagRequired("jd")
	_ = analyzeCmd.MarkFlagRequired("cv")

	_ = analyzeCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	files := common.NewFileProcessor(logger, cfg.App.MaxFileSize)
	jobInput, err := files.ResolveArgument(analyzeJD)
	if err != nil {
		return err
	}
	resume, err := files.ReadResume(analyzeCV)
	if err != nil {
		return err
	}

	app, err := buildComponents(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer app.close(logger)

	logger.Info("Starting match analysis",
		"job_is_url", isURL(jobInput),
		"resume_chars", len([]rune(resume)),
		"output_format", analyzeConfig.OutputFormat)

	return common.RunCommand(ctx, logger, analyzeConfig, cmd.OutOrStdout(), "analyze",
		func(ctx context.Context) (types.MatchResult, error) {
			return app.orchestrator.HandleAnalyze(ctx, jobInput, resume)
		})
}

func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg := getConfigFromContext(cmd.Context())
	return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
}
