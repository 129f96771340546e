package cli

import (
	"context"

	"jobmatch/internal/common"
	"jobmatch/internal/snapshot"
	"jobmatch/internal/types"

	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Print the jobs from the last scrape",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if jobsConfig.OutputFormat == "" {
			jobsConfig.OutputFormat = "text"
		}
		return common.ValidateOutputFormat(jobsConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runJobs,
}

var jobsConfig common.CommandConfig

func init() {
	jobsCmd.Flags().StringVarP(&jobsConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	jobsCmd.Flags().StringVar(&jobsConfig.OutputFormat, "format", "", "Output format: json, yaml, text or markdown")
	_ = jobsCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

func runJobs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	store := snapshot.NewFileStore(cfg.Snapshot.Path, cfg.Snapshot.LockTimeout, logger)
	return common.RunCommand(ctx, logger, jobsConfig, cmd.OutOrStdout(), "jobs",
		func(ctx context.Context) (types.Snapshot, error) {
			return store.Load(ctx)
		})
}
