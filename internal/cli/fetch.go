package cli

import (
	"fmt"
	"strings"

	"jobmatch/internal/errors"
	"jobmatch/internal/orchestrator"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Print the normalized text of a job posting",
	Long: `Fetch a page the same way analyze does (headless browser first, plain HTTP
as fallback) and print the normalized text. Useful for checking what the model
will see.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	url, err := fetchTarget(args[0])
	if err != nil {
		return err
	}

	text := newFetcher(cfg, logger, nil).Fetch(ctx, url)
	if text == "" {
		return errors.NewFetchError(errors.ErrCodeFetchFailed, orchestrator.FetchFailureMessage, nil).
			WithContext("url", url)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}

// fetchTarget trims the argument and requires an http(s) URL
func fetchTarget(arg string) (string, error) {
	url := strings.TrimSpace(arg)
	if !isURL(url) {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("not an http(s) URL: %s", url), nil)
	}
	return url, nil
}

func isURL(s string) bool {
	return orchestrator.IsURL(s)
}
