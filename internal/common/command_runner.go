package common

import (
	"context"
	"io"
	"time"

	"jobmatch/internal/errors"
)

// OperationFunc produces a command's result
type OperationFunc[Output any] func(context.Context) (Output, error)

// RunCommand checks the output target, runs op and writes its formatted result.
// The output path is validated first so a bad path fails before any network work.
func RunCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	stdout io.Writer,
	name string,
	op OperationFunc[Output],
) error {
	if logger == nil {
		logger = errors.NopLogger()
	}
	outputHandler := NewOutputHandler(logger)
	if stdout != nil {
		outputHandler.WithWriter(stdout)
	}

	if err := outputHandler.fileProcessor.ValidateOutputFile(cmdConfig.OutputFile); err != nil {
		return err
	}

	start := time.Now()
	result, err := op(ctx)
	if err != nil {
		return err
	}
	logger.Info("Command completed",
		"command", name,
		"duration", time.Since(start),
		"output_format", cmdConfig.OutputFormat)

	return outputHandler.HandleOutput(result, cmdConfig)
}
