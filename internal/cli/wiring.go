package cli

import (
	"context"
	"fmt"

	"jobmatch/internal/ai"
	"jobmatch/internal/config"
	"jobmatch/internal/errors"
	"jobmatch/internal/fetcher"
	"jobmatch/internal/observability"
	"jobmatch/internal/orchestrator"
	"jobmatch/internal/snapshot"
)

// components are the long-lived collaborators shared by the commands
type components struct {
	ai           *ai.Service
	fetcher      *fetcher.Fetcher
	store        *snapshot.FileStore
	orchestrator *orchestrator.Service
	closers      []func() error
}

// buildComponents wires the AI service, fetcher, snapshot store and orchestrator.
// telemetry is nil outside the serve command.
func buildComponents(ctx context.Context, cfg *config.Config, logger *errors.Logger, telemetry *observability.Manager) (*components, error) {
	var aiMetrics ai.MetricsRecorder
	if telemetry != nil {
		aiMetrics = telemetry
	}
	aiService, err := ai.NewService(ctx, cfg.AI, aiMetrics, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI service: %w", err)
	}

	c := &components{ai: aiService}
	c.fetcher = newFetcher(cfg, logger, telemetry)

	store, err := c.newStore(ctx, cfg, logger, telemetry)
	if err != nil {
		c.close(logger)
		return nil, err
	}
	c.store = store

	c.orchestrator = orchestrator.NewService(c.fetcher, aiService.Analyzer, store, cfg.Snapshot.DescriptionChars, logger)
	return c, nil
}

func newFetcher(cfg *config.Config, logger *errors.Logger, telemetry *observability.Manager) *fetcher.Fetcher {
	f := fetcher.NewFromConfig(cfg.Fetcher, logger)
	if telemetry != nil {
		f.WithMetrics(telemetry)
	}
	return f
}

// newStore opens the snapshot file store with its optional S3 and AMQP publishers
func (c *components) newStore(ctx context.Context, cfg *config.Config, logger *errors.Logger, telemetry *observability.Manager) (*snapshot.FileStore, error) {
	store := snapshot.NewFileStore(cfg.Snapshot.Path, cfg.Snapshot.LockTimeout, logger)
	if telemetry != nil {
		store.WithMetrics(telemetry)
	}

	var publishers []snapshot.Publisher
	if cfg.Snapshot.S3.Enabled {
		mirror, err := snapshot.NewS3Mirror(ctx, cfg.Snapshot.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 snapshot mirror: %w", err)
		}
		publishers = append(publishers, mirror)
	}
	if cfg.Snapshot.AMQP.Enabled {
		notifier, err := snapshot.NewAMQPNotifier(cfg.Snapshot.AMQP)
		if err != nil {
			return nil, fmt.Errorf("failed to connect snapshot notifier: %w", err)
		}
		publishers = append(publishers, notifier)
		c.closers = append(c.closers, notifier.Close)
	}
	return store.WithPublishers(publishers...), nil
}

func (c *components) close(logger *errors.Logger) {
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			logger.LogError(err, "Failed to close component")
		}
	}
}
