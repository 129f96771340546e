package ai

import (
	"context"
	"fmt"

	"jobmatch/internal/config"
	"jobmatch/internal/errors"
)

// Service bundles the configured model client with the analyzer built on it
type Service struct {
	Analyzer *Analyzer
	client   *GeminiClient
	logger   *errors.Logger
}

// NewService builds the model client once from configuration
func NewService(ctx context.Context, cfg config.AIConfig, metrics MetricsRecorder, logger *errors.Logger) (*Service, error) {
	if logger == nil {
		logger = errors.NopLogger()
	}
	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"timeout", cfg.Timeout,
		"circuit_breaker", cfg.CircuitBreaker.Enabled)

	if cfg.Provider != "gemini" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}

	client, err := NewGeminiClient(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	analyzer := NewAnalyzer(client, cfg.Prompt, logger)
	if metrics != nil {
		client.WithMetrics(metrics)
		analyzer.WithMetrics(metrics)
	}

	return &Service{Analyzer: analyzer, client: client, logger: logger}, nil
}

// GetModelInfo returns model availability for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.client.ModelInfo(ctx)
}

// CircuitBreakerStats returns the model breaker state
func (s *Service) CircuitBreakerStats() map[string]any {
	return s.client.BreakerStats()
}
