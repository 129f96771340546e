package ai

import (
	"context"
	"time"
)

// ModelClient sends one prompt to a language model and returns its raw text
type ModelClient interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// MetricsRecorder receives analysis outcomes and token usage
type MetricsRecorder interface {
	TrackAnalysis(ctx context.Context, outcome string, duration time.Duration)
	TrackTokenUsage(ctx context.Context, model string, usage TokenUsage)
}

// Analysis outcomes reported to MetricsRecorder
const (
	OutcomeOK           = "ok"
	OutcomeParseFailure = "parse_failure"
	OutcomeModelFailure = "model_failure"
)

// TokenUsage represents token usage information from model responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the configured model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
