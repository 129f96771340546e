package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"jobmatch/internal/config"
	"jobmatch/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const modelCheckTimeout = 10 * time.Second

// GeminiClient implements ModelClient on the Gemini API
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature *float32
	timeout     time.Duration
	breaker     *CircuitBreaker
	metrics     MetricsRecorder
	logger      *errors.Logger
}

var _ ModelClient = (*GeminiClient)(nil)

// NewGeminiClient creates the client once at startup
func NewGeminiClient(ctx context.Context, cfg config.AIConfig, logger *errors.Logger) (*GeminiClient, error) {
	if logger == nil {
		logger = errors.NopLogger()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to create Gemini client", err)
	}

	return &GeminiClient{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		breaker:     NewCircuitBreaker("gemini-"+cfg.Model, cfg.CircuitBreaker, logger),
		logger:      logger,
	}, nil
}

// WithMetrics attaches a token usage recorder and returns the client
func (g *GeminiClient) WithMetrics(m MetricsRecorder) *GeminiClient {
	g.metrics = m
	return g
}

// GenerateContent sends the prompt with a JSON response schema and returns the raw text
func (g *GeminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	ctx, span := otel.Tracer("jobmatch.ai.gemini").Start(ctx, "gemini.generate_content")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.model),
		attribute.Int("ai.prompt_length", len(prompt)),
	)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	text, err := g.breaker.Execute(func() (string, error) {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.generateConfig())
		if err != nil {
			return "", err
		}
		g.recordUsage(ctx, resp)
		return resp.Text(), nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate content failed")
		code := errors.ErrCodeAIServiceFailed
		if stderrors.Is(err, context.DeadlineExceeded) {
			code = errors.ErrCodeAITimeout
		}
		return "", errors.NewAIError(code, "Gemini request failed", err).
			WithContext("model", g.model).
			WithContext("upstream_unavailable", isUpstreamUnavailable(err))
	}

	span.SetAttributes(attribute.Int("ai.response_length", len(text)))
	return text, nil
}

func (g *GeminiClient) generateConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   matchResultSchema(),
	}
	if g.temperature != nil {
		cfg.Temperature = g.temperature
	}
	return cfg
}

// matchResultSchema mirrors types.MatchResult's wire names
func matchResultSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"match_score": {Type: genai.TypeInteger},
			"strengths": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"missing_skills": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"summary": {Type: genai.TypeString},
		},
		Required: []string{"match_score", "strengths", "missing_skills", "summary"},
	}
}

func (g *GeminiClient) recordUsage(ctx context.Context, resp *genai.GenerateContentResponse) {
	usage := extractTokenUsage(resp)
	if usage == nil {
		return
	}
	g.logger.Debug("Gemini token usage",
		"model", g.model,
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
		"total_tokens", usage.TotalTokens)
	if g.metrics != nil {
		g.metrics.TrackTokenUsage(ctx, g.model, *usage)
	}
}

func extractTokenUsage(resp *genai.GenerateContentResponse) *TokenUsage {
	if resp == nil || resp.UsageMetadata == nil {
		return nil
	}
	usage := resp.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

// ModelInfo checks that the configured model is reachable
func (g *GeminiClient) ModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{Name: g.model}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.client.Models.Get(checkCtx, g.model, &genai.GetModelConfig{})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed", "model", g.model, "error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = model.DisplayName
	info.Version = model.Version
	return info
}

// BreakerStats exposes the circuit breaker state
func (g *GeminiClient) BreakerStats() map[string]any {
	stats := g.breaker.Stats()
	stats["healthy"] = g.breaker.IsHealthy()
	return stats
}

// isUpstreamUnavailable reports errors that reflect the remote service's health:
// network failures, timeouts, throttling and 5xx responses.
func isUpstreamUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if stderrors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		return isUnavailableStatus(apiErr.Code)
	}
	var genaiErr genai.APIError
	if stderrors.As(err, &genaiErr) {
		return isUnavailableStatus(genaiErr.Code)
	}

	return false
}

func isUnavailableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
