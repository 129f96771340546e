package ai

import (
	"context"
	"time"

	"jobmatch/internal/errors"
	"jobmatch/internal/types"
	"jobmatch/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Fallback texts
const (
	ParseFailureSkill   = "Unable to parse analysis response"
	ModelFailureSkill   = "Unable to complete analysis"
	ParseFailureSummary = "Analysis could not be completed: the model returned an unreadable response."
	ModelFailureSummary = "Analysis could not be completed: the model request failed."
)

// Analyzer compares a resume with a job description. It never fails:
// model and parse errors come back as fallback results.
type Analyzer struct {
	client   ModelClient
	template string
	metrics  MetricsRecorder
	logger   *errors.Logger
}

// NewAnalyzer creates an analyzer. An empty template selects DefaultPromptTemplate.
func NewAnalyzer(client ModelClient, template string, logger *errors.Logger) *Analyzer {
	if logger == nil {
		logger = errors.NopLogger()
	}
	if template == "" {
		template = DefaultPromptTemplate
	}
	return &Analyzer{client: client, template: template, logger: logger}
}

// WithMetrics attaches a recorder and returns the analyzer
func (a *Analyzer) WithMetrics(m MetricsRecorder) *Analyzer {
	a.metrics = m
	return a
}

// Analyze sends one prompt and returns the parsed result or a fallback
func (a *Analyzer) Analyze(ctx context.Context, resumeText, jobText string) types.MatchResult {
	ctx, span := otel.Tracer("jobmatch.ai").Start(ctx, "ai.analyze")
	defer span.End()
	span.SetAttributes(
		attribute.Int("input.resume_length", len(resumeText)),
		attribute.Int("input.job_length", len(jobText)),
	)

	start := time.Now()
	raw, err := a.client.GenerateContent(ctx, BuildPrompt(a.template, resumeText, jobText))
	if err != nil {
		a.logger.LogError(err, "Model request failed")
		a.track(ctx, OutcomeModelFailure, start)
		span.SetAttributes(attribute.String("analysis.outcome", OutcomeModelFailure))
		return modelFailure(err)
	}

	switch parsed := ParseResponse(raw).(type) {
	case ParseOK:
		a.track(ctx, OutcomeOK, start)
		span.SetAttributes(
			attribute.String("analysis.outcome", OutcomeOK),
			attribute.Int("analysis.score", parsed.Result.Score),
		)
		return parsed.Result
	case *ParseError:
		a.logger.LogError(errors.NewAIError(errors.ErrCodeMalformedModelOutput, "Could not parse model response", parsed.Cause),
			"Falling back to empty analysis",
			"raw_response", utils.TruncateForLog(parsed.Raw, 500))
		a.track(ctx, OutcomeParseFailure, start)
		span.SetAttributes(attribute.String("analysis.outcome", OutcomeParseFailure))
		return parseFailure(parsed.Raw)
	}

	// unreachable: ParseResponse returns one of the two variants
	return parseFailure(raw)
}

func (a *Analyzer) track(ctx context.Context, outcome string, start time.Time) {
	if a.metrics != nil {
		a.metrics.TrackAnalysis(ctx, outcome, time.Since(start))
	}
}

func parseFailure(raw string) types.MatchResult {
	return types.MatchResult{
		Score:         0,
		Strengths:     []string{},
		MissingSkills: []string{ParseFailureSkill},
		Summary:       ParseFailureSummary,
		RawResponse:   raw,
	}
}

func modelFailure(err error) types.MatchResult {
	return types.MatchResult{
		Score:         0,
		Strengths:     []string{},
		MissingSkills: []string{ModelFailureSkill},
		Summary:       ModelFailureSummary,
		Error:         err.Error(),
	}
}
