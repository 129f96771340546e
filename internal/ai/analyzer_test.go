package ai

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"jobmatch/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct {
	response string
	err      error
	prompts  []string
}

func (s *stubModel) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

type stubMetrics struct {
	outcomes []string
}

func (m *stubMetrics) TrackAnalysis(_ context.Context, outcome string, _ time.Duration) {
	m.outcomes = append(m.outcomes, outcome)
}

func (m *stubMetrics) TrackTokenUsage(context.Context, string, TokenUsage) {}

func TestAnalyzeValidResponse(t *testing.T) {
	model := &stubModel{response: `{"match_score": 72, "strengths": ["Go", "Postgres"], "missing_skills": ["Kubernetes"], "summary": "Strong backend fit"}`}
	metrics := &stubMetrics{}

	result := NewAnalyzer(model, "", nil).WithMetrics(metrics).
		Analyze(context.Background(), "I have 6 years of Go", "We need a backend engineer with 5 years Go experience")

	assert.Equal(t, 72, result.Score)
	assert.Equal(t, []string{"Go", "Postgres"}, result.Strengths)
	assert.Equal(t, []string{"Kubernetes"}, result.MissingSkills)
	assert.Equal(t, "Strong backend fit", result.Summary)
	assert.Empty(t, result.RawResponse)
	assert.Empty(t, result.Error)
	assert.Equal(t, []string{OutcomeOK}, metrics.outcomes)

	require.Len(t, model.prompts, 1, "exactly one model call")
	assert.Contains(t, model.prompts[0], "CV: I have 6 years of Go")
	assert.Contains(t, model.prompts[0], "JD: We need a backend engineer with 5 years Go experience")
}

func TestAnalyzeUnparseableResponse(t *testing.T) {
	model := &stubModel{response: "not json"}
	metrics := &stubMetrics{}

	result := NewAnalyzer(model, "", errors.NopLogger()).WithMetrics(metrics).
		Analyze(context.Background(), "cv", "jd")

	assert.Equal(t, 0, result.Score)
	assert.Empty(t, result.Strengths)
	assert.NotNil(t, result.Strengths)
	assert.Equal(t, []string{ParseFailureSkill}, result.MissingSkills)
	assert.Equal(t, ParseFailureSummary, result.Summary)
	assert.Equal(t, "not json", result.RawResponse)
	assert.True(t, result.IsFallback())
	assert.Equal(t, []string{OutcomeParseFailure}, metrics.outcomes)
	assert.Len(t, model.prompts, 1, "parse failures are not retried")
}

func TestAnalyzeOutOfRangeScoreFallsBack(t *testing.T) {
	model := &stubModel{response: `{"match_score": 150, "strengths": [], "missing_skills": [], "summary": "x"}`}

	result := NewAnalyzer(model, "", nil).Analyze(context.Background(), "cv", "jd")

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, ParseFailureSummary, result.Summary)
	assert.Equal(t, model.response, result.RawResponse)
}

func TestAnalyzeFencedResponse(t *testing.T) {
	model := &stubModel{response: "```json\n{\"match_score\": 88, \"strengths\": [\"Go\"], \"missing_skills\": [], \"summary\": \"fit\"}\n```"}

	result := NewAnalyzer(model, "", nil).Analyze(context.Background(), "cv", "jd")

	assert.Equal(t, 88, result.Score)
	assert.False(t, result.IsFallback())
}

func TestAnalyzeModelFailure(t *testing.T) {
	model := &stubModel{err: stderrors.New("503 service unavailable")}
	metrics := &stubMetrics{}

	result := NewAnalyzer(model, "", nil).WithMetrics(metrics).Analyze(context.Background(), "cv", "jd")

	assert.Equal(t, 0, result.Score)
	assert.Empty(t, result.Strengths)
	assert.NotNil(t, result.Strengths)
	assert.Equal(t, []string{ModelFailureSkill}, result.MissingSkills)
	assert.Equal(t, ModelFailureSummary, result.Summary)
	assert.Equal(t, "503 service unavailable", result.Error)
	assert.Empty(t, result.RawResponse)
	assert.Equal(t, []string{OutcomeModelFailure}, metrics.outcomes)
	assert.Len(t, model.prompts, 1, "model failures are not retried")
}

func TestAnalyzeCustomTemplate(t *testing.T) {
	model := &stubModel{response: `{"match_score": 5}`}

	NewAnalyzer(model, "Rate {{CV}} against {{JD}} as JSON", nil).Analyze(context.Background(), "resume", "job")

	require.Len(t, model.prompts, 1)
	assert.Equal(t, "Rate resume against job as JSON", model.prompts[0])
	assert.False(t, strings.Contains(model.prompts[0], "Senior Technical Recruiter"))
}
