package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponseOK(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantScore int
	}{
		{"plain object", `{"match_score": 72, "strengths": ["Go"], "missing_skills": ["Kafka"], "summary": "Good fit"}`, 72},
		{"json fence", "```json\n{\"match_score\": 55, \"strengths\": [], \"missing_skills\": [], \"summary\": \"ok\"}\n```", 55},
		{"bare fence", "```\n{\"match_score\": 0, \"strengths\": [], \"missing_skills\": [], \"summary\": \"no\"}\n```", 0},
		{"upper bound", `{"match_score": 100, "summary": "perfect"}`, 100},
		{"surrounding whitespace", "\n\n  {\"match_score\": 10}  \n", 10},
		{"whole number written as float", `{"match_score": 72.0, "summary": "ok"}`, 72},
		{"exponent notation", `{"match_score": 1e2}`, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, isOK := ParseResponse(tt.raw).(ParseOK)
			require.True(t, isOK, "expected ParseOK for %q", tt.raw)
			assert.Equal(t, tt.wantScore, ok.Result.Score)
			assert.NotNil(t, ok.Result.Strengths)
			assert.NotNil(t, ok.Result.MissingSkills)
			assert.False(t, ok.Result.IsFallback())
		})
	}
}

func TestParseResponseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "not json"},
		{"empty", ""},
		{"array", `[{"match_score": 50}]`},
		{"missing score", `{"strengths": ["Go"], "summary": "x"}`},
		{"score above range", `{"match_score": 101}`},
		{"negative score", `{"match_score": -1}`},
		{"fractional score", `{"match_score": 72.5}`},
		{"string score", `{"match_score": "72"}`},
		{"trailing text", `{"match_score": 72} and some commentary`},
		{"null", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parseErr, isErr := ParseResponse(tt.raw).(*ParseError)
			require.True(t, isErr, "expected ParseError for %q", tt.raw)
			assert.Equal(t, tt.raw, parseErr.Raw)
			assert.Error(t, parseErr.Cause)
			assert.Contains(t, parseErr.Error(), "malformed model output")
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`  {"a":1} `))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```{\"a\":1}```"))
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("", "Go developer", "Backend role")
	assert.Contains(t, prompt, "Senior Technical Recruiter")
	assert.Contains(t, prompt, "CV: Go developer\nJD: Backend role")

	custom := BuildPrompt("resume={{CV}} job={{JD}}", "mentions {{JD}}", "job text")
	assert.Equal(t, "resume=mentions {{JD}} job=job text", custom)
}
