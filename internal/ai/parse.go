package ai

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"strings"

	"jobmatch/internal/types"
)

// ParseResult is either ParseOK or *ParseError
type ParseResult interface {
	parseResult()
}

// ParseOK carries a well-formed model answer
type ParseOK struct {
	Result types.MatchResult
}

// ParseError keeps the raw model text that could not be parsed
type ParseError struct {
	Raw   string
	Cause error
}

func (ParseOK) parseResult()     {}
func (*ParseError) parseResult() {}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed model output: %v", e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// wireResult distinguishes a missing score from a zero score
type wireResult struct {
	Score         *float64 `json:"match_score"`
	Strengths     []string `json:"strengths"`
	MissingSkills []string `json:"missing_skills"`
	Summary       string   `json:"summary"`
}

// ParseResponse strictly decodes a model answer. Surrounding markdown code
// fences are removed first; anything but a single JSON object with a
// match_score in 0..100 is a ParseError.
func ParseResponse(raw string) ParseResult {
	body := stripCodeFence(raw)
	if !strings.HasPrefix(body, "{") {
		return &ParseError{Raw: raw, Cause: stderrors.New("response is not a JSON object")}
	}

	var wire wireResult
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return &ParseError{Raw: raw, Cause: err}
	}
	if wire.Score == nil {
		return &ParseError{Raw: raw, Cause: stderrors.New("match_score is missing")}
	}
	score := *wire.Score
	if score != math.Trunc(score) {
		return &ParseError{Raw: raw, Cause: fmt.Errorf("match_score %v is not a whole number", score)}
	}
	if score < 0 || score > 100 {
		return &ParseError{Raw: raw, Cause: fmt.Errorf("match_score %v is outside 0..100", score)}
	}

	return ParseOK{Result: types.MatchResult{
		Score:         int(score),
		Strengths:     nonNil(wire.Strengths),
		MissingSkills: nonNil(wire.MissingSkills),
		Summary:       wire.Summary,
	}}
}

// stripCodeFence removes a leading ``` or ```json line and a trailing ```
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
