package common

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"jobmatch/internal/errors"
	"jobmatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveArgument(t *testing.T) {
	fp := NewFileProcessor(nil, 0)

	value, err := fp.ResolveArgument("https://example.com/job")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/job", value)

	path := filepath.Join(t.TempDir(), "jd.txt")
	require.NoError(t, os.WriteFile(path, []byte("Senior Go engineer"), 0600))
	value, err = fp.ResolveArgument("@" + path)
	require.NoError(t, err)
	assert.Equal(t, "Senior Go engineer", value)

	_, err = fp.ResolveArgument("@/does/not/exist.txt")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestReadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("https://a\n\n  https://b  \r\n"), 0600))

	lines, err := NewFileProcessor(nil, 0).ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a", "https://b"}, lines)
}

func TestReadFileSizeLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.txt")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0600))

	_, err := NewFileProcessor(nil, 5).ReadFile(path)
	assert.Error(t, err)
}

func TestRunCommandWritesFormattedOutput(t *testing.T) {
	var stdout bytes.Buffer
	result := types.MatchResult{Score: 64, Strengths: []string{}, MissingSkills: []string{}}

	err := RunCommand(context.Background(), nil, CommandConfig{OutputFormat: "json"}, &stdout, "analyze",
		func(context.Context) (types.MatchResult, error) { return result, nil })
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), `"match_score": 64`)
}

func TestRunCommandToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "result.md")

	err := RunCommand(context.Background(), nil, CommandConfig{OutputFile: out, OutputFormat: "markdown"}, nil, "analyze",
		func(context.Context) (types.MatchResult, error) { return types.MatchResult{Score: 10}, nil })
	require.NoError(t, err)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(content), "**Score:** 10/100")
}

func TestRunCommandPropagatesErrors(t *testing.T) {
	called := false
	err := RunCommand(context.Background(), nil, CommandConfig{OutputFormat: "json"}, &bytes.Buffer{}, "analyze",
		func(context.Context) (types.MatchResult, error) {
			called = true
			return types.MatchResult{}, fmt.Errorf("boom")
		})
	assert.EqualError(t, err, "boom")
	assert.True(t, called)

	err = RunCommand(context.Background(), nil, CommandConfig{OutputFormat: "xml"}, &bytes.Buffer{}, "analyze",
		func(context.Context) (types.MatchResult, error) { return types.MatchResult{}, nil })
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}
