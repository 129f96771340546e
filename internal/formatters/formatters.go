package formatters

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"jobmatch/internal/types"

	"gopkg.in/yaml.v3"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// GlobalRegistry holds the default formatters
var GlobalRegistry = NewFormatterRegistry()

const (
	typeAny         = "any"
	typeMatchResult = "MatchResult"
	typeSnapshot    = "Snapshot"
)

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", typeAny, &JSONFormatter{})
	registry.RegisterFormatter("yaml", typeAny, &YAMLFormatter{})
	registry.RegisterFormatter("text", typeMatchResult, &MatchTextFormatter{})
	registry.RegisterFormatter("markdown", typeMatchResult, &MatchMarkdownFormatter{})
	registry.RegisterFormatter("text", typeSnapshot, &SnapshotTextFormatter{})
	registry.RegisterFormatter("markdown", typeSnapshot, &SnapshotMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the most specific formatter registered for format
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters[typeAny]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.MatchResult, *types.MatchResult:
		return typeMatchResult
	case types.Snapshot, *types.Snapshot:
		return typeSnapshot
	default:
		return typeAny
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return typeAny
}

// YAMLFormatter handles YAML formatting for any data type
type YAMLFormatter struct{}

func (yf *YAMLFormatter) Format(data any) (string, error) {
	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (yf *YAMLFormatter) SupportedType() string {
	return typeAny
}

func asMatchResult(data any) (types.MatchResult, error) {
	switch v := data.(type) {
	case types.MatchResult:
		return v, nil
	case *types.MatchResult:
		return *v, nil
	default:
		return types.MatchResult{}, fmt.Errorf("expected MatchResult, got %T", data)
	}
}

func asSnapshot(data any) (types.Snapshot, error) {
	switch v := data.(type) {
	case types.Snapshot:
		return v, nil
	case *types.Snapshot:
		return *v, nil
	default:
		return types.Snapshot{}, fmt.Errorf("expected Snapshot, got %T", data)
	}
}

// MatchTextFormatter handles text formatting for match results
type MatchTextFormatter struct{}

func (mtf *MatchTextFormatter) Format(data any) (string, error) {
	result, err := asMatchResult(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("=== MATCH ANALYSIS ===\n")
	fmt.Fprintf(&output, "Score: %d/100\n\n", result.Score)

	output.WriteString("Strengths:\n")
	writeList(&output, result.Strengths, "  - ")
	output.WriteString("\n")

	output.WriteString("Missing Skills:\n")
	writeList(&output, result.MissingSkills, "  - ")
	output.WriteString("\n")

	output.WriteString("Summary:\n")
	output.WriteString(result.Summary)
	output.WriteString("\n")

	if result.Error != "" {
		fmt.Fprintf(&output, "\nError: %s\n", result.Error)
	}
	if result.RawResponse != "" {
		output.WriteString("\n=== RAW MODEL RESPONSE ===\n")
		output.WriteString(result.RawResponse)
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (mtf *MatchTextFormatter) SupportedType() string {
	return typeMatchResult
}

// MatchMarkdownFormatter handles markdown formatting for match results
type MatchMarkdownFormatter struct{}

func (mmf *MatchMarkdownFormatter) Format(data any) (string, error) {
	result, err := asMatchResult(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("# Match Analysis\n\n")
	fmt.Fprintf(&output, "**Score:** %d/100\n\n", result.Score)

	output.WriteString("## Strengths\n\n")
	writeList(&output, result.Strengths, "- ")
	output.WriteString("\n")

	output.WriteString("## Missing Skills\n\n")
	writeList(&output, result.MissingSkills, "- ")
	output.WriteString("\n")

	output.WriteString("## Summary\n\n")
	output.WriteString(result.Summary)
	output.WriteString("\n")

	if result.Error != "" {
		fmt.Fprintf(&output, "\n> **Error:** %s\n", result.Error)
	}
	if result.RawResponse != "" {
		output.WriteString("\n## Raw Model Response\n\n```\n")
		output.WriteString(result.RawResponse)
		output.WriteString("\n```\n")
	}

	return output.String(), nil
}

func (mmf *MatchMarkdownFormatter) SupportedType() string {
	return typeMatchResult
}

// SnapshotTextFormatter lists scraped jobs, one block per job
type SnapshotTextFormatter struct{}

func (stf *SnapshotTextFormatter) Format(data any) (string, error) {
	snap, err := asSnapshot(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	fmt.Fprintf(&output, "=== JOBS (%d) ===\n", len(snap.Jobs))
	if !snap.LastUpdated.IsZero() {
		fmt.Fprintf(&output, "Last updated: %s\n", snap.LastUpdated.Format(time.RFC3339))
	}

	for _, job := range snap.Jobs {
		output.WriteString("\n")
		fmt.Fprintf(&output, "[%d] %s\n", job.MatchScore, orDash(job.Title))
		fmt.Fprintf(&output, "    ID:      %s\n", job.ID)
		fmt.Fprintf(&output, "    Company: %s\n", orDash(job.Company))
		fmt.Fprintf(&output, "    URL:     %s\n", job.URL)
		if job.Error != "" {
			fmt.Fprintf(&output, "    Error:   %s\n", job.Error)
		}
		if len(job.MissingKeywords) > 0 {
			fmt.Fprintf(&output, "    Missing: %s\n", strings.Join(job.MissingKeywords, ", "))
		}
	}

	return output.String(), nil
}

func (stf *SnapshotTextFormatter) SupportedType() string {
	return typeSnapshot
}

// SnapshotMarkdownFormatter renders the snapshot as a table
type SnapshotMarkdownFormatter struct{}

func (smf *SnapshotMarkdownFormatter) Format(data any) (string, error) {
	snap, err := asSnapshot(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	output.WriteString("# Jobs\n\n")
	if !snap.LastUpdated.IsZero() {
		fmt.Fprintf(&output, "_Last updated %s, %d jobs_\n\n", snap.LastUpdated.Format(time.RFC3339), len(snap.Jobs))
	}
	if len(snap.Jobs) == 0 {
		output.WriteString("No jobs have been scraped yet.\n")
		return output.String(), nil
	}

	output.WriteString("| Score | Title | Company | Missing | Link |\n")
	output.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, job := range snap.Jobs {
		title := orDash(job.Title)
		if job.Error != "" {
			title = "_" + job.Error + "_"
		}
		fmt.Fprintf(&output, "| %d | %s | %s | %s | [link](%s) |\n",
			job.MatchScore,
			escapeCell(title),
			escapeCell(orDash(job.Company)),
			escapeCell(strings.Join(job.MissingKeywords, ", ")),
			job.URL)
	}

	return output.String(), nil
}

func (smf *SnapshotMarkdownFormatter) SupportedType() string {
	return typeSnapshot
}

func writeList(sb *strings.Builder, items []string, bullet string) {
	if len(items) == 0 {
		sb.WriteString(bullet + "(none)\n")
		return
	}
	for _, item := range items {
		sb.WriteString(bullet + item + "\n")
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
