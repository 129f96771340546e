package types

import "time"

// MatchResult is the structured comparison of a resume against a job description
type MatchResult struct {
	Score         int      `json:"match_score" yaml:"match_score"`       // 0-100
	Strengths     []string `json:"strengths" yaml:"strengths"`           // Where the candidate fits
	MissingSkills []string `json:"missing_skills" yaml:"missing_skills"` // Gaps against the job description
	Summary       string   `json:"summary" yaml:"summary"`

	// Set only on fallback results
	RawResponse string `json:"raw_response,omitempty" yaml:"raw_response,omitempty"` // Unparsed model output
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`               // Upstream failure
}

// IsFallback reports whether the result was synthesized after a model or parse failure
func (m MatchResult) IsFallback() bool {
	return m.RawResponse != "" || m.Error != ""
}

// AnalyzeRequest is the body of POST /analyze
type AnalyzeRequest struct {
	JDText string `json:"jd_text"` // URL or literal job description
	CVText string `json:"cv_text"`
}

// UploadCVResponse is returned by POST /upload-cv
type UploadCVResponse struct {
	Filename   string `json:"filename"`
	Text       string `json:"text"`
	Characters int    `json:"characters"`
}

// ScrapeRequest is the body of POST /scrape. Empty fields fall back to configuration.
type ScrapeRequest struct {
	URLs   []string `json:"urls,omitempty"`
	CVText string   `json:"cv_text,omitempty"`
}

// JobEntry is one analyzed job posting in the snapshot
type JobEntry struct {
	ID              string    `json:"id" yaml:"id"`
	URL             string    `json:"url" yaml:"url"`
	Title           string    `json:"title" yaml:"title"`
	Company         string    `json:"company" yaml:"company"`
	Location        string    `json:"location" yaml:"location"`
	Salary          string    `json:"salary" yaml:"salary"`
	MatchScore      int       `json:"matchScore" yaml:"matchScore"`
	WhyMatch        []string  `json:"whyMatch" yaml:"whyMatch"`
	MissingKeywords []string  `json:"missingKeywords" yaml:"missingKeywords"`
	Summary         string    `json:"summary" yaml:"summary"`
	Description     string    `json:"description" yaml:"description"`
	Posted          string    `json:"posted" yaml:"posted"`
	AnalyzedAt      time.Time `json:"analyzedAt" yaml:"analyzedAt"`
	Error           string    `json:"error,omitempty" yaml:"error,omitempty"` // Set when the page could not be fetched
}

// Snapshot is the persisted result of the last bulk scrape
type Snapshot struct {
	Jobs        []JobEntry `json:"jobs" yaml:"jobs"`
	LastUpdated time.Time  `json:"last_updated" yaml:"last_updated"`
	TotalJobs   int        `json:"total_jobs" yaml:"total_jobs"`
}

// ErrorResponse represents an API error body
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
