// Package orchestrator decides between scraping and literal text, then runs the analysis.
package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"jobmatch/internal/errors"
	"jobmatch/internal/extract"
	"jobmatch/internal/snapshot"
	"jobmatch/internal/types"
	"jobmatch/internal/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/net/publicsuffix"
)

const (
	// FetchFailureMessage is returned when a job URL yields no text
	FetchFailureMessage = "failed to retrieve content"

	jobTextLogChars  = 1000
	titleMaxChars    = 200
	defaultDescChars = 2000
)

// Fetcher turns a URL into normalized text, "" on failure
type Fetcher interface {
	Fetch(ctx context.Context, url string) string
}

// Analyzer compares resume and job text
type Analyzer interface {
	Analyze(ctx context.Context, resumeText, jobText string) types.MatchResult
}

// Service runs single analyses and bulk scrape passes
type Service struct {
	fetcher          Fetcher
	analyzer         Analyzer
	store            snapshot.Store
	descriptionChars int
	logger           *errors.Logger
	newID            func() string
	now              func() time.Time
}

// NewService wires the collaborators. store may be nil when ScrapeAll is never used.
func NewService(fetcher Fetcher, analyzer Analyzer, store snapshot.Store, descriptionChars int, logger *errors.Logger) *Service {
	if logger == nil {
		logger = errors.NopLogger()
	}
	if descriptionChars <= 0 {
		descriptionChars = defaultDescChars
	}
	return &Service{
		fetcher:          fetcher,
		analyzer:         analyzer,
		store:            store,
		descriptionChars: descriptionChars,
		logger:           logger,
		newID:            uuid.NewString,
		now:              time.Now,
	}
}

// IsURL reports whether s, ignoring leading whitespace, starts with http:// or https://
func IsURL(s string) bool {
	s = strings.ToLower(strings.TrimLeft(s, " \t\r\n"))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// ResolveJobText fetches URL input or returns literal input unchanged
func (s *Service) ResolveJobText(ctx context.Context, jobInput string) (string, error) {
	if strings.TrimSpace(jobInput) == "" {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest, "job description is required", nil)
	}

	if !IsURL(jobInput) {
		return jobInput, nil
	}

	target := strings.TrimSpace(jobInput)
	text := s.fetcher.Fetch(ctx, target)
	if text == "" {
		return "", errors.NewFetchError(errors.ErrCodeFetchFailed, FetchFailureMessage, nil).
			WithContext("url", target)
	}
	return text, nil
}

// HandleAnalyze resolves the job input and compares it with the resume
func (s *Service) HandleAnalyze(ctx context.Context, jobInput, resumeText string) (types.MatchResult, error) {
	ctx, span := otel.Tracer("jobmatch.orchestrator").Start(ctx, "orchestrator.analyze")
	defer span.End()
	span.SetAttributes(attribute.Bool("input.is_url", IsURL(jobInput)))

	if strings.TrimSpace(resumeText) == "" {
		return types.MatchResult{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "resume text is required", nil)
	}

	jobText, err := s.ResolveJobText(ctx, jobInput)
	if err != nil {
		span.RecordError(err)
		return types.MatchResult{}, err
	}

	s.logger.Debug("Job description resolved",
		"chars", len(jobText),
		"preview", utils.TruncateRunes(jobText, jobTextLogChars))

	return s.analyzer.Analyze(ctx, resumeText, jobText), nil
}

// HandleAnalyzePDF extracts the resume from PDF bytes, then behaves like HandleAnalyze
func (s *Service) HandleAnalyzePDF(ctx context.Context, jobInput string, pdfData []byte) (types.MatchResult, error) {
	resumeText, err := extract.ExtractPDF(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return types.MatchResult{}, err
	}
	return s.HandleAnalyze(ctx, jobInput, resumeText)
}

// ScrapeAll analyzes each URL in order and saves the resulting snapshot. A URL
// that cannot be fetched becomes an entry with its error set. Cancellation stops
// the pass and nothing is written.
func (s *Service) ScrapeAll(ctx context.Context, urls []string, resumeText string) (types.Snapshot, error) {
	ctx, span := otel.Tracer("jobmatch.orchestrator").Start(ctx, "orchestrator.scrape_all")
	defer span.End()

	if strings.TrimSpace(resumeText) == "" {
		return types.Snapshot{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "resume text is required", nil)
	}
	targets := cleanURLs(urls)
	if len(targets) == 0 {
		return types.Snapshot{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "at least one job URL is required", nil)
	}
	if s.store == nil {
		return types.Snapshot{}, errors.NewInternalError(errors.ErrCodeSnapshotWrite, "no snapshot store configured", nil)
	}
	span.SetAttributes(attribute.Int("scrape.urls", len(targets)))

	snap := types.Snapshot{Jobs: make([]types.JobEntry, 0, len(targets))}
	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("Scrape pass cancelled", "completed", i, "total", len(targets))
			return types.Snapshot{}, err
		}
		s.logger.Info("Scraping job", "url", target, "index", i+1, "total", len(targets))
		snap.Jobs = append(snap.Jobs, s.scrapeOne(ctx, target, resumeText))
	}
	if err := ctx.Err(); err != nil {
		return types.Snapshot{}, err
	}

	if err := s.store.Save(ctx, &snap); err != nil {
		return types.Snapshot{}, err
	}
	return snap, nil
}

func (s *Service) scrapeOne(ctx context.Context, target, resumeText string) types.JobEntry {
	entry := types.JobEntry{
		ID:              s.newID(),
		URL:             target,
		Company:         companyFromURL(target),
		WhyMatch:        []string{},
		MissingKeywords: []string{},
		AnalyzedAt:      s.now().UTC(),
	}

	if !IsURL(target) {
		entry.Error = fmt.Sprintf("not an http(s) URL: %s", target)
		return entry
	}

	text := s.fetcher.Fetch(ctx, target)
	if text == "" {
		entry.Error = FetchFailureMessage
		s.logger.Warn("Skipping analysis for unreachable job", "url", target)
		return entry
	}

	result := s.analyzer.Analyze(ctx, resumeText, text)
	entry.Title = titleFromText(text)
	entry.Description = utils.TruncateRunes(text, s.descriptionChars)
	entry.MatchScore = result.Score
	entry.WhyMatch = result.Strengths
	entry.MissingKeywords = result.MissingSkills
	entry.Summary = result.Summary
	entry.Error = result.Error
	return entry
}

func cleanURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" && !strings.HasPrefix(u, "#") {
			out = append(out, u)
		}
	}
	return out
}

// companyFromURL returns the registrable domain (public suffix + 1) of the URL host
func companyFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

func titleFromText(text string) string {
	first, _, _ := strings.Cut(text, "\n")
	return utils.TruncateRunes(strings.TrimSpace(first), titleMaxChars)
}
