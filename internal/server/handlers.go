package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"jobmatch/internal/errors"
	"jobmatch/internal/extract"
	"jobmatch/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	multipartMemory   = 8 << 20
	defaultUploadSize = 10 << 20
)

var tracer = otel.Tracer("jobmatch.api")

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "jobmatch API"})
}

// analyzeHandler compares a JSON resume with a job URL or pasted description
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "api.analyze")
	defer span.End()

	var req types.AnalyzeRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, err)
		return
	}
	span.SetAttributes(
		attribute.Int("request.resume_length", len(req.CVText)),
		attribute.Int("request.job_length", len(req.JDText)),
	)

	result, err := s.analyzer.HandleAnalyze(ctx, req.JDText, req.CVText)
	if err != nil {
		s.fail(w, span, err)
		return
	}

	recordResult(span, result)
	writeJSON(w, http.StatusOK, result)
}

// analyzePDFHandler takes jd_text plus a PDF resume as multipart form data
func (s *Server) analyzePDFHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "api.analyze_pdf")
	defer span.End()

	data, filename, err := s.readPDFUpload(r, "cv_file")
	if err != nil {
		s.fail(w, span, err)
		return
	}
	span.SetAttributes(attribute.String("upload.filename", filename), attribute.Int("upload.bytes", len(data)))

	result, err := s.analyzer.HandleAnalyzePDF(ctx, r.FormValue("jd_text"), data)
	if err != nil {
		s.fail(w, span, err)
		return
	}

	recordResult(span, result)
	writeJSON(w, http.StatusOK, result)
}

// uploadCVHandler returns the text of an uploaded PDF resume
func (s *Server) uploadCVHandler(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "api.upload_cv")
	defer span.End()

	data, filename, err := s.readPDFUpload(r, "file")
	if err != nil {
		s.fail(w, span, err)
		return
	}

	text, err := extract.ExtractPDF(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		s.fail(w, span, err)
		return
	}

	writeJSON(w, http.StatusOK, types.UploadCVResponse{
		Filename:   filename,
		Text:       text,
		Characters: len([]rune(text)),
	})
}

// jobsHandler lists the jobs of the last saved snapshot
func (s *Server) jobsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "api.jobs")
	defer span.End()

	if s.store == nil {
		writeJSON(w, http.StatusOK, []types.JobEntry{})
		return
	}
	snap, err := s.store.Load(ctx)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	jobs := snap.Jobs
	if jobs == nil {
		jobs = []types.JobEntry{}
	}
	span.SetAttributes(attribute.Int("jobs.count", len(jobs)))
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) jobHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "api.job")
	defer span.End()

	id := r.PathValue("id")
	if s.store == nil {
		s.fail(w, span, errors.NewNotFoundError(errors.ErrCodeJobNotFound, fmt.Sprintf("job %s not found", id), nil))
		return
	}
	job, err := s.store.Job(ctx, id)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// scrapeHandler runs a bulk pass. Missing URLs or resume fall back to configuration.
func (s *Server) scrapeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "api.scrape")
	defer span.End()

	var req types.ScrapeRequest
	if r.ContentLength != 0 {
		if err := parseJSONRequest(r, &req); err != nil {
			s.fail(w, span, err)
			return
		}
	}

	urls := req.URLs
	if len(urls) == 0 {
		urls = s.AppConfig.Scrape.URLs
	}
	resume, err := s.scrapeResume(req.CVText)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	if len(urls) == 0 || resume == "" {
		s.fail(w, span, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"urls and cv_text are required when scrape.urls or scrape.resumeFile are not configured", nil))
		return
	}
	span.SetAttributes(attribute.Int("scrape.urls", len(urls)))

	snap, err := s.analyzer.ScrapeAll(ctx, urls, resume)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) scrapeResume(fromRequest string) (string, error) {
	if strings.TrimSpace(fromRequest) != "" {
		return fromRequest, nil
	}
	if s.AppConfig.Scrape.ResumeFile == "" {
		return "", nil
	}
	return extract.FromFile(s.AppConfig.Scrape.ResumeFile, s.AppConfig.App.MaxFileSize)
}

// readPDFUpload checks the part's filename before reading its content
func (s *Server) readPDFUpload(r *http.Request, field string) ([]byte, string, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, "", requestBodyError(err, "invalid multipart form")
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("multipart field %q is required", field), err)
	}
	defer func() { _ = file.Close() }()

	if !extract.IsPDFFilename(header.Filename) {
		return nil, header.Filename, errors.NewValidationError(errors.ErrCodeUnsupportedFileType,
			"only PDF files are supported", nil).WithContext("filename", header.Filename)
	}

	limit := s.AppConfig.App.MaxFileSize
	if limit <= 0 {
		limit = defaultUploadSize
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, header.Filename, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read upload", err)
	}
	if int64(len(data)) > limit {
		return nil, header.Filename, errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("file exceeds %d bytes", limit), nil)
	}
	return data, header.Filename, nil
}

// healthHandler reports model availability, breaker state and certificate status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "jobmatch",
		"version": s.Version,
	}
	healthy := true

	if s.model != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.healthCheckTimeout())
		defer cancel()

		info := s.model.GetModelInfo(ctx)
		response["ai_model"] = info
		if info != nil && !info.Available {
			healthy = false
		}
		response["circuit_breaker"] = s.model.CircuitBreakerStats()
	}

	if s.CertificateManager != nil {
		certStatus := s.CertificateManager.Status()
		response["certificates"] = certStatus
		if ok, _ := certStatus["healthy"].(bool); !ok {
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

func (s *Server) healthCheckTimeout() time.Duration {
	if t := s.AppConfig.Observability.HealthCheck.AIModelCheckTimeout; t > 0 {
		return t
	}
	return 10 * time.Second
}

// statsHandler exposes breaker, rate limiter and auth configuration
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "jobmatch",
		"version": s.Version,
		"auth": map[string]any{
			"enabled":   s.APIKeys.Len() > 0,
			"key_count": s.APIKeys.Len(),
		},
	}

	if s.model != nil {
		response["circuit_breaker"] = s.model.CircuitBreakerStats()
	}

	if s.RateLimiter != nil {
		stats := s.RateLimiter.GetStats()
		stats["enabled"] = true
		stats["by_ip"] = s.RateLimit.ByIP
		stats["by_api_key"] = s.RateLimit.ByAPIKey
		response["rate_limiting"] = stats
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.VaultWatcher != nil {
		response["vault_watcher"] = s.VaultWatcher.Status()
	}

	writeJSON(w, http.StatusOK, response)
}

// fail records err on the span and writes the matching error body
func (s *Server) fail(w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)

	status := errors.HTTPStatus(err)
	kind := string(errors.ErrorTypeInternal)
	message := err.Error()
	if appErr, ok := errors.AsAppError(err); ok {
		kind = string(appErr.Type)
		message = appErr.Message
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		kind = "cancelled"
		status = http.StatusServiceUnavailable
	}
	span.SetAttributes(attribute.String("error.type", kind))

	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed")
	} else {
		s.Logger.Debug("Request rejected", "error", err.Error(), "status", status)
	}
	writeErrorResponse(w, kind, message, status)
}

func recordResult(span trace.Span, result types.MatchResult) {
	span.SetAttributes(
		attribute.Int("result.score", result.Score),
		attribute.Bool("result.fallback", result.IsFallback()),
	)
}

// parseJSONRequest decodes a JSON body into v
func parseJSONRequest(r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "content-type must be application/json", nil)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return requestBodyError(err, "failed to read request body")
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "failed to parse JSON", err)
	}
	return nil
}

func requestBodyError(err error, message string) error {
	var maxBytesErr *http.MaxBytesError
	if stderrors.As(err, &maxBytesErr) {
		return errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
	}
	return errors.NewValidationError(errors.ErrCodeInvalidRequest, message, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, kind, message string, statusCode int) {
	writeJSON(w, statusCode, types.ErrorResponse{Error: kind, Message: message})
}
