package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jobmatch/internal/ai"
	"jobmatch/internal/config"
	"jobmatch/internal/errors"
	"jobmatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	result    types.MatchResult
	err       error
	snapshot  types.Snapshot
	gotJob    string
	gotResume string
	gotURLs   []string
	gotPDF    []byte
}

func (f *fakeAnalyzer) HandleAnalyze(_ context.Context, jobInput, resumeText string) (types.MatchResult, error) {
	f.gotJob, f.gotResume = jobInput, resumeText
	return f.result, f.err
}

func (f *fakeAnalyzer) HandleAnalyzePDF(_ context.Context, jobInput string, pdf []byte) (types.MatchResult, error) {
	f.gotJob, f.gotPDF = jobInput, pdf
	return f.result, f.err
}

func (f *fakeAnalyzer) ScrapeAll(_ context.Context, urls []string, resumeText string) (types.Snapshot, error) {
	f.gotURLs, f.gotResume = urls, resumeText
	return f.snapshot, f.err
}

type fakeStore struct {
	snap types.Snapshot
}

func (f *fakeStore) Save(_ context.Context, snap *types.Snapshot) error {
	f.snap = *snap
	return nil
}

func (f *fakeStore) Load(context.Context) (types.Snapshot, error) { return f.snap, nil }

func (f *fakeStore) Job(_ context.Context, id string) (types.JobEntry, error) {
	for _, job := range f.snap.Jobs {
		if job.ID == id {
			return job, nil
		}
	}
	return types.JobEntry{}, errors.NewNotFoundError(errors.ErrCodeJobNotFound, "job "+id+" not found", nil)
}

type fakeModel struct {
	available bool
}

func (f fakeModel) GetModelInfo(context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "gemini-2.5-flash", Available: f.available}
}

func (fakeModel) CircuitBreakerStats() map[string]any { return map[string]any{"enabled": false} }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{CORSOrigins: []string{"http://localhost:5173"}},
		App:    config.AppConfig{MaxFileSize: 1 << 20},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, deps Deps) http.Handler {
	t.Helper()
	s := NewServer(cfg, "test", deps, errors.NopLogger())
	t.Cleanup(func() {
		if s.RateLimiter != nil {
			s.RateLimiter.Close()
		}
	})
	return s.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func multipartRequest(t *testing.T, path string, fields map[string]string, fileField, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var body types.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRootHandler(t *testing.T) {
	h := newTestServer(t, testConfig(), Deps{})

	rec := doJSON(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"jobmatch API"}`, rec.Body.String())
}

func TestAnalyzeHandler(t *testing.T) {
	analyzer := &fakeAnalyzer{result: types.MatchResult{
		Score: 80, Strengths: []string{"Go"}, MissingSkills: []string{}, Summary: "good",
	}}
	h := newTestServer(t, testConfig(), Deps{Analyzer: analyzer})

	rec := doJSON(t, h, http.MethodPost, "/analyze", `{"jd_text":"https://example.com/job","cv_text":"resume"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result types.MatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 80, result.Score)
	assert.Equal(t, "https://example.com/job", analyzer.gotJob)
	assert.Equal(t, "resume", analyzer.gotResume)
}

func TestAnalyzeHandlerErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"malformed json", `{"jd_text":`, nil, http.StatusBadRequest, "validation"},
		{"fetch failure", `{"jd_text":"https://x","cv_text":"cv"}`,
			errors.NewFetchError(errors.ErrCodeFetchFailed, "failed to retrieve content", nil),
			http.StatusBadRequest, "fetch"},
		{"validation", `{"jd_text":"","cv_text":"cv"}`,
			errors.NewValidationError(errors.ErrCodeInvalidRequest, "job description is required", nil),
			http.StatusBadRequest, "validation"},
		{"internal", `{"jd_text":"jd","cv_text":"cv"}`,
			errors.NewInternalError("BOOM", "boom", nil),
			http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, testConfig(), Deps{Analyzer: &fakeAnalyzer{err: tt.err}})

			rec := doJSON(t, h, http.MethodPost, "/analyze", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantKind, decodeError(t, rec).Error)
		})
	}
}

func TestAnalyzeRequiresJSONContentType(t *testing.T) {
	h := newTestServer(t, testConfig(), Deps{Analyzer: &fakeAnalyzer{}})

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadCVRejectsNonPDFBeforeParsing(t *testing.T) {
	h := newTestServer(t, testConfig(), Deps{})

	req := multipartRequest(t, "/upload-cv", nil, "file", "resume.txt", []byte("plain text resume"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "validation", body.Error)
	assert.Contains(t, body.Message, "PDF")
}

func TestUploadCVInvalidPDF(t *testing.T) {
	h := newTestServer(t, testConfig(), Deps{})

	req := multipartRequest(t, "/upload-cv", nil, "file", "resume.PDF", []byte("not really a pdf"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadCVMissingFile(t *testing.T) {
	h := newTestServer(t, testConfig(), Deps{})

	req := multipartRequest(t, "/upload-cv", map[string]string{"other": "x"}, "", "", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzePDFHandler(t *testing.T) {
	analyzer := &fakeAnalyzer{result: types.MatchResult{Score: 55, Strengths: []string{}, MissingSkills: []string{}}}
	h := newTestServer(t, testConfig(), Deps{Analyzer: analyzer})

	t.Run("pdf upload reaches analyzer", func(t *testing.T) {
		req := multipartRequest(t, "/analyze-pdf", map[string]string{"jd_text": "Senior Go engineer"}, "cv_file", "cv.pdf", []byte("%PDF-1.4"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Senior Go engineer", analyzer.gotJob)
		assert.Equal(t, []byte("%PDF-1.4"), analyzer.gotPDF)
	})

	t.Run("docx is rejected", func(t *testing.T) {
		analyzer.gotPDF = nil
		req := multipartRequest(t, "/analyze-pdf", map[string]string{"jd_text": "jd"}, "cv_file", "cv.docx", []byte("PK"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, analyzer.gotPDF)
	})
}

func TestUploadTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.App.MaxFileSize = 4
	h := newTestServer(t, cfg, Deps{})

	req := multipartRequest(t, "/upload-cv", nil, "file", "cv.pdf", []byte("%PDF-1.4 and more"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "exceeds")
}

func TestJobsHandlers(t *testing.T) {
	t.Run("empty snapshot lists as array", func(t *testing.T) {
		h := newTestServer(t, testConfig(), Deps{Store: &fakeStore{}})

		rec := doJSON(t, h, http.MethodGet, "/jobs", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("no store lists as array", func(t *testing.T) {
		h := newTestServer(t, testConfig(), Deps{})

		rec := doJSON(t, h, http.MethodGet, "/jobs", "")
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	store := &fakeStore{snap: types.Snapshot{Jobs: []types.JobEntry{{ID: "abc", URL: "https://example.com/1", MatchScore: 70}}}}
	h := newTestServer(t, testConfig(), Deps{Store: store})

	t.Run("list", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/jobs", "")
		var jobs []types.JobEntry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
		require.Len(t, jobs, 1)
		assert.Equal(t, "abc", jobs[0].ID)
	})

	t.Run("lookup", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/jobs/abc", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var job types.JobEntry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
		assert.Equal(t, 70, job.MatchScore)
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/jobs/missing", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", decodeError(t, rec).Error)
	})
}

func TestScrapeHandler(t *testing.T) {
	t.Run("request body", func(t *testing.T) {
		analyzer := &fakeAnalyzer{snapshot: types.Snapshot{TotalJobs: 1, Jobs: []types.JobEntry{{ID: "1"}}}}
		h := newTestServer(t, testConfig(), Deps{Analyzer: analyzer})

		rec := doJSON(t, h, http.MethodPost, "/scrape", `{"urls":["https://example.com/a"],"cv_text":"cv"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"https://example.com/a"}, analyzer.gotURLs)
		assert.Equal(t, "cv", analyzer.gotResume)
	})

	t.Run("falls back to configuration", func(t *testing.T) {
		cfg := testConfig()
		cfg.Scrape.URLs = []string{"https://example.com/configured"}
		cfg.Scrape.ResumeFile = writeTempFile(t, "resume.txt", "configured resume")
		analyzer := &fakeAnalyzer{}
		h := newTestServer(t, cfg, Deps{Analyzer: analyzer})

		rec := doJSON(t, h, http.MethodPost, "/scrape", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, cfg.Scrape.URLs, analyzer.gotURLs)
		assert.Equal(t, "configured resume", analyzer.gotResume)
	})

	t.Run("nothing to scrape", func(t *testing.T) {
		analyzer := &fakeAnalyzer{}
		h := newTestServer(t, testConfig(), Deps{Analyzer: analyzer})

		rec := doJSON(t, h, http.MethodPost, "/scrape", `{"cv_text":"cv"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, analyzer.gotURLs)
	})
}

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := newTestServer(t, testConfig(), Deps{Model: fakeModel{available: true}})

		rec := doJSON(t, h, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "test", body["version"])
	})

	t.Run("model unavailable", func(t *testing.T) {
		h := newTestServer(t, testConfig(), Deps{Model: fakeModel{available: false}})

		rec := doJSON(t, h, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.Server.APIKeys = []string{"secret-key-123"}
	analyzer := &fakeAnalyzer{result: types.MatchResult{Strengths: []string{}, MissingSkills: []string{}}}
	h := newTestServer(t, cfg, Deps{Analyzer: analyzer, Model: fakeModel{available: true}})

	tests := []struct {
		name   string
		method string
		path   string
		header map[string]string
		want   int
	}{
		{"root is public", http.MethodGet, "/", nil, http.StatusOK},
		{"health is public", http.MethodGet, "/health", nil, http.StatusOK},
		{"missing key", http.MethodGet, "/stats", nil, http.StatusUnauthorized},
		{"wrong key", http.MethodGet, "/stats", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"x-api-key", http.MethodGet, "/stats", map[string]string{"X-API-Key": "secret-key-123"}, http.StatusOK},
		{"bearer", http.MethodGet, "/stats", map[string]string{"Authorization": "Bearer secret-key-123"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := testConfig()
	cfg.Server.APIKeys = []string{"secret-key-123"}
	h := newTestServer(t, cfg, Deps{Analyzer: &fakeAnalyzer{}})

	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestSizeLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxRequestSize = 16
	h := newTestServer(t, cfg, Deps{Analyzer: &fakeAnalyzer{}})

	rec := doJSON(t, h, http.MethodPost, "/analyze", `{"jd_text":"a long job description","cv_text":"cv"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "too large")
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}
