package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError(ErrCodeUnsupportedFileType, "only PDF files are accepted", nil), http.StatusBadRequest},
		{"fetch", NewFetchError(ErrCodeFetchFailed, "failed to retrieve content", nil), http.StatusBadRequest},
		{"not found", NewNotFoundError(ErrCodeJobNotFound, "job not found", nil), http.StatusNotFound},
		{"ai", NewAIError(ErrCodeAIServiceFailed, "model call failed", nil), http.StatusBadGateway},
		{"io", NewIOError(ErrCodeSnapshotWrite, "write failed", nil), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("handler: %w", NewNotFoundError(ErrCodeJobNotFound, "gone", nil)), http.StatusNotFound},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppErrorUnwrapAndContext(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := NewFetchError(ErrCodeFetchFailed, "failed to retrieve content", cause).
		WithContext("url", "https://example.com/job")

	if !IsType(err, ErrorTypeFetch) {
		t.Fatalf("expected fetch error type")
	}
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() returned %v", err.Unwrap())
	}
	if err.Context["url"] != "https://example.com/job" {
		t.Errorf("context not stored: %v", err.Context)
	}
	want := "FETCH_FAILED: failed to retrieve content (caused by: connection reset)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestLogErrorExpandsAppError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelDebug)

	err := NewAIError(ErrCodeAIServiceFailed, "model call failed", fmt.Errorf("quota exceeded")).
		WithContext("model", "gemini-2.5-flash")
	logger.LogError(err, "analysis failed", "request_id", "r1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}

	checks := map[string]string{
		"msg":        "analysis failed",
		"error_type": "ai",
		"error_code": ErrCodeAIServiceFailed,
		"cause":      "quota exceeded",
		"model":      "gemini-2.5-flash",
		"request_id": "r1",
	}
	for key, want := range checks {
		if entry[key] != want {
			t.Errorf("entry[%q] = %v, want %q", key, entry[key], want)
		}
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := New("warn"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
