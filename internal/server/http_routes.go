package server

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// Handler builds the routed handler with the full middleware chain
func (s *Server) Handler() http.Handler {
	mux := s.setupRoutes()

	var handler http.Handler = mux
	handler = s.requestSizeLimitMiddleware(handler)
	handler = s.authMiddleware(handler)
	handler = s.rateLimitMiddleware(handler)
	handler = s.corsMiddleware(handler)
	return s.telemetry.HTTPMiddleware()(handler)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.rootHandler)
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)
	mux.HandleFunc("POST /analyze", s.analyzeHandler)
	mux.HandleFunc("POST /analyze-pdf", s.analyzePDFHandler)
	mux.HandleFunc("POST /upload-cv", s.uploadCVHandler)
	mux.HandleFunc("GET /jobs", s.jobsHandler)
	mux.HandleFunc("GET /jobs/{id}", s.jobHandler)
	mux.HandleFunc("POST /scrape", s.scrapeHandler)

	return mux
}

// corsMiddleware answers preflight requests for the configured frontend origins
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   s.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(next)
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.APIKeys.Len() == 0 || isPublicRequest(r) {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			writeErrorResponse(w, "unauthorized", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.APIKeys.Contains(apiKey) {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "unauthorized", "Invalid API key", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"api_key_prefix", maskAPIKey(apiKey))

		next.ServeHTTP(w, r)
	})
}

func isPublicRequest(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return true
	}
	return r.URL.Path == "/" || r.URL.Path == "/health"
}

// requestAPIKey reads X-API-Key, then an Authorization Bearer token
func requestAPIKey(r *http.Request) string {
	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return apiKey
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.MaxRequestSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
		}
		next.ServeHTTP(w, r)
	})
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
