package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"jobmatch/internal/ai"
	"jobmatch/internal/config"
	"jobmatch/internal/errors"
	"jobmatch/internal/snapshot"
	"jobmatch/internal/types"
)

// Analyzer is the orchestration surface the handlers call
type Analyzer interface {
	HandleAnalyze(ctx context.Context, jobInput, resumeText string) (types.MatchResult, error)
	HandleAnalyzePDF(ctx context.Context, jobInput string, pdfData []byte) (types.MatchResult, error)
	ScrapeAll(ctx context.Context, urls []string, resumeText string) (types.Snapshot, error)
}

// ModelStatus reports model reachability and breaker state for /health and /stats
type ModelStatus interface {
	GetModelInfo(ctx context.Context) *ai.ModelInfo
	CircuitBreakerStats() map[string]any
}

// Telemetry is the subset of observability.Manager the server uses
type Telemetry interface {
	HTTPMiddleware() func(http.Handler) http.Handler
	TrackRateLimitHit(ctx context.Context, keyType string)
	TrackCertReload(ctx context.Context, success bool, notAfter time.Time)
}

// Deps are the collaborators built by the serve command
type Deps struct {
	Analyzer  Analyzer
	Store     snapshot.Store
	Model     ModelStatus
	Telemetry Telemetry
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	TLSConfig          config.TLSConfig
	CertificateManager *CertificateManager
	VaultWatcher       *VaultWatcher

	APIKeys *APIKeySet

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxRequestSize int64
	CORSOrigins    []string

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Logger *errors.Logger

	analyzer  Analyzer
	store     snapshot.Store
	model     ModelStatus
	telemetry Telemetry
}

// NewServer creates a Server from the application configuration
func NewServer(appCfg *config.Config, version string, deps Deps, logger *errors.Logger) *Server {
	if logger == nil {
		logger = errors.NopLogger()
	}
	srvCfg := appCfg.Server

	var rateLimiter *RateLimiter
	rateLimit := srvCfg.RateLimit
	if rateLimit.Enabled {
		rateLimiter = NewRateLimiter(rateLimit.RequestsPerMin, rateLimit.BurstCapacity, logger)
	}

	telemetry := deps.Telemetry
	if telemetry == nil {
		telemetry = noopTelemetry{}
	}

	return &Server{
		Host:           srvCfg.Host,
		Port:           srvCfg.Port,
		Version:        version,
		AppConfig:      appCfg,
		TLSConfig:      srvCfg.TLS,
		APIKeys:        NewAPIKeySet(srvCfg.APIKeys),
		ReadTimeout:    srvCfg.ReadTimeout,
		WriteTimeout:   srvCfg.WriteTimeout,
		IdleTimeout:    srvCfg.IdleTimeout,
		MaxRequestSize: srvCfg.MaxRequestSize,
		CORSOrigins:    srvCfg.CORSOrigins,
		RateLimit:      &rateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
		analyzer:       deps.Analyzer,
		store:          deps.Store,
		model:          deps.Model,
		telemetry:      telemetry,
	}
}

// APIKeySet is the set of accepted API keys. Vault rotation replaces it while serving.
type APIKeySet struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

// NewAPIKeySet builds a set, ignoring empty keys
func NewAPIKeySet(keys []string) *APIKeySet {
	s := &APIKeySet{}
	s.Replace(keys)
	return s
}

// Replace swaps the whole key set
func (s *APIKeySet) Replace(keys []string) {
	next := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key != "" {
			next[key] = struct{}{}
		}
	}
	s.mu.Lock()
	s.keys = next
	s.mu.Unlock()
}

// Contains reports whether key is accepted
func (s *APIKeySet) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[key]
	return ok
}

// Len is the number of configured keys; zero disables authentication
func (s *APIKeySet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

type noopTelemetry struct{}

func (noopTelemetry) HTTPMiddleware() func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler { return h }
}
func (noopTelemetry) TrackRateLimitHit(context.Context, string)        {}
func (noopTelemetry) TrackCertReload(context.Context, bool, time.Time) {}
