package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"jobmatch/internal/errors"

	"golang.org/x/time/rate"
)

const limiterEvictionAge = 10 * time.Minute

// LimiterManager keeps one token bucket per client key (API key or IP)
type LimiterManager struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	lastSeen  map[string]time.Time
	rate      rate.Limit
	burst     int
	done      chan struct{}
	closeOnce sync.Once
	logger    *errors.Logger
}

// RateLimiter is the name the server uses for LimiterManager
type RateLimiter = LimiterManager

// NewRateLimiter allows requestsPerMin per key with the given burst
func NewRateLimiter(requestsPerMin, burstCapacity int, logger *errors.Logger) *LimiterManager {
	if burstCapacity <= 0 {
		burstCapacity = 1
	}
	m := &LimiterManager{
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		rate:     rate.Limit(float64(requestsPerMin) / 60.0),
		burst:    burstCapacity,
		done:     make(chan struct{}),
		logger:   logger,
	}

	go m.cleanupRoutine(limiterEvictionAge)
	return m
}

// GetLimiter retrieves or creates a limiter for a given key
func (m *LimiterManager) GetLimiter(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, exists := m.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(m.rate, m.burst)
		m.limiters[key] = limiter
	}
	m.lastSeen[key] = time.Now()

	return limiter
}

// Allow is non-blocking
func (m *LimiterManager) Allow(key string) bool {
	return m.GetLimiter(key).Allow()
}

// GetStats returns current rate limiter statistics
func (m *LimiterManager) GetStats() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]any{
		"active_limiters": len(m.limiters),
		"rate_per_minute": float64(m.rate) * 60.0,
		"burst_capacity":  m.burst,
	}
}

func (m *LimiterManager) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup(interval)
		case <-m.done:
			return
		}
	}
}

// cleanup removes limiters idle for longer than evictionAge
func (m *LimiterManager) cleanup(evictionAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, lastSeen := range m.lastSeen {
		if now.Sub(lastSeen) > evictionAge {
			delete(m.limiters, key)
			delete(m.lastSeen, key)
		}
	}

	if m.logger != nil {
		m.logger.Debug("Rate limiter cleanup completed", "remaining_limiters", len(m.limiters))
	}
}

// Close stops the cleanup goroutine; safe to call more than once
func (m *LimiterManager) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

// rateLimitMiddleware rejects requests over the per-key budget with 429
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	if s.RateLimiter == nil || s.RateLimit == nil || !s.RateLimit.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		key, keyType := getRateLimitKey(r, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		if !s.RateLimiter.Allow(key) {
			s.telemetry.TrackRateLimitHit(r.Context(), keyType)
			s.Logger.Info("Rate limit exceeded",
				"key_type", keyType,
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			writeErrorResponse(w, "rate_limited", "Too many requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getRateLimitKey prefers the API key when enabled and present, then the client IP
func getRateLimitKey(r *http.Request, byAPIKey, byIP bool) (key, keyType string) {
	if byAPIKey {
		if apiKey := requestAPIKey(r); apiKey != "" {
			return "api:" + apiKey, "api_key"
		}
	}
	if byIP {
		return "ip:" + getClientIP(r), "ip"
	}
	return "", ""
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := parseFirstIP(xff); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseFirstIP parses the first valid IP from a comma-separated list
func parseFirstIP(ips string) string {
	for ip := range strings.SplitSeq(ips, ",") {
		ip = strings.TrimSpace(ip)
		if net.ParseIP(ip) != nil {
			return ip
		}
	}
	return ""
}
