package server

import "fmt"

// displayServerInfo prints the startup banner
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayTLSInfo()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /             - API banner")
	fmt.Println("  GET  /health       - Health check")
	fmt.Println("  GET  /stats        - Server statistics")
	fmt.Println("  POST /analyze      - Match a resume against a job URL or description")
	fmt.Println("  POST /analyze-pdf  - Same, with the resume uploaded as PDF")
	fmt.Println("  POST /upload-cv    - Extract text from a PDF resume")
	fmt.Println("  GET  /jobs         - Jobs from the last scrape")
	fmt.Println("  GET  /jobs/{id}    - One job from the last scrape")
	fmt.Println("  POST /scrape       - Run a bulk scrape and analysis pass")
}

func (s *Server) displayTLSInfo() {
	scheme := "http"
	switch s.TLSConfig.Mode {
	case "server":
		scheme = "https"
		fmt.Println("TLS mode: Server-only (no client certificates required)")
	case "mutual":
		scheme = "https"
		fmt.Println("TLS mode: Mutual (client certificates required)")
	default:
		fmt.Println("TLS mode: Disabled (HTTP only)")
	}
	if s.CertificateManager != nil && s.TLSConfig.AutoReload.Enabled {
		fmt.Println("TLS auto-reload: ENABLED (file watching)")
	}
	fmt.Printf("Listening on %s://%s:%s\n", scheme, s.Host, s.Port)
}

func (s *Server) displayAuthInfo() {
	if n := s.APIKeys.Len(); n > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", n)
		if s.VaultWatcher != nil {
			fmt.Println("  - Keys rotate from Vault")
		}
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
	}
}

func (s *Server) displayRateLimitInfo() {
	if s.RateLimiter == nil {
		fmt.Println("Rate limiting: DISABLED")
		return
	}
	fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
		s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
	if s.RateLimit.ByAPIKey {
		fmt.Println("  - Per API key rate limiting enabled")
	}
	if s.RateLimit.ByIP {
		fmt.Println("  - Per IP address rate limiting enabled")
	}
}
