package config

import (
	"fmt"
	"os"
	"slices"
)

var (
	tlsModes           = []string{"", "disabled", "server", "mutual"}
	tlsMinVersions     = []string{"", "1.2", "1.3"}
	clientAuthPolicies = []string{"", "require", "request", "verify"}
)

// ValidateTLSConfig checks the TLS mode, the files it needs and the version and policy names.
// An empty mode means disabled.
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS

	if !slices.Contains(tlsModes, tls.Mode) {
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}
	if !slices.Contains(tlsMinVersions, tls.MinVersion) {
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}
	if !tls.Enabled() {
		return nil
	}

	if tls.CertFile == "" || tls.KeyFile == "" {
		return fmt.Errorf("TLS certificate and key files are required for %s mode", tls.Mode)
	}
	files := []string{tls.CertFile, tls.KeyFile}

	if tls.Mode == "mutual" {
		if tls.CAFile == "" {
			return fmt.Errorf("CA certificate file is required for mutual TLS mode")
		}
		if !slices.Contains(clientAuthPolicies, tls.ClientAuthPolicy) {
			return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
		}
		files = append(files, tls.CAFile)
	}

	if tls.AutoReload.Enabled && tls.AutoReload.DebounceDelay < 0 {
		return fmt.Errorf("TLS autoReload debounceDelay must not be negative")
	}

	for _, path := range files {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("TLS file %s is not accessible: %w", path, err)
		}
	}
	return nil
}

// Enabled reports whether the server should terminate TLS
func (t TLSConfig) Enabled() bool {
	return t.Mode == "server" || t.Mode == "mutual"
}
