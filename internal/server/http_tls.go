package server

import (
	"crypto/tls"
	"fmt"
	"net/http"
)

// configureTLS attaches a tls.Config for the server and mutual modes
func (s *Server) configureTLS(httpServer *http.Server) error {
	switch s.TLSConfig.Mode {
	case "", "disabled":
		return nil
	case "server", "mutual":
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", s.TLSConfig.Mode)
	}

	cm := NewCertificateManager(s.TLSConfig, s.telemetry, s.Logger)
	if err := cm.Start(); err != nil {
		return err
	}
	s.CertificateManager = cm

	httpServer.TLSConfig = s.buildTLSConfig(cm)
	return nil
}

// buildTLSConfig reads certificates through cm on every handshake
func (s *Server) buildTLSConfig(cm *CertificateManager) *tls.Config {
	base := &tls.Config{
		MinVersion:     tlsMinVersion(s.TLSConfig.MinVersion),
		GetCertificate: cm.GetCertificate,
	}
	if s.TLSConfig.Mode != "mutual" {
		base.ClientAuth = tls.NoClientCert
		return base
	}

	base.ClientAuth = clientAuthPolicy(s.TLSConfig.ClientAuthPolicy)
	base.ClientCAs = cm.ClientCAs()
	// Per-handshake config so a reloaded CA pool applies to new connections
	base.GetConfigForClient = func(*tls.ClientHelloInfo) (*tls.Config, error) {
		cfg := base.Clone()
		cfg.GetConfigForClient = nil
		cfg.ClientCAs = cm.ClientCAs()
		return cfg, nil
	}
	return base
}

func tlsMinVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

// clientAuthPolicy maps the configured policy, defaulting to require-and-verify
func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}
