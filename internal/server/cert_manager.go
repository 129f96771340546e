package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"jobmatch/internal/config"
	"jobmatch/internal/errors"
)

// expiryWarningWindow marks certificates close to expiry as unhealthy
const expiryWarningWindow = 7 * 24 * time.Hour

// CertificateManager holds the live server certificate and client CA pool.
// Handshakes read the current pair, so a reload takes effect without a restart.
type CertificateManager struct {
	mu sync.RWMutex

	serverCert *tls.Certificate
	caPool     *x509.CertPool
	notAfter   time.Time

	lastReload   time.Time
	reloadCount  int64
	failureCount int64
	lastError    string

	config    config.TLSConfig
	watcher   *CertWatcher
	telemetry Telemetry
	logger    *errors.Logger
	now       func() time.Time
}

// NewCertificateManager creates a manager; call Start to load certificates
func NewCertificateManager(tlsConfig config.TLSConfig, telemetry Telemetry, logger *errors.Logger) *CertificateManager {
	if telemetry == nil {
		telemetry = noopTelemetry{}
	}
	if logger == nil {
		logger = errors.NopLogger()
	}
	return &CertificateManager{
		config:    tlsConfig,
		telemetry: telemetry,
		logger:    logger,
		now:       time.Now,
	}
}

// Start loads the certificates and, with auto-reload enabled, watches their files
func (cm *CertificateManager) Start() error {
	if err := cm.load(); err != nil {
		return fmt.Errorf("failed to load initial certificates: %w", err)
	}

	if !cm.config.AutoReload.Enabled {
		return nil
	}

	watcher := NewCertWatcher(
		[]string{cm.config.CertFile, cm.config.KeyFile, cm.config.CAFile},
		cm.config.AutoReload.DebounceDelay,
		cm.Reload,
		cm.logger,
	)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start certificate watcher: %w", err)
	}
	cm.watcher = watcher
	return nil
}

// Stop stops file watching
func (cm *CertificateManager) Stop() error {
	if cm.watcher == nil {
		return nil
	}
	return cm.watcher.Stop()
}

// Reload re-reads the files. On failure the previous certificate stays in use.
func (cm *CertificateManager) Reload() {
	err := cm.load()

	cm.mu.Lock()
	cm.reloadCount++
	if err != nil {
		cm.failureCount++
		cm.lastError = err.Error()
	} else {
		cm.lastError = ""
	}
	notAfter := cm.notAfter
	cm.mu.Unlock()

	cm.telemetry.TrackCertReload(context.Background(), err == nil, notAfter)
	if err != nil {
		cm.logger.LogError(err, "Failed to reload TLS certificates")
		return
	}
	cm.logger.Info("TLS certificates reloaded", "not_after", notAfter)
}

func (cm *CertificateManager) load() error {
	cert, err := tls.LoadX509KeyPair(cm.config.CertFile, cm.config.KeyFile)
	if err != nil {
		return fmt.Errorf("failed to load server cert/key: %w", err)
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse server certificate: %w", err)
	}
	cert.Leaf = leaf

	var pool *x509.CertPool
	if cm.config.CAFile != "" {
		pem, err := os.ReadFile(cm.config.CAFile)
		if err != nil {
			return fmt.Errorf("failed to read CA file: %w", err)
		}
		pool = x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return fmt.Errorf("no certificates found in CA file %s", cm.config.CAFile)
		}
	}

	cm.mu.Lock()
	cm.serverCert = &cert
	cm.caPool = pool
	cm.notAfter = leaf.NotAfter
	cm.lastReload = cm.now()
	cm.mu.Unlock()
	return nil
}

// GetCertificate is the tls.Config hook for the server certificate
func (cm *CertificateManager) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if cm.serverCert == nil {
		return nil, fmt.Errorf("no server certificate loaded")
	}
	return cm.serverCert, nil
}

// ClientCAs returns the current client CA pool, nil outside mutual mode
func (cm *CertificateManager) ClientCAs() *x509.CertPool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.caPool
}

// Status reports certificate expiry and reload counters for /health
func (cm *CertificateManager) Status() map[string]any {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	remaining := cm.notAfter.Sub(cm.now())
	status := map[string]any{
		"healthy":         cm.serverCert != nil && remaining > expiryWarningWindow,
		"not_after":       cm.notAfter,
		"days_remaining":  int(remaining.Hours() / 24),
		"last_reload":     cm.lastReload,
		"reload_count":    cm.reloadCount,
		"reload_failures": cm.failureCount,
		"auto_reload":     cm.watcher != nil,
	}
	if cm.lastError != "" {
		status["last_error"] = cm.lastError
	}
	return status
}
