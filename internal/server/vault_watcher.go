package server

import (
	"fmt"
	"sync"
	"time"

	"jobmatch/internal/config"
	"jobmatch/internal/errors"
)

// SecretReader reads a KV v2 secret; *config.VaultClient implements it
type SecretReader interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
}

// VaultWatcher polls the server API key secret and swaps the key set when its
// version increases. Read errors keep the current keys.
type VaultWatcher struct {
	mu sync.RWMutex

	client       SecretReader
	secretPath   string
	pollInterval time.Duration
	keys         *APIKeySet
	logger       *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
	lastCheck   time.Time
	lastError   string
	rotations   int
}

// NewVaultWatcher creates a watcher that updates keys
func NewVaultWatcher(client SecretReader, secretPath string, pollInterval time.Duration, keys *APIKeySet, logger *errors.Logger) *VaultWatcher {
	if logger == nil {
		logger = errors.NopLogger()
	}
	return &VaultWatcher{
		client:       client,
		secretPath:   secretPath,
		pollInterval: pollInterval,
		keys:         keys,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start records the current secret version and begins polling
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}
	if vw.pollInterval <= 0 {
		return fmt.Errorf("vault watch interval must be positive")
	}
	if secret, err := vw.client.GetSecretV2(vw.secretPath); err == nil {
		vw.lastVersion = secret.Version
	}
	vw.running = true
	go vw.pollLoop()
	vw.logger.Info("Vault API key watcher started", "secret_path", vw.secretPath, "poll_interval", vw.pollInterval)
	return nil
}

// Stop stops polling
func (vw *VaultWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if !vw.running {
		return nil
	}
	close(vw.stopChan)
	vw.running = false
	vw.logger.Info("Vault API key watcher stopped")
	return nil
}

func (vw *VaultWatcher) pollLoop() {
	ticker := time.NewTicker(vw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := vw.checkForUpdates(); err != nil {
				vw.logger.LogError(err, "Failed to check Vault for API key updates")
			}
		case <-vw.stopChan:
			return
		}
	}
}

// checkForUpdates applies a newer secret version and reports whether keys changed
func (vw *VaultWatcher) checkForUpdates() (bool, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)

	vw.mu.Lock()
	defer vw.mu.Unlock()
	vw.lastCheck = time.Now()
	if err != nil {
		vw.lastError = err.Error()
		return false, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret.Version <= vw.lastVersion {
		vw.lastError = ""
		return false, nil
	}

	keys, err := config.APIKeysFromSecret(secret, vw.secretPath)
	if err != nil {
		vw.lastError = err.Error()
		return false, err
	}
	if len(keys) == 0 {
		vw.lastError = "secret holds no API keys"
		vw.logger.Warn("Ignoring Vault API key secret with no keys", "path", vw.secretPath, "version", secret.Version)
		return false, nil
	}

	vw.keys.Replace(keys)
	vw.lastVersion = secret.Version
	vw.lastError = ""
	vw.rotations++
	vw.logger.Info("API keys rotated from Vault", "count", len(keys), "version", secret.Version)
	return true, nil
}

// Status returns the watcher state for /stats
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	status := map[string]any{
		"running":       vw.running,
		"poll_interval": vw.pollInterval.String(),
		"secret_path":   vw.secretPath,
		"last_version":  vw.lastVersion,
		"rotations":     vw.rotations,
		"last_check":    vw.lastCheck,
	}
	if vw.lastError != "" {
		status["last_error"] = vw.lastError
	}
	return status
}
