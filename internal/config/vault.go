package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"jobmatch/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	// WatchInterval re-reads server API keys while serving; zero disables rotation
	WatchInterval time.Duration `mapstructure:"watchInterval"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines where to find secrets in Vault (KV v2 paths)
type VaultSecrets struct {
	// APIKeys holds a "keys" field with comma-separated server API keys
	APIKeys string `mapstructure:"apiKeys"`
	// GeminiKey holds an "api_key" field with the model API key
	GeminiKey string `mapstructure:"geminiKey"`
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	config VaultConfig
	logger *errors.Logger
}

// VaultSecret represents a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// NewVaultClient creates a connected Vault client. It returns nil, nil when Vault is disabled.
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if logger == nil {
		logger = errors.NopLogger()
	}
	if !config.Enabled {
		logger.Debug("Vault integration disabled")
		return nil, nil
	}

	apiConfig := api.DefaultConfig()
	if config.Address != "" {
		apiConfig.Address = config.Address
	}
	client, err := api.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config, logger)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		logger.LogError(err, "Failed to connect to Vault", "address", apiConfig.Address)
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	logger.Info("Connected to Vault",
		"address", apiConfig.Address,
		"version", health.Version,
		"sealed", health.Sealed)

	return &VaultClient{client: client, config: config, logger: logger}, nil
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(config VaultConfig, logger *errors.Logger) (string, error) {
	token := config.Token

	if token == "" && config.TokenFile != "" {
		logger.Debug("Reading Vault token from file", "file", config.TokenFile)
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}

	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}

	return token, nil
}

// GetSecretV2 retrieves a secret from a Vault KVv2 store.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	data, err := vc.extractSecretData(secret, path)
	if err != nil {
		return nil, err
	}
	version, err := vc.extractSecretVersion(secret, path)
	if err != nil {
		return nil, err
	}

	vc.logger.Debug("Read secret from Vault", "path", path, "version", version)
	return &VaultSecret{Data: data, Version: version}, nil
}

func (vc *VaultClient) extractSecretData(secret *api.Secret, path string) (map[string]any, error) {
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	return data, nil
}

func (vc *VaultClient) extractSecretVersion(secret *api.Secret, path string) (int64, error) {
	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}

	versionRaw, ok := metadata["version"]
	if !ok {
		return 0, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}

	return parseVersionValue(versionRaw, path)
}

// parseVersionValue accepts the numeric encodings the Vault API returns
func parseVersionValue(versionRaw any, path string) (int64, error) {
	switch v := versionRaw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, versionRaw)
	}
}

// GetStringSecret retrieves a string value from a Vault secret
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	return stringField(secret, path, key)
}

func stringField(secret *VaultSecret, path, key string) (string, error) {
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	strValue, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	return strValue, nil
}

// LoadServerAPIKeys reads the comma-separated server API keys
func (vc *VaultClient) LoadServerAPIKeys() ([]string, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}
	if vc.config.Secrets.APIKeys == "" {
		return nil, fmt.Errorf("vault secrets.apiKeys path is not configured")
	}
	secret, err := vc.GetSecretV2(vc.config.Secrets.APIKeys)
	if err != nil {
		return nil, err
	}
	return APIKeysFromSecret(secret, vc.config.Secrets.APIKeys)
}

// APIKeysFromSecret splits the comma-separated "keys" field of an API key secret
func APIKeysFromSecret(secret *VaultSecret, path string) ([]string, error) {
	value, err := stringField(secret, path, "keys")
	if err != nil {
		return nil, err
	}
	return splitAndTrim(value), nil
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		return nil
	}
	if logger == nil {
		logger = errors.NopLogger()
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}

	if config.Vault.Secrets.APIKeys != "" {
		apiKeys, err := client.LoadServerAPIKeys()
		if err != nil {
			return fmt.Errorf("failed to load API keys from vault: %w", err)
		}
		if len(apiKeys) == 0 {
			logger.Warn("No API keys found in Vault", "path", config.Vault.Secrets.APIKeys)
		} else {
			config.Server.APIKeys = apiKeys
			logger.Info("API keys loaded from Vault", "count", len(apiKeys))
		}
	}

	if config.Vault.Secrets.GeminiKey != "" {
		geminiKey, err := client.GetStringSecret(config.Vault.Secrets.GeminiKey, "api_key")
		if err != nil {
			return fmt.Errorf("failed to load Gemini API key from vault: %w", err)
		}
		if !applyGeminiKeyToConfig(config, geminiKey) {
			logger.Warn("Empty Gemini API key found in Vault", "path", config.Vault.Secrets.GeminiKey)
		}
	}

	return nil
}

// applyGeminiKeyToConfig overrides the model key when Vault holds a non-empty one
func applyGeminiKeyToConfig(config *Config, geminiKey string) bool {
	geminiKey = strings.TrimSpace(geminiKey)
	if geminiKey == "" {
		return false
	}
	config.AI.APIKey = geminiKey
	return true
}
