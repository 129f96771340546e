package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
// API Key Precedence Order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (JOBMATCH_AI_APIKEY, then GEMINI_API_KEY)
// 4. Default values - Lowest priority
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Fetcher       FetcherConfig       `mapstructure:"fetcher"`
	Snapshot      SnapshotConfig      `mapstructure:"snapshot"`
	Scrape        ScrapeConfig        `mapstructure:"scrape"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds model client configuration
type AIConfig struct {
	Provider       string               `mapstructure:"provider"`
	Model          string               `mapstructure:"model"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	APIKey         string               `mapstructure:"apiKey"`
	Temperature    *float32             `mapstructure:"temperature"` // nil leaves the model default
	Prompt         string               `mapstructure:"prompt"`      // inline prompt template override
	PromptFile     string               `mapstructure:"promptFile"`  // prompt template override loaded from disk
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// FetcherConfig holds job page retrieval configuration
type FetcherConfig struct {
	BrowserEnabled bool          `mapstructure:"browserEnabled"` // Try headless Chrome before plain HTTP
	BrowserTimeout time.Duration `mapstructure:"browserTimeout"`
	ChromePath     string        `mapstructure:"chromePath"` // Empty uses the chromedp lookup
	IdleWindow     time.Duration `mapstructure:"idleWindow"` // Quiet period that counts as network idle
	HTTPTimeout    time.Duration `mapstructure:"httpTimeout"`
	UserAgent      string        `mapstructure:"userAgent"`
	MaxBodyBytes   int64         `mapstructure:"maxBodyBytes"`
}

// SnapshotConfig holds configuration for the persisted job snapshot
type SnapshotConfig struct {
	Path             string        `mapstructure:"path"`
	LockTimeout      time.Duration `mapstructure:"lockTimeout"`
	DescriptionChars int           `mapstructure:"descriptionChars"` // Fetched text kept per job entry
	S3               S3Config      `mapstructure:"s3"`
	AMQP             AMQPConfig    `mapstructure:"amqp"`
}

// S3Config holds the optional object storage mirror configuration
type S3Config struct {
	Enabled         bool   `mapstructure:"enabled"`
	Bucket          string `mapstructure:"bucket"`
	Key             string `mapstructure:"key"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"` // R2, MinIO or any S3-compatible endpoint
	AccessKeyID     string `mapstructure:"accessKeyId"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`
}

// AMQPConfig holds the optional snapshot notification configuration
type AMQPConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	Exchange   string `mapstructure:"exchange"`
	RoutingKey string `mapstructure:"routingKey"`
}

// ScrapeConfig holds defaults for bulk scrape passes
type ScrapeConfig struct {
	URLs       []string `mapstructure:"urls"`
	ResumeFile string   `mapstructure:"resumeFile"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	MaxRequestSize int64         `mapstructure:"maxRequestSize"`
	CORSOrigins    []string      `mapstructure:"corsOrigins"`

	// TLS Configuration
	TLS TLSConfig `mapstructure:"tls"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"` // Valid API keys for authentication

	// Rate Limiting Configuration
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS/mTLS configuration
type TLSConfig struct {
	Mode             string           `mapstructure:"mode"`             // TLS mode: "disabled", "server", "mutual"
	CertFile         string           `mapstructure:"certFile"`         // Server certificate file (PEM)
	KeyFile          string           `mapstructure:"keyFile"`          // Server private key file (PEM)
	CAFile           string           `mapstructure:"caFile"`           // CA certificate file for client cert verification
	MinVersion       string           `mapstructure:"minVersion"`       // Minimum TLS version: "1.2", "1.3"
	ClientAuthPolicy string           `mapstructure:"clientAuthPolicy"` // Client auth policy for mutual mode: "require", "request", "verify"
	AutoReload       AutoReloadConfig `mapstructure:"autoReload"`
}

// AutoReloadConfig holds configuration for certificate hot reload
type AutoReloadConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DebounceDelay time.Duration `mapstructure:"debounceDelay"` // Debounce delay for file change events
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int           `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int           `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	ByIP           bool          `mapstructure:"byIP"`           // Enable per-IP rate limiting
	ByAPIKey       bool          `mapstructure:"byAPIKey"`       // Enable per-API-key rate limiting
	Window         time.Duration `mapstructure:"window"`         // Rate limiting window duration
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool              `mapstructure:"enabled"`
	ServiceName     string            `mapstructure:"serviceName"`
	ServiceVersion  string            `mapstructure:"serviceVersion"`
	ServiceInstance string            `mapstructure:"serviceInstance"`
	ConsoleOutput   bool              `mapstructure:"consoleOutput"`
	Tracing         TracingConfig     `mapstructure:"tracing"`
	Metrics         MetricsConfig     `mapstructure:"metrics"`
	Prometheus      PrometheusConfig  `mapstructure:"prometheus"`
	OTLP            OTLPConfig        `mapstructure:"otlp"`
	HealthCheck     HealthCheckConfig `mapstructure:"healthCheck"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// HealthCheckConfig holds health check configuration
type HealthCheckConfig struct {
	Timeout             time.Duration `mapstructure:"timeout"`
	AIModelCheckTimeout time.Duration `mapstructure:"aiModelCheckTimeout"`
}

// LoadConfig loads configuration from .env, environment variables, a config file and Vault
func LoadConfig() (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	loadDotEnv(".env")

	v := viper.New()

	setDefaults(v)
	log.Println("[CONFIG] Applied default configuration values")

	v.SetEnvPrefix("JOBMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	log.Println("[CONFIG] Configured environment variable handling with prefix 'JOBMATCH'")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/jobmatch/")
	v.AddConfigPath("$HOME/.jobmatch")
	v.AddConfigPath(".")
	log.Println("[CONFIG] Configured config file search paths: /etc/jobmatch/, $HOME/.jobmatch, .")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	log.Println("[CONFIG] Successfully unmarshaled configuration")

	config.applyFallbacks()
	log.Println("[CONFIG] Applied configuration fallbacks and environment variable overrides")

	// Vault runs before validation so it can supply the required API key
	if err := ApplyVaultSecrets(&config, nil); err != nil {
		return nil, fmt.Errorf("failed to apply vault secrets: %w", err)
	}

	config.logConfigurationSources(configFileUsed)

	if err := config.loadPrompt(); err != nil {
		return nil, fmt.Errorf("failed to load custom prompt: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// loadDotEnv loads a local .env file into the process environment.
// Existing variables win, and a missing file is not an error.
func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		log.Printf("[CONFIG] Ignoring unreadable env file %s: %v", path, err)
		return
	}
	log.Printf("[CONFIG] Loaded environment from %s", path)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.AI.APIKey == "" {
		return fmt.Errorf("AI API key is required (set JOBMATCH_AI_APIKEY or GEMINI_API_KEY environment variable)")
	}

	if c.AI.Provider != "gemini" {
		return fmt.Errorf("unsupported AI provider: %s", c.AI.Provider)
	}

	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}

	if c.Fetcher.BrowserTimeout <= 0 || c.Fetcher.HTTPTimeout <= 0 {
		return fmt.Errorf("fetcher timeouts must be positive")
	}

	if c.Fetcher.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetcher maxBodyBytes must be positive")
	}

	if strings.TrimSpace(c.Snapshot.Path) == "" {
		return fmt.Errorf("snapshot path is required")
	}

	if c.Snapshot.S3.Enabled && c.Snapshot.S3.Bucket == "" {
		return fmt.Errorf("snapshot s3 bucket is required when the s3 mirror is enabled")
	}

	if c.Snapshot.AMQP.Enabled && c.Snapshot.AMQP.URL == "" {
		return fmt.Errorf("snapshot amqp url is required when notifications are enabled")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}
