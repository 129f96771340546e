package config

import (
	"time"

	"github.com/spf13/viper"
)

// DefaultUserAgent is the desktop browser identity used for both fetch strategies
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.prompt", "")
	v.SetDefault("ai.promptFile", "")
	_ = v.BindEnv("ai.temperature") // no default: unset means the model decides

	v.SetDefault("ai.circuitBreaker.enabled", true)
	v.SetDefault("ai.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.circuitBreaker.failureThreshold", 0.6)

	// Fetcher Configuration
	v.SetDefault("fetcher.browserEnabled", true)
	v.SetDefault("fetcher.browserTimeout", 60*time.Second)
	v.SetDefault("fetcher.chromePath", "")
	v.SetDefault("fetcher.idleWindow", 500*time.Millisecond)
	v.SetDefault("fetcher.httpTimeout", 30*time.Second)
	v.SetDefault("fetcher.userAgent", DefaultUserAgent)
	v.SetDefault("fetcher.maxBodyBytes", 5*1024*1024)

	// Snapshot Configuration
	v.SetDefault("snapshot.path", "data/jobs_snapshot.json")
	v.SetDefault("snapshot.lockTimeout", 10*time.Second)
	v.SetDefault("snapshot.descriptionChars", 2000)
	v.SetDefault("snapshot.s3.enabled", false)
	v.SetDefault("snapshot.s3.bucket", "")
	v.SetDefault("snapshot.s3.key", "jobs_snapshot.json")
	v.SetDefault("snapshot.s3.region", "auto")
	v.SetDefault("snapshot.s3.endpoint", "")
	v.SetDefault("snapshot.s3.accessKeyId", "")
	v.SetDefault("snapshot.s3.secretAccessKey", "")
	v.SetDefault("snapshot.amqp.enabled", false)
	v.SetDefault("snapshot.amqp.url", "")
	v.SetDefault("snapshot.amqp.exchange", "jobmatch")
	v.SetDefault("snapshot.amqp.routingKey", "snapshot.updated")

	// Scrape Configuration
	v.SetDefault("scrape.urls", []string{})
	v.SetDefault("scrape.resumeFile", "")

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 15*time.Minute) // bulk scrapes run inside one request
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 10*1024*1024)
	v.SetDefault("server.corsOrigins", []string{"http://localhost:5173"})

	// TLS Configuration defaults
	v.SetDefault("server.tls.mode", "disabled") // disabled, server, mutual
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.clientAuthPolicy", "require") // require, request, verify
	v.SetDefault("server.tls.autoReload.enabled", true)
	v.SetDefault("server.tls.autoReload.debounceDelay", time.Second)

	// API Authentication defaults
	v.SetDefault("server.apiKeys", []string{})

	// Rate limiting defaults
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "yaml", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 5*1024*1024) // 5MB

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.watchInterval", 0)
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "jobmatch")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
	v.SetDefault("observability.healthCheck.aiModelCheckTimeout", 10*time.Second)
}
