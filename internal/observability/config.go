package observability

import (
	"time"

	"jobmatch/internal/config"
)

// Config is the flattened observability configuration
type Config struct {
	Enabled            bool
	ServiceName        string
	ServiceVersion     string
	ServiceInstance    string
	ConsoleOutput      bool
	TracingEnabled     bool
	SampleRate         float64
	MetricsEnabled     bool
	CollectionInterval time.Duration
	Prometheus         PrometheusConfig
	OTLP               config.OTLPConfig
}

// FromConfig derives the observability settings, using version when no service version is set
func FromConfig(cfg *config.Config, version string) Config {
	obs := cfg.Observability

	serviceVersion := obs.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = version
	}
	interval := obs.Metrics.CollectionInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	return Config{
		Enabled:            obs.Enabled,
		ServiceName:        obs.ServiceName,
		ServiceVersion:     serviceVersion,
		ServiceInstance:    obs.ServiceInstance,
		ConsoleOutput:      obs.ConsoleOutput,
		TracingEnabled:     obs.Tracing.Enabled,
		SampleRate:         obs.Tracing.SampleRate,
		MetricsEnabled:     obs.Metrics.Enabled,
		CollectionInterval: interval,
		Prometheus: PrometheusConfig{
			Enabled:  obs.Prometheus.Enabled,
			Endpoint: obs.Prometheus.Endpoint,
			Port:     obs.Prometheus.Port,
		},
		OTLP: obs.OTLP,
	}
}
