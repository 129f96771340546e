package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"jobmatch/internal/ai"
	"jobmatch/internal/errors"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// Metrics holds the jobmatch instruments
type Metrics struct {
	FetchCount    metric.Int64Counter
	FetchDuration metric.Float64Histogram

	AnalysisCount    metric.Int64Counter
	AnalysisDuration metric.Float64Histogram
	AITokenUsage     metric.Int64Histogram

	SnapshotWrites metric.Int64Counter
	SnapshotJobs   metric.Int64Gauge

	CertReloadCount metric.Int64Counter
	CertExpiryTime  metric.Float64Gauge

	RateLimitHits metric.Int64Counter
}

// Manager owns the tracer and meter providers and records domain metrics.
// A disabled manager is valid; its Track methods do nothing.
type Manager struct {
	config           Config
	tracerProvider   *trace.TracerProvider
	meterProvider    *sdkmetric.MeterProvider
	metrics          *Metrics
	prometheusServer *http.Server
	shutdownFuncs    []func(context.Context) error
	logger           *errors.Logger
}

// NewManager sets the global providers when observability is enabled
func NewManager(cfg Config, logger *errors.Logger) (*Manager, error) {
	if logger == nil {
		logger = errors.NopLogger()
	}
	m := &Manager{config: cfg, logger: logger}
	if !cfg.Enabled {
		return m, nil
	}

	res, err := m.newResource()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize resource: %w", err)
	}
	if err := m.initTracing(res); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := m.initMetrics(res); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return m, nil
}

func (m *Manager) newResource() (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(m.config.ServiceName),
			semconv.ServiceVersion(m.config.ServiceVersion),
			attribute.String("service.instance.id", m.config.ServiceInstance),
		),
	)
}

func (m *Manager) initTracing(res *resource.Resource) error {
	if !m.config.TracingEnabled {
		return nil
	}

	var exporter trace.SpanExporter
	var err error
	switch {
	case m.config.ConsoleOutput:
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case m.config.OTLP.Enabled:
		exporter, err = m.newOTLPTraceExporter()
	default:
		exporter = noOpSpanExporter{}
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(m.config.SampleRate))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	m.tracerProvider = tp
	m.shutdownFuncs = append(m.shutdownFuncs, tp.Shutdown)
	return nil
}

func (m *Manager) initMetrics(res *resource.Resource) error {
	if !m.config.MetricsEnabled {
		return nil
	}

	readers, err := m.metricReaders()
	if err != nil {
		return err
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}
	mp := sdkmetric.NewMeterProvider(opts...)

	otel.SetMeterProvider(mp)
	m.meterProvider = mp
	m.shutdownFuncs = append(m.shutdownFuncs, mp.Shutdown)

	metrics, err := newMetrics(mp.Meter(m.config.ServiceName))
	if err != nil {
		return err
	}
	m.metrics = metrics
	return nil
}

func (m *Manager) metricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader

	if m.config.ConsoleOutput {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(m.config.CollectionInterval)))
	}

	if m.config.OTLP.Enabled {
		reader, err := m.newOTLPMetricsReader()
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics reader: %w", err)
		}
		readers = append(readers, reader)
	}

	if m.config.Prometheus.Enabled {
		reader, mux, err := SetupPrometheusExporter(m.config.Prometheus)
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		readers = append(readers, reader)
		m.prometheusServer = StartPrometheusServer(mux, m.config.Prometheus.Port, m.logger)
		m.shutdownFuncs = append(m.shutdownFuncs, m.prometheusServer.Shutdown)
	}

	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}
	return readers, nil
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	var m Metrics
	var err error

	if m.FetchCount, err = meter.Int64Counter("jobmatch_fetch_attempts_total",
		metric.WithDescription("Page fetch attempts by strategy and outcome")); err != nil {
		return nil, fmt.Errorf("failed to create fetch count metric: %w", err)
	}
	if m.FetchDuration, err = meter.Float64Histogram("jobmatch_fetch_duration_seconds",
		metric.WithDescription("Time spent fetching a page"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create fetch duration metric: %w", err)
	}
	if m.AnalysisCount, err = meter.Int64Counter("jobmatch_analyses_total",
		metric.WithDescription("Match analyses by outcome")); err != nil {
		return nil, fmt.Errorf("failed to create analysis count metric: %w", err)
	}
	if m.AnalysisDuration, err = meter.Float64Histogram("jobmatch_analysis_duration_seconds",
		metric.WithDescription("Time spent waiting for the model"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create analysis duration metric: %w", err)
	}
	if m.AITokenUsage, err = meter.Int64Histogram("jobmatch_ai_token_usage",
		metric.WithDescription("Token usage per model request"), metric.WithUnit("tokens")); err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}
	if m.SnapshotWrites, err = meter.Int64Counter("jobmatch_snapshot_writes_total",
		metric.WithDescription("Snapshot saves by outcome")); err != nil {
		return nil, fmt.Errorf("failed to create snapshot writes metric: %w", err)
	}
	if m.SnapshotJobs, err = meter.Int64Gauge("jobmatch_snapshot_jobs",
		metric.WithDescription("Jobs in the last saved snapshot")); err != nil {
		return nil, fmt.Errorf("failed to create snapshot jobs metric: %w", err)
	}
	if m.CertReloadCount, err = meter.Int64Counter("jobmatch_cert_reloads_total",
		metric.WithDescription("Total number of certificate reloads")); err != nil {
		return nil, fmt.Errorf("failed to create certificate reload count metric: %w", err)
	}
	if m.CertExpiryTime, err = meter.Float64Gauge("jobmatch_cert_expiry_seconds",
		metric.WithDescription("Seconds until certificate expiry"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create certificate expiry time metric: %w", err)
	}
	if m.RateLimitHits, err = meter.Int64Counter("jobmatch_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits")); err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return &m, nil
}

// TrackFetch records one fetch strategy attempt
func (m *Manager) TrackFetch(ctx context.Context, strategy string, success bool, duration time.Duration) {
	if m == nil || m.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("strategy", strategy), attribute.Bool("success", success))
	m.metrics.FetchCount.Add(ctx, 1, attrs)
	m.metrics.FetchDuration.Record(ctx, duration.Seconds(), attrs)
}

// TrackAnalysis records one analyzer call
func (m *Manager) TrackAnalysis(ctx context.Context, outcome string, duration time.Duration) {
	if m == nil || m.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.metrics.AnalysisCount.Add(ctx, 1, attrs)
	m.metrics.AnalysisDuration.Record(ctx, duration.Seconds(), attrs)
}

// TrackTokenUsage records input, output and total tokens of one model response
func (m *Manager) TrackTokenUsage(ctx context.Context, model string, usage ai.TokenUsage) {
	if m == nil || m.metrics == nil {
		return
	}
	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		m.metrics.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(
			attribute.String("model", model),
			attribute.String("token_type", tt.tokenType)))
	}
}

// TrackSnapshotWrite records a snapshot save
func (m *Manager) TrackSnapshotWrite(ctx context.Context, success bool, jobs int) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.SnapshotWrites.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	if success {
		m.metrics.SnapshotJobs.Record(ctx, int64(jobs))
	}
}

// TrackRateLimitHit records a rejected request
func (m *Manager) TrackRateLimitHit(ctx context.Context, keyType string) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("key_type", keyType)))
}

// TrackCertReload records a certificate reload and the new certificate's remaining lifetime
func (m *Manager) TrackCertReload(ctx context.Context, success bool, notAfter time.Time) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.CertReloadCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	if success && !notAfter.IsZero() {
		m.metrics.CertExpiryTime.Record(ctx, time.Until(notAfter).Seconds())
	}
}

// HTTPMiddleware returns otelhttp instrumentation, or a pass-through when disabled
func (m *Manager) HTTPMiddleware() func(http.Handler) http.Handler {
	if m == nil || !m.config.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}
	opts := []otelhttp.Option{}
	if m.tracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(m.tracerProvider))
	}
	if m.meterProvider != nil {
		opts = append(opts, otelhttp.WithMeterProvider(m.meterProvider))
	}
	return otelhttp.NewMiddleware(m.config.ServiceName, opts...)
}

// Shutdown flushes exporters and stops the Prometheus server
func (m *Manager) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	var firstErr error
	for _, shutdown := range m.shutdownFuncs {
		if err := shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type noOpSpanExporter struct{}

func (noOpSpanExporter) ExportSpans(context.Context, []trace.ReadOnlySpan) error { return nil }
func (noOpSpanExporter) Shutdown(context.Context) error                         { return nil }

func (m *Manager) newOTLPTraceExporter() (trace.SpanExporter, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(m.config.OTLP.Endpoint)}
	if m.config.OTLP.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(m.config.OTLP.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(m.config.OTLP.Headers))
	}
	return otlptracehttp.New(context.Background(), opts...)
}

func (m *Manager) newOTLPMetricsReader() (sdkmetric.Reader, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(m.config.OTLP.Endpoint)}
	if m.config.OTLP.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(m.config.OTLP.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(m.config.OTLP.Headers))
	}
	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, err
	}
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(m.config.CollectionInterval)), nil
}
