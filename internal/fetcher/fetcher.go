package fetcher

import (
	"context"
	"time"

	"jobmatch/internal/config"
	"jobmatch/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Strategy retrieves the raw visible text of a page
type Strategy interface {
	Name() string
	Retrieve(ctx context.Context, url string) (string, error)
}

// MetricsRecorder receives one observation per strategy attempt
type MetricsRecorder interface {
	TrackFetch(ctx context.Context, strategy string, success bool, duration time.Duration)
}

// Fetcher turns a job posting URL into normalized text. It tries the primary
// strategy once and the fallback once; it never returns an error.
type Fetcher struct {
	primary  Strategy // may be nil
	fallback Strategy
	metrics  MetricsRecorder
	logger   *errors.Logger
}

// New creates a fetcher from explicit strategies. primary may be nil.
func New(primary, fallback Strategy, logger *errors.Logger) *Fetcher {
	if logger == nil {
		logger = errors.NopLogger()
	}
	return &Fetcher{primary: primary, fallback: fallback, logger: logger}
}

// NewFromConfig wires the headless browser and plain HTTP strategies
func NewFromConfig(cfg config.FetcherConfig, logger *errors.Logger) *Fetcher {
	var primary Strategy
	if cfg.BrowserEnabled {
		primary = NewBrowserRenderer(cfg.UserAgent, cfg.BrowserTimeout, cfg.IdleWindow, cfg.ChromePath)
	}
	return New(primary, NewHTTPFetcher(cfg.UserAgent, cfg.HTTPTimeout, cfg.MaxBodyBytes), logger)
}

// WithMetrics attaches a recorder and returns the fetcher
func (f *Fetcher) WithMetrics(m MetricsRecorder) *Fetcher {
	f.metrics = m
	return f
}

// Fetch returns the normalized page text, or "" when every strategy failed
func (f *Fetcher) Fetch(ctx context.Context, url string) string {
	ctx, span := otel.Tracer("jobmatch.fetcher").Start(ctx, "fetcher.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("fetch.url", url))

	for _, strategy := range []Strategy{f.primary, f.fallback} {
		if strategy == nil {
			continue
		}
		if text := f.attempt(ctx, strategy, url); text != "" {
			span.SetAttributes(
				attribute.String("fetch.strategy", strategy.Name()),
				attribute.Int("fetch.chars", len(text)),
			)
			return text
		}
		if ctx.Err() != nil {
			break
		}
	}

	span.SetStatus(codes.Error, "all fetch strategies failed")
	f.logger.Warn("Failed to retrieve page content", "url", url)
	return ""
}

func (f *Fetcher) attempt(ctx context.Context, strategy Strategy, url string) string {
	start := time.Now()
	raw, err := strategy.Retrieve(ctx, url)
	text := Normalize(raw)
	success := err == nil && text != ""

	if f.metrics != nil {
		f.metrics.TrackFetch(ctx, strategy.Name(), success, time.Since(start))
	}

	switch {
	case err != nil:
		f.logger.Warn("Fetch strategy failed",
			"strategy", strategy.Name(),
			"url", url,
			"error", err.Error(),
			"duration_ms", time.Since(start).Milliseconds())
		return ""
	case text == "":
		f.logger.Warn("Fetch strategy returned no text", "strategy", strategy.Name(), "url", url)
		return ""
	}

	f.logger.Debug("Fetched page",
		"strategy", strategy.Name(),
		"url", url,
		"chars", len(text),
		"duration_ms", time.Since(start).Milliseconds())
	return text
}
