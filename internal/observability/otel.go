package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

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
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"jobgate/internal/config"
)

// Metrics holds all custom metrics for the dialogue service.
type Metrics struct {
	// Turn metrics
	TurnDuration  metric.Float64Histogram
	TurnsHandled  metric.Int64Counter
	FallbackTurns metric.Int64Counter

	// AI operation metrics
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Search metrics
	SearchRequests metric.Int64Counter
	SearchResults  metric.Int64Histogram

	// Rate limiting metrics
	RateLimitHits metric.Int64Counter
}

// ObservabilityManager manages OpenTelemetry setup
type ObservabilityManager struct {
	config        config.ObservabilityConfig
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metrics        *Metrics
	shutdownFuncs  []func(context.Context) error
}

// NewObservabilityManager creates a new observability manager. A disabled
// config yields an inert manager whose methods are all safe no-ops.
func NewObservabilityManager(cfg config.ObservabilityConfig) (*ObservabilityManager, error) {
	if !cfg.Enabled {
		return &ObservabilityManager{config: cfg}, nil
	}

	om := &ObservabilityManager{
		config:        cfg,
		shutdownFuncs: make([]func(context.Context) error, 0),
	}

	if err := om.initTracing(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := om.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return om, nil
}

func (om *ObservabilityManager) createResource() (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(om.config.ServiceName),
			semconv.ServiceVersion(om.config.ServiceVersion),
		),
	)
}

// initTracing sets up OpenTelemetry tracing
func (om *ObservabilityManager) initTracing() error {
	var exporter trace.SpanExporter
	var err error

	switch {
	case om.config.Console.Enabled || om.config.ConsoleOutput:
		opts := []stdouttrace.Option{}
		if om.config.Console.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(opts...)
	case om.config.OTLP.Enabled:
		exporter, err = om.createOTLPTraceExporter()
	default:
		exporter = &noOpSpanExporter{}
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := om.createResource()
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	sampleRate := om.config.Tracing.SampleRate
	if sampleRate <= 0 {
		sampleRate = om.config.SampleRate
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.TraceIDRatioBased(sampleRate)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	om.tracerProvider = tp
	om.shutdownFuncs = append(om.shutdownFuncs, tp.Shutdown)

	return nil
}

func (om *ObservabilityManager) createOTLPTraceExporter() (trace.SpanExporter, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(om.config.OTLP.Endpoint),
	}
	if om.config.OTLP.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(om.config.OTLP.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(om.config.OTLP.Headers))
	}
	return otlptracehttp.New(context.Background(), opts...)
}

// initMetrics sets up OpenTelemetry metrics
func (om *ObservabilityManager) initMetrics() error {
	readers, err := om.setupMetricReaders()
	if err != nil {
		return err
	}

	res, err := om.createResource()
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	meterProviderOptions := []sdkmetric.Option{
		sdkmetric.WithResource(res),
	}
	for _, reader := range readers {
		meterProviderOptions = append(meterProviderOptions, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(meterProviderOptions...)

	otel.SetMeterProvider(mp)
	om.meterProvider = mp
	om.shutdownFuncs = append(om.shutdownFuncs, mp.Shutdown)

	return om.initCustomMetrics()
}

// setupMetricReaders sets up all metric readers based on configuration
func (om *ObservabilityManager) setupMetricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader

	if om.config.Console.Enabled || om.config.ConsoleOutput {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		interval := om.config.Metrics.CollectionInterval
		if interval <= 0 {
			interval = 30 * time.Second
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
	}

	if om.config.OTLP.Enabled {
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(om.config.OTLP.Endpoint),
		}
		if om.config.OTLP.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(context.Background(), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter))
	}

	if om.config.Prometheus.Enabled {
		prometheusReader, prometheusMux, err := SetupPrometheusExporter(om.config.Prometheus)
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		readers = append(readers, prometheusReader)

		if err := StartPrometheusServer(prometheusMux, om.config.Prometheus.Port); err != nil {
			return nil, fmt.Errorf("failed to start Prometheus server: %w", err)
		}
	}

	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}

	return readers, nil
}

// initCustomMetrics creates all custom metrics for the dialogue service
func (om *ObservabilityManager) initCustomMetrics() error {
	meter := om.meterProvider.Meter(om.config.ServiceName)
	om.metrics = &Metrics{}

	if err := om.createTurnMetrics(meter); err != nil {
		return err
	}
	if err := om.createAIMetrics(meter); err != nil {
		return err
	}
	if err := om.createSearchMetrics(meter); err != nil {
		return err
	}
	return om.createRateLimitMetrics(meter)
}

func (om *ObservabilityManager) createTurnMetrics(meter metric.Meter) error {
	var err error

	om.metrics.TurnDuration, err = meter.Float64Histogram(
		"jobgate_turn_duration_seconds",
		metric.WithDescription("End-to-end time spent handling a dialogue turn"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create turn duration metric: %w", err)
	}

	om.metrics.TurnsHandled, err = meter.Int64Counter(
		"jobgate_turns_total",
		metric.WithDescription("Total number of dialogue turns handled"),
	)
	if err != nil {
		return fmt.Errorf("failed to create turns handled metric: %w", err)
	}

	om.metrics.FallbackTurns, err = meter.Int64Counter(
		"jobgate_fallback_turns_total",
		metric.WithDescription("Total number of turns answered by the fallback synthesizer"),
	)
	if err != nil {
		return fmt.Errorf("failed to create fallback turns metric: %w", err)
	}

	return nil
}

func (om *ObservabilityManager) createAIMetrics(meter metric.Meter) error {
	var err error

	om.metrics.AIProcessingTime, err = meter.Float64Histogram(
		"jobgate_ai_processing_duration_seconds",
		metric.WithDescription("Time spent in generation requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	om.metrics.AIRequestCount, err = meter.Int64Counter(
		"jobgate_ai_requests_total",
		metric.WithDescription("Total number of generation requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI request count metric: %w", err)
	}

	om.metrics.AIErrorCount, err = meter.Int64Counter(
		"jobgate_ai_errors_total",
		metric.WithDescription("Total number of generation request errors"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI error count metric: %w", err)
	}

	om.metrics.AITokenUsage, err = meter.Int64Histogram(
		"jobgate_ai_token_usage_total",
		metric.WithDescription("Token usage for generation requests (input, output, total)"),
		metric.WithUnit("tokens"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	return nil
}

func (om *ObservabilityManager) createSearchMetrics(meter metric.Meter) error {
	var err error

	om.metrics.SearchRequests, err = meter.Int64Counter(
		"jobgate_search_requests_total",
		metric.WithDescription("Total number of listing searches performed"),
	)
	if err != nil {
		return fmt.Errorf("failed to create search request metric: %w", err)
	}

	om.metrics.SearchResults, err = meter.Int64Histogram(
		"jobgate_search_results",
		metric.WithDescription("Number of listings returned per search"),
	)
	if err != nil {
		return fmt.Errorf("failed to create search results metric: %w", err)
	}

	return nil
}

func (om *ObservabilityManager) createRateLimitMetrics(meter metric.Meter) error {
	var err error

	om.metrics.RateLimitHits, err = meter.Int64Counter(
		"jobgate_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return nil
}

// GetMetrics returns the metrics instance
func (om *ObservabilityManager) GetMetrics() *Metrics {
	if om.metrics == nil {
		return &Metrics{}
	}
	return om.metrics
}

// HTTPMiddleware returns HTTP middleware with OpenTelemetry instrumentation
func (om *ObservabilityManager) HTTPMiddleware() func(http.Handler) http.Handler {
	if !om.config.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}

	return otelhttp.NewMiddleware(
		om.config.ServiceName,
		otelhttp.WithTracerProvider(om.tracerProvider),
		otelhttp.WithMeterProvider(om.meterProvider),
	)
}

// Tracer returns a tracer for the service
func (om *ObservabilityManager) Tracer(name string) oteltrace.Tracer {
	if !om.config.Enabled {
		return noop.NewTracerProvider().Tracer(name)
	}
	return otel.Tracer(name)
}

// Shutdown gracefully shuts down all observability components
func (om *ObservabilityManager) Shutdown(ctx context.Context) error {
	for _, shutdown := range om.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RecordTurn records one handled turn with its duration and degraded flag.
func (m *Metrics) RecordTurn(ctx context.Context, duration time.Duration, fallback bool) {
	if m == nil || m.TurnsHandled == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("fallback", fallback))
	m.TurnsHandled.Add(ctx, 1, attrs)
	m.TurnDuration.Record(ctx, duration.Seconds(), attrs)
	if fallback {
		m.FallbackTurns.Add(ctx, 1)
	}
}

// RecordAIOperation records one generation attempt.
func (m *Metrics) RecordAIOperation(ctx context.Context, provider string, duration time.Duration, err error, input, output, total int64) {
	if m == nil || m.AIRequestCount == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("provider", provider),
		attribute.Bool("success", err == nil),
	}

	m.AIProcessingTime.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}

	if total > 0 {
		m.AITokenUsage.Record(ctx, input, metric.WithAttributes(attribute.String("token_type", "input")))
		m.AITokenUsage.Record(ctx, output, metric.WithAttributes(attribute.String("token_type", "output")))
		m.AITokenUsage.Record(ctx, total, metric.WithAttributes(attribute.String("token_type", "total")))
	}
}

// RecordSearch records one listing search and its outcome.
func (m *Metrics) RecordSearch(ctx context.Context, items int, degraded bool) {
	if m == nil || m.SearchRequests == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("degraded", degraded))
	m.SearchRequests.Add(ctx, 1, attrs)
	m.SearchResults.Record(ctx, int64(items), attrs)
}

// RecordRateLimitHit records one rejected request.
func (m *Metrics) RecordRateLimitHit(ctx context.Context, keyType string) {
	if m == nil || m.RateLimitHits == nil {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("key_type", keyType)))
}

// noOpSpanExporter drops all spans. Used when tracing is enabled but no
// exporter destination is configured.
type noOpSpanExporter struct{}

func (e *noOpSpanExporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	return nil
}

func (e *noOpSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}
