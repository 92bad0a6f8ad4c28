package infrastructure

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/architeacher/svc-task-runner/internal/config"
)

const (
	metricsNamespace = "task_runner"
)

type (
	Metrics interface {
		RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration, requestSize, responseSize int64)
		RecordTaskProcessed(ctx context.Context, queue string, duration time.Duration, success bool, errorType string)
		RecordSessionEnded(ctx context.Context, queue string, shouldReconnect bool)
		Handler() http.Handler
		Shutdown(ctx context.Context) error
	}

	OTELMetrics struct {
		meterProvider *sdkmetric.MeterProvider
		meter         metric.Meter
		logger        Logger

		httpRequestTotal    metric.Int64Counter
		httpRequestDuration metric.Float64Histogram
		httpResponseSize    metric.Int64Histogram
		tasksTotal          metric.Int64Counter
		taskDuration        metric.Float64Histogram
		taskErrorsTotal     metric.Int64Counter
		sessionsTotal       metric.Int64Counter
	}
)

func NewMetrics(ctx context.Context, cfg config.ServiceConfig, logger Logger) (Metrics, error) {
	if !cfg.Telemetry.Metrics.Enabled {
		logger.Info().Msg("metrics disabled, using NoOp implementation")

		return &NoOpMetrics{}, nil
	}

	return NewOTELMetrics(ctx, cfg, logger)
}

func NewOTELMetrics(ctx context.Context, cfg config.ServiceConfig, logger Logger) (*OTELMetrics, error) {
	endpoint := net.JoinHostPort(cfg.Telemetry.OtelGRPCHost, cfg.Telemetry.OtelGRPCPort)

	conn, err := grpc.NewClient(
		endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to OTEL collector: %w", err)
	}

	exporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	res, err := newResource(ctx, cfg.AppConfig)
	if err != nil {
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(meterProvider)

	provider, err := newOTELMetrics(meterProvider, cfg.AppConfig.ServiceVersion, logger)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("otel_endpoint", endpoint).
		Msg("OTEL metrics provider initialized successfully")

	return provider, nil
}

func newOTELMetrics(meterProvider *sdkmetric.MeterProvider, version string, logger Logger) (*OTELMetrics, error) {
	provider := &OTELMetrics{
		meterProvider: meterProvider,
		meter:         meterProvider.Meter(metricsNamespace, metric.WithInstrumentationVersion(version)),
		logger:        logger,
	}

	if err := provider.initializeMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return provider, nil
}

func newResource(ctx context.Context, app config.AppConfig) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(app.ServiceName),
			semconv.ServiceVersionKey.String(app.ServiceVersion),
			semconv.ServiceInstanceIDKey.String(app.CommitSHA),
			semconv.DeploymentEnvironmentKey.String(app.Env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return res, nil
}

func (om *OTELMetrics) initializeMetrics() error {
	var err error

	om.httpRequestTotal, err = om.meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of ops HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	om.httpRequestDuration, err = om.meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("Ops HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	om.httpResponseSize, err = om.meter.Int64Histogram(
		"http_response_size_bytes",
		metric.WithDescription("Ops HTTP response size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return fmt.Errorf("failed to create http_response_size_bytes histogram: %w", err)
	}

	om.tasksTotal, err = om.meter.Int64Counter(
		"tasks_total",
		metric.WithDescription("Total number of deliveries handled"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create tasks_total counter: %w", err)
	}

	om.taskDuration, err = om.meter.Float64Histogram(
		"task_duration_seconds",
		metric.WithDescription("Delivery handling duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create task_duration_seconds histogram: %w", err)
	}

	om.taskErrorsTotal, err = om.meter.Int64Counter(
		"task_errors_total",
		metric.WithDescription("Total number of deliveries the handler failed on"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create task_errors_total counter: %w", err)
	}

	om.sessionsTotal, err = om.meter.Int64Counter(
		"consumer_sessions_total",
		metric.WithDescription("Consumer sessions by outcome"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create consumer_sessions_total counter: %w", err)
	}

	return nil
}

func (om *OTELMetrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration, _, responseSize int64) {
	attrs := metric.WithAttributes(
		HTTPMethodAttr(method),
		HTTPPathAttr(path),
		HTTPStatusCodeAttr(statusCode),
	)

	om.httpRequestTotal.Add(ctx, 1, attrs)
	om.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
	om.httpResponseSize.Record(ctx, responseSize, attrs)
}

func (om *OTELMetrics) RecordTaskProcessed(ctx context.Context, queue string, duration time.Duration, success bool, errorType string) {
	status := "success"
	if !success {
		status = "error"
	}

	om.tasksTotal.Add(ctx, 1,
		metric.WithAttributes(
			QueueAttr(queue),
			StatusAttr(status),
		),
	)

	om.taskDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			QueueAttr(queue),
			StatusAttr(status),
		),
	)

	if !success && errorType != "" {
		om.taskErrorsTotal.Add(ctx, 1,
			metric.WithAttributes(
				QueueAttr(queue),
				ErrorTypeAttr(errorType),
			),
		)
	}
}

func (om *OTELMetrics) RecordSessionEnded(ctx context.Context, queue string, shouldReconnect bool) {
	outcome := "stopped"
	if shouldReconnect {
		outcome = "reconnect"
	}

	om.sessionsTotal.Add(ctx, 1,
		metric.WithAttributes(
			QueueAttr(queue),
			OutcomeAttr(outcome),
		),
	)
}

func (om *OTELMetrics) Handler() http.Handler {
	return promhttp.Handler()
}

func (om *OTELMetrics) Shutdown(ctx context.Context) error {
	if err := om.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}

	return nil
}
