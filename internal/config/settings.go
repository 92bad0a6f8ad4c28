package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Compile time variables are set by -ldflags.
var (
	ServiceVersion string
	CommitSHA      string
)

var (
	ErrEmptyQueueName       = errors.New("TASKS_QUEUE_NAME must not be empty")
	ErrInvalidPrefetchValue = errors.New("PREFETCH_VALUE must be between 1 and 65535")
	ErrInvalidLogFormat     = errors.New("LOGGING_FORMAT must be json or console")
	ErrInvalidExporter      = errors.New("OTEL_EXPORTER must be grpc or stdout")
)

type (
	ServiceConfig struct {
		AppConfig AppConfig       `json:"app_config"`
		Logging   LoggingConfig   `json:"logging"`
		Telemetry Telemetry       `json:"telemetry"`
		Queue     QueueConfig     `json:"queue"`
		OpsServer OpsServerConfig `json:"ops_server"`
	}

	AppConfig struct {
		ServiceName    string `envconfig:"APP_SERVICE_NAME" default:"svc-task-runner" json:"service_name"`
		ServiceVersion string `envconfig:"APP_SERVICE_VERSION" default:"0.0.0" json:"service_version"`
		CommitSHA      string `envconfig:"APP_COMMIT_SHA" default:"unknown" json:"commit_sha"`
		Env            string `envconfig:"APP_ENVIRONMENT" default:"unknown" json:"env"`
	}

	LoggingConfig struct {
		Level     string          `envconfig:"LOGGING_LEVEL" default:"info" json:"level"`
		Format    string          `envconfig:"LOGGING_FORMAT" default:"json" json:"format"`
		AccessLog AccessLogConfig `json:"access_log"`
	}

	AccessLogConfig struct {
		Enabled         bool `envconfig:"ACCESS_LOG_ENABLED" default:"true" json:"enabled"`
		LogHealthChecks bool `envconfig:"ACCESS_LOG_HEALTH_CHECKS" default:"false" json:"log_health_checks"`
	}

	Telemetry struct {
		ExporterType string `envconfig:"OTEL_EXPORTER" default:"grpc" json:"exporter_type"`

		OtelGRPCHost string `envconfig:"OTEL_HOST" json:"otel_grpc_host"`
		OtelGRPCPort string `envconfig:"OTEL_PORT" default:"4317" json:"otel_grpc_port"`

		Metrics Metrics `json:"metrics"`
		Traces  Traces  `json:"traces"`
	}

	Metrics struct {
		Enabled bool `envconfig:"METRICS_ENABLED" default:"false" json:"enabled"`
	}

	Traces struct {
		Enabled      bool    `envconfig:"TRACES_ENABLED" default:"false" json:"enabled"`
		SamplerRatio float64 `envconfig:"TRACES_SAMPLER_RATIO" default:"1" json:"sampler_ratio"`
	}

	QueueConfig struct {
		Host              string        `envconfig:"RABBITMQ_HOST" default:"localhost" json:"host"`
		Port              int           `envconfig:"RABBITMQ_PORT" default:"5672" json:"port"`
		Username          string        `envconfig:"RABBITMQ_USERNAME" default:"guest" json:"username"`
		Password          string        `envconfig:"RABBITMQ_PASSWORD" default:"guest" json:"-"`
		VirtualHost       string        `envconfig:"RABBITMQ_VIRTUAL_HOST" default:"/" json:"virtual_host"`
		QueueName         string        `envconfig:"TASKS_QUEUE_NAME" default:"tasks" json:"queue_name"`
		PrefetchCount     int           `envconfig:"PREFETCH_VALUE" default:"1" json:"prefetch_count"`
		ConnectTimeout    time.Duration `envconfig:"RABBITMQ_CONNECT_TIMEOUT" default:"30s" json:"connect_timeout"`
		Heartbeat         time.Duration `envconfig:"RABBITMQ_HEARTBEAT" default:"10s" json:"heartbeat"`
		RequestTimeout    time.Duration `envconfig:"RABBITMQ_REQUEST_TIMEOUT" default:"0s" json:"request_timeout"`
		ConsumerTagPrefix string        `envconfig:"RABBITMQ_CONSUMER_TAG_PREFIX" default:"task-runner" json:"consumer_tag_prefix"`
	}

	OpsServerConfig struct {
		Enabled         bool          `envconfig:"OPS_SERVER_ENABLED" default:"false" json:"enabled"`
		Host            string        `envconfig:"OPS_SERVER_HOST" default:"0.0.0.0" json:"host"`
		Port            int           `envconfig:"OPS_SERVER_PORT" default:"8089" json:"port"`
		ReadTimeout     time.Duration `envconfig:"OPS_SERVER_READ_TIMEOUT" default:"5s" json:"read_timeout"`
		WriteTimeout    time.Duration `envconfig:"OPS_SERVER_WRITE_TIMEOUT" default:"10s" json:"write_timeout"`
		IdleTimeout     time.Duration `envconfig:"OPS_SERVER_IDLE_TIMEOUT" default:"60s" json:"idle_timeout"`
		ShutdownTimeout time.Duration `envconfig:"OPS_SERVER_SHUTDOWN_TIMEOUT" default:"10s" json:"shutdown_timeout"`
	}
)

// Validate rejects configurations the consumer cannot start with.
func (c *ServiceConfig) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Queue.QueueName) == "" {
		errs = append(errs, ErrEmptyQueueName)
	}

	if c.Queue.PrefetchCount < 1 || c.Queue.PrefetchCount > math.MaxUint16 {
		errs = append(errs, fmt.Errorf("%w, got %d", ErrInvalidPrefetchValue, c.Queue.PrefetchCount))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("%w, got %q", ErrInvalidLogFormat, c.Logging.Format))
	}

	switch strings.ToLower(c.Telemetry.ExporterType) {
	case "grpc", "stdout":
	default:
		errs = append(errs, fmt.Errorf("%w, got %q", ErrInvalidExporter, c.Telemetry.ExporterType))
	}

	return errors.Join(errs...)
}
