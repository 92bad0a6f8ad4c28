package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	opshttp "github.com/architeacher/svc-task-runner/internal/adapters/http"
	"github.com/architeacher/svc-task-runner/internal/adapters/queue"
	"github.com/architeacher/svc-task-runner/internal/config"
	"github.com/architeacher/svc-task-runner/internal/infrastructure"
)

type (
	DependencyOption func(*Dependencies) error
)

func defaultOptions(ctx context.Context) []DependencyOption {
	return []DependencyOption{
		WithConfigLoader(),
		WithMetrics(ctx),
		WithTracing(ctx),
		WithTaskWorker(),
		WithConsumer(),
		WithOpsServer(),
	}
}

func WithConfigLoader() DependencyOption {
	return func(d *Dependencies) error {
		d.configLoader = config.NewLoader(d.cfg, nil)

		return nil
	}
}

func WithMetrics(ctx context.Context) DependencyOption {
	return func(d *Dependencies) error {
		metrics, err := infrastructure.NewMetrics(ctx, *d.cfg, d.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}

		d.Infra.Metrics = metrics

		return nil
	}
}

func WithTracing(ctx context.Context) DependencyOption {
	return func(d *Dependencies) error {
		if !d.cfg.Telemetry.Traces.Enabled {
			d.tracerShutdownFunc = func(_ context.Context) error {
				return nil
			}

			return nil
		}

		tracerShutdownFunc, err := infrastructure.InitGlobalTracer(ctx, d.cfg.Telemetry, d.cfg.AppConfig)
		if err != nil {
			d.logger.Error().Err(err).Msg("failed to initialize global tracer")

			return err
		}

		d.tracerShutdownFunc = tracerShutdownFunc

		return nil
	}
}

func WithTaskWorker() DependencyOption {
	return func(d *Dependencies) error {
		d.Workers.TaskWorker = queue.NewTaskWorker(
			d.cfg.Queue.QueueName,
			otel.GetTracerProvider(),
			d.Infra.Metrics,
			d.logger,
		)

		return nil
	}
}

func WithConsumer() DependencyOption {
	return func(d *Dependencies) error {
		consumer, err := infrastructure.NewConsumer(d.cfg.Queue, d.Workers.TaskWorker.Handle, d.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize consumer: %w", err)
		}

		d.Consumer = consumer

		return nil
	}
}

// WithOpsServer builds the probes server when it is enabled. It must run after the consumer is set.
func WithOpsServer() DependencyOption {
	return func(d *Dependencies) error {
		if !d.cfg.OpsServer.Enabled {
			return nil
		}

		if d.Consumer == nil {
			return errors.New("ops server requires a consumer")
		}

		if err := registerCollector(opshttp.NewStateCollector(d.Consumer)); err != nil {
			return fmt.Errorf("failed to register consumer state collector: %w", err)
		}

		d.Infra.OpsServer = initOpsServer(d.cfg, d.logger, d.Infra.Metrics, d.Consumer)

		return nil
	}
}

func registerCollector(collector prometheus.Collector) error {
	err := prometheus.Register(collector)

	var alreadyRegistered prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegistered) {
		return nil
	}

	return err
}
