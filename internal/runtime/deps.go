package runtime

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	opshttp "github.com/architeacher/svc-task-runner/internal/adapters/http"
	"github.com/architeacher/svc-task-runner/internal/adapters/middleware"
	"github.com/architeacher/svc-task-runner/internal/config"
	"github.com/architeacher/svc-task-runner/internal/infrastructure"
	"github.com/architeacher/svc-task-runner/internal/ports"
)

type (
	InfrastructureDeps struct {
		OpsServer *http.Server
		Metrics   infrastructure.Metrics
	}

	Workers struct {
		TaskWorker ports.MessageHandler
	}

	Dependencies struct {
		Consumer ports.Consumer
		Workers  Workers
		Infra    InfrastructureDeps

		cfg          *config.ServiceConfig
		configLoader *config.Loader

		logger infrastructure.Logger

		tracerShutdownFunc infrastructure.TracerShutdownFunc
	}
)

func initializeDependencies(
	ctx context.Context,
	cfg *config.ServiceConfig,
	logger infrastructure.Logger,
	opts ...DependencyOption,
) (*Dependencies, error) {
	logger.Info().Msg("initializing dependencies...")

	deps := &Dependencies{
		cfg:    cfg,
		logger: logger,
	}

	// Start with default options and append any additional options.
	options := append(defaultOptions(ctx), opts...)

	for _, opt := range options {
		if err := opt(deps); err != nil {
			return nil, fmt.Errorf("failed to apply dependency option: %w", err)
		}
	}

	deps.logger.Info().Msg("dependencies initialized successfully")

	return deps, nil
}

func initOpsServer(
	cfg *config.ServiceConfig,
	logger infrastructure.Logger,
	metrics infrastructure.Metrics,
	consumer ports.ConsumerState,
) *http.Server {
	logger.Info().Msg("creating ops server...")

	router := chi.NewRouter()
	router.Use(initMiddlewares(cfg, logger, metrics)...)

	opshttp.NewOpsHandler(consumer, cfg.AppConfig.ServiceVersion, metrics, logger).Routes(router)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.OpsServer.Host, strconv.Itoa(cfg.OpsServer.Port)),
		Handler:      router,
		ReadTimeout:  cfg.OpsServer.ReadTimeout,
		WriteTimeout: cfg.OpsServer.WriteTimeout,
		IdleTimeout:  cfg.OpsServer.IdleTimeout,
	}

	logger.Info().Str("addr", server.Addr).Msg("ops server created")

	return server
}

func initMiddlewares(
	cfg *config.ServiceConfig,
	logger infrastructure.Logger,
	metrics infrastructure.Metrics,
) []func(http.Handler) http.Handler {
	middlewares := []func(http.Handler) http.Handler{
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
	}

	if cfg.Telemetry.Metrics.Enabled {
		metricsMiddleware := middleware.NewMetricsMiddleware(metrics)
		middlewares = append(middlewares, metricsMiddleware.Middleware)
		logger.Info().Msg("HTTP metrics collection enabled")
	}

	if cfg.Logging.AccessLog.Enabled {
		healthFilter := middleware.NewHealthCheckFilter(cfg.Logging.AccessLog.LogHealthChecks)
		accessLogger := middleware.NewAccessLogger(logger.Logger)

		middlewares = append(middlewares, healthFilter.Middleware, accessLogger.Middleware)
		logger.Info().
			Bool("log_health_checks", cfg.Logging.AccessLog.LogHealthChecks).
			Msg("structured access logging enabled")
	}

	return middlewares
}
