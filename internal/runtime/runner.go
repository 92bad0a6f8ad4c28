package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/architeacher/svc-task-runner/internal/config"
	"github.com/architeacher/svc-task-runner/internal/infrastructure"
)

const (
	ExitCodeOK = 0
	// ExitCodeBootstrapFailure is returned when the service could not be assembled.
	ExitCodeBootstrapFailure = 1
	// ExitCodeReconnect asks the supervisor to start the process again.
	ExitCodeReconnect = int(syscall.ECONNABORTED)
)

const telemetryFlushTimeout = 5 * time.Second

type RunnerCtx struct {
	deps *Dependencies
	cfg  *config.ServiceConfig

	dependencyOptions []DependencyOption

	shutdownChannel chan os.Signal

	ctx        context.Context
	cancelFunc context.CancelFunc

	consumerDone chan error
	forcedExit   bool
}

func New(opt ...RunnerOption) *RunnerCtx {
	rCtx := &RunnerCtx{
		shutdownChannel: make(chan os.Signal, 1),
	}

	for i := range opt {
		opt[i](rCtx)
	}

	return rCtx
}

// Run assembles the service, consumes until a stop signal or a consumer fault, and returns the
// process exit code.
func (c *RunnerCtx) Run() int {
	if err := c.build(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)

		return ExitCodeBootstrapFailure
	}

	c.start()
	c.monitorConfigSignals()
	c.wait()

	return c.shutdown()
}

func (c *RunnerCtx) build() error {
	if c.cfg == nil {
		cfg, err := config.Init()
		if err != nil {
			return fmt.Errorf("unable to load service configuration: %w", err)
		}

		c.cfg = cfg
	} else if err := c.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid service configuration: %w", err)
	}

	logger := infrastructure.New(c.cfg.Logging)

	c.ctx, c.cancelFunc = context.WithCancel(context.Background())

	deps, err := initializeDependencies(c.ctx, c.cfg, logger, c.dependencyOptions...)
	if err != nil {
		c.cancelFunc()

		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	c.deps = deps

	return nil
}

func (c *RunnerCtx) start() {
	c.deps.logger.Info().
		Str("queue", c.cfg.Queue.QueueName).
		Str("version", c.cfg.AppConfig.ServiceVersion).
		Msg("starting task runner")

	c.consumerDone = make(chan error, 1)

	go func() {
		c.consumerDone <- c.deps.Consumer.Start(c.ctx)
	}()

	if server := c.deps.Infra.OpsServer; server != nil {
		go func() {
			c.deps.logger.Info().Str("address", server.Addr).Msg("ops server starting up")

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				c.deps.logger.Error().Err(err).Msg("ops server stopped unexpectedly")
			}
		}()
	}
}

func (c *RunnerCtx) monitorConfigSignals() {
	c.deps.configLoader.WatchConfigSignals(c.ctx)
}

// wait blocks until a termination signal arrives or the consumer ends on its own.
func (c *RunnerCtx) wait() {
	signal.Notify(c.shutdownChannel, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(c.shutdownChannel)

	select {
	case sig := <-c.shutdownChannel:
		c.deps.logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		c.deps.Consumer.Stop()

		select {
		case err := <-c.consumerDone:
			c.logStartResult(err)
		case sig := <-c.shutdownChannel:
			// A second signal gives up on the orderly cancellation.
			c.deps.logger.Warn().Str("signal", sig.String()).Msg("received second shutdown signal, exiting without waiting for the consumer")
			c.forcedExit = true
		}

	case err := <-c.consumerDone:
		c.logStartResult(err)
	}
}

func (c *RunnerCtx) logStartResult(err error) {
	if err != nil {
		c.deps.logger.Error().Err(err).Msg("consumer failed to start")
	}
}

func (c *RunnerCtx) shutdown() int {
	defer c.cancelFunc()

	consumer := c.deps.Consumer
	shouldReconnect := consumer.ShouldReconnect() || c.forcedExit

	logEvent := c.deps.logger.Info()
	if shouldReconnect {
		logEvent = c.deps.logger.Warn()
	}

	if err := consumer.Err(); err != nil {
		logEvent = logEvent.Err(err)
	}

	logEvent.
		Bool("should_reconnect", shouldReconnect).
		Str("consumer_tag", consumer.ConsumerTag()).
		Msg("consumer stopped")

	c.deps.Infra.Metrics.RecordSessionEnded(c.ctx, consumer.QueueName(), shouldReconnect)

	c.cleanup()

	if shouldReconnect {
		return ExitCodeReconnect
	}

	return ExitCodeOK
}

func (c *RunnerCtx) cleanup() {
	c.deps.logger.Info().Msg("cleaning up resources...")

	if server := c.deps.Infra.OpsServer; server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.cfg.OpsServer.ShutdownTimeout)

		if err := server.Shutdown(shutdownCtx); err != nil {
			c.deps.logger.Error().Err(err).Msg("unable to gracefully shutdown ops server")
		}

		cancel()
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
	defer cancel()

	if err := c.deps.Infra.Metrics.Shutdown(flushCtx); err != nil {
		c.deps.logger.Error().Err(err).Msg("failed to flush metrics")
	}

	if c.deps.tracerShutdownFunc != nil {
		if err := c.deps.tracerShutdownFunc(flushCtx); err != nil {
			c.deps.logger.Error().Err(err).Msg("failed to flush traces")
		}
	}

	c.deps.logger.Info().Msg("cleanup completed")
}
