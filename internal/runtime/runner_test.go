package runtime

import (
	"context"
	"errors"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architeacher/svc-task-runner/internal/config"
	"github.com/architeacher/svc-task-runner/internal/infrastructure"
	"github.com/architeacher/svc-task-runner/internal/ports"
	"github.com/architeacher/svc-task-runner/pkg/queue"
)

// stubConsumer blocks in Start until Stop unless it is told to end on its own.
type stubConsumer struct {
	endOnStart      bool
	ignoreStop      bool
	shouldReconnect bool
	startErr        error

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
	started  chan struct{}
	stops    int
	mu       sync.Mutex
}

func newStubConsumer() *stubConsumer {
	return &stubConsumer{
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
		started: make(chan struct{}),
	}
}

func (s *stubConsumer) Start(ctx context.Context) error {
	defer close(s.done)
	close(s.started)

	if s.startErr != nil {
		return s.startErr
	}

	if s.endOnStart {
		return nil
	}

	if s.ignoreStop {
		<-ctx.Done()

		return nil
	}

	<-s.stopCh

	return nil
}

func (s *stubConsumer) Stop() {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()

	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

func (s *stubConsumer) stopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stops
}

func (s *stubConsumer) Done() <-chan struct{} { return s.done }

func (s *stubConsumer) ShouldReconnect() bool { return s.shouldReconnect }

func (s *stubConsumer) Err() error {
	if s.shouldReconnect {
		return queue.ErrUnexpectedClose
	}

	return nil
}

func (s *stubConsumer) State() queue.State { return queue.StateClosed }

func (s *stubConsumer) ConsumerTag() string { return "task-runner-test" }

func (s *stubConsumer) QueueName() string { return "tasks" }

func withConsumerOverride(consumer ports.Consumer) DependencyOption {
	return func(d *Dependencies) error {
		d.Consumer = consumer

		return nil
	}
}

func testConfig() *config.ServiceConfig {
	return &config.ServiceConfig{
		AppConfig: config.AppConfig{ServiceName: "svc-task-runner", ServiceVersion: "test"},
		Logging:   config.LoggingConfig{Level: "disabled", Format: "json"},
		Telemetry: config.Telemetry{ExporterType: "stdout"},
		Queue: config.QueueConfig{
			Host:              "localhost",
			Port:              5672,
			Username:          "guest",
			Password:          "guest",
			VirtualHost:       "/",
			QueueName:         "tasks",
			PrefetchCount:     1,
			ConsumerTagPrefix: "task-runner",
		},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("creates runner context with default values", func(t *testing.T) {
		t.Parallel()

		runnerCtx := New()

		require.NotNil(t, runnerCtx)
		require.NotNil(t, runnerCtx.shutdownChannel)
		require.Nil(t, runnerCtx.deps)
		require.Nil(t, runnerCtx.cfg)
	})

	t.Run("creates runner context with options", func(t *testing.T) {
		t.Parallel()

		ch := make(chan os.Signal, 1)
		cfg := testConfig()
		runnerCtx := New(
			WithRunnerTermination(ch),
			WithConfig(cfg),
			WithDependencyOptions(withConsumerOverride(newStubConsumer())),
		)

		require.NotNil(t, runnerCtx)
		require.Equal(t, ch, runnerCtx.shutdownChannel)
		require.Same(t, cfg, runnerCtx.cfg)
		require.Len(t, runnerCtx.dependencyOptions, 1)
	})
}

func TestRunnerCtx_Run(t *testing.T) {
	t.Parallel()

	t.Run("exits cleanly after a termination signal", func(t *testing.T) {
		t.Parallel()

		consumer := newStubConsumer()
		ch := make(chan os.Signal, 1)

		runnerCtx := New(
			WithRunnerTermination(ch),
			WithConfig(testConfig()),
			WithDependencyOptions(withConsumerOverride(consumer)),
		)

		exitCode := make(chan int, 1)
		go func() {
			exitCode <- runnerCtx.Run()
		}()

		select {
		case <-consumer.started:
		case <-time.After(5 * time.Second):
			t.Fatal("consumer was not started")
		}

		ch <- syscall.SIGTERM

		select {
		case code := <-exitCode:
			assert.Equal(t, ExitCodeOK, code)
		case <-time.After(5 * time.Second):
			t.Fatal("runner did not exit")
		}

		assert.Equal(t, 1, consumer.stopCount())
	})

	t.Run("second signal exits without waiting for the cancellation", func(t *testing.T) {
		t.Parallel()

		consumer := newStubConsumer()
		consumer.ignoreStop = true
		ch := make(chan os.Signal, 1)

		runnerCtx := New(
			WithRunnerTermination(ch),
			WithConfig(testConfig()),
			WithDependencyOptions(withConsumerOverride(consumer)),
		)

		exitCode := make(chan int, 1)
		go func() {
			exitCode <- runnerCtx.Run()
		}()

		select {
		case <-consumer.started:
		case <-time.After(5 * time.Second):
			t.Fatal("consumer was not started")
		}

		ch <- syscall.SIGINT

		require.Eventually(t, func() bool {
			return consumer.stopCount() == 1
		}, 5*time.Second, 10*time.Millisecond)

		ch <- syscall.SIGINT

		select {
		case code := <-exitCode:
			assert.Equal(t, ExitCodeReconnect, code)
		case <-time.After(5 * time.Second):
			t.Fatal("runner did not exit on the second signal")
		}

		select {
		case <-consumer.Done():
		case <-time.After(5 * time.Second):
			t.Fatal("consumer context was not cancelled")
		}
	})

	t.Run("asks for a restart when the consumer ends on a fault", func(t *testing.T) {
		t.Parallel()

		consumer := newStubConsumer()
		consumer.endOnStart = true
		consumer.shouldReconnect = true

		runnerCtx := New(
			WithRunnerTermination(make(chan os.Signal, 1)),
			WithConfig(testConfig()),
			WithDependencyOptions(withConsumerOverride(consumer)),
		)

		assert.Equal(t, ExitCodeReconnect, runnerCtx.Run())
		assert.Equal(t, 0, consumer.stopCount())
	})

	t.Run("exits cleanly when the consumer refuses to start", func(t *testing.T) {
		t.Parallel()

		consumer := newStubConsumer()
		consumer.startErr = queue.ErrAlreadyStarted

		runnerCtx := New(
			WithRunnerTermination(make(chan os.Signal, 1)),
			WithConfig(testConfig()),
			WithDependencyOptions(withConsumerOverride(consumer)),
		)

		assert.Equal(t, ExitCodeOK, runnerCtx.Run())
	})

	t.Run("fails the bootstrap when a dependency cannot be built", func(t *testing.T) {
		t.Parallel()

		failing := func(_ *Dependencies) error {
			return errors.New("boom")
		}

		runnerCtx := New(
			WithRunnerTermination(make(chan os.Signal, 1)),
			WithConfig(testConfig()),
			WithDependencyOptions(failing),
		)

		assert.Equal(t, ExitCodeBootstrapFailure, runnerCtx.Run())
	})

	t.Run("fails the bootstrap for an invalid queue configuration", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.Queue.PrefetchCount = 0

		runnerCtx := New(
			WithRunnerTermination(make(chan os.Signal, 1)),
			WithConfig(cfg),
		)

		assert.Equal(t, ExitCodeBootstrapFailure, runnerCtx.Run())
	})
}

func TestInitializeDependencies(t *testing.T) {
	t.Parallel()

	deps, err := initializeDependencies(context.Background(), testConfig(), infrastructure.NewTestLogger())
	require.NoError(t, err)

	assert.NotNil(t, deps.configLoader)
	assert.IsType(t, &infrastructure.NoOpMetrics{}, deps.Infra.Metrics)
	assert.NotNil(t, deps.Workers.TaskWorker)
	assert.NotNil(t, deps.tracerShutdownFunc)
	assert.Nil(t, deps.Infra.OpsServer)

	require.NotNil(t, deps.Consumer)
	assert.Equal(t, "tasks", deps.Consumer.QueueName())
	assert.Equal(t, queue.StateIdle, deps.Consumer.State())
}

func TestExitCodeReconnect(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int(syscall.ECONNABORTED), ExitCodeReconnect)
	assert.NotEqual(t, ExitCodeOK, ExitCodeReconnect)
}
