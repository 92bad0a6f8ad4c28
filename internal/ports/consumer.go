package ports

import (
	"context"

	"github.com/architeacher/svc-task-runner/pkg/queue"
)

type (
	// ConsumerState is the read side of a running consumer.
	ConsumerState interface {
		State() queue.State
		ConsumerTag() string
		QueueName() string
	}

	// Consumer is a queue consumer driven by the runtime.
	Consumer interface {
		ConsumerState

		Start(ctx context.Context) error
		Stop()
		Done() <-chan struct{}
		ShouldReconnect() bool
		Err() error
	}
)
