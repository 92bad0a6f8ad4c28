package infrastructure

import (
	"github.com/architeacher/svc-task-runner/internal/config"
	"github.com/architeacher/svc-task-runner/pkg/queue"
)

// NewConsumer builds the tasks queue consumer from the service configuration.
func NewConsumer(cfg config.QueueConfig, handler queue.HandlerFunc, logger Logger, opts ...queue.ConsumerOption) (*queue.Consumer, error) {
	queueConfig := queue.Config{
		Scheme:   "amqp",
		Username: cfg.Username,
		Password: cfg.Password,
		Host:     cfg.Host,
		Port:     cfg.Port,
		Vhost:    cfg.VirtualHost,
	}

	options := []queue.ConsumerOption{
		queue.WithLogger(logger.Component("consumer").QueueLogger()),
		queue.WithConsumerTagPrefix(cfg.ConsumerTagPrefix),
		queue.WithConnectionTimeout(cfg.ConnectTimeout),
		queue.WithHeartbeat(cfg.Heartbeat),
		queue.WithRequestTimeout(cfg.RequestTimeout),
	}

	return queue.NewConsumer(queueConfig, cfg.QueueName, cfg.PrefetchCount, handler, append(options, opts...)...)
}
