package http

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/architeacher/svc-task-runner/internal/ports"
)

// NewStateCollector exposes the consumer lifecycle state as a gauge holding the state ordinal.
func NewStateCollector(consumer ports.ConsumerState) prometheus.Collector {
	return prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "task_runner",
			Subsystem: "consumer",
			Name:      "state",
			Help:      "Lifecycle state of the queue consumer, 6 means consuming and 10 closed.",
			ConstLabels: prometheus.Labels{
				"queue": consumer.QueueName(),
			},
		},
		func() float64 {
			return float64(consumer.State())
		},
	)
}
