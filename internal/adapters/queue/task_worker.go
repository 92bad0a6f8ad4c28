package queue

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/architeacher/svc-task-runner/internal/domain"
	"github.com/architeacher/svc-task-runner/internal/infrastructure"
	"github.com/architeacher/svc-task-runner/internal/ports"
	"github.com/architeacher/svc-task-runner/pkg/queue"
)

const tracerName = "github.com/architeacher/svc-task-runner/internal/adapters/queue"

// Ensure TaskWorker implements the MessageHandler interface
var _ ports.MessageHandler = (*TaskWorker)(nil)

// TaskWorker logs every task and acknowledges it.
type TaskWorker struct {
	queueName  string
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	metrics    infrastructure.Metrics
	logger     infrastructure.Logger
}

func NewTaskWorker(
	queueName string,
	tracerProvider trace.TracerProvider,
	metrics infrastructure.Metrics,
	logger infrastructure.Logger,
) *TaskWorker {
	return &TaskWorker{
		queueName:  queueName,
		tracer:     tracerProvider.Tracer(tracerName),
		propagator: otel.GetTextMapPropagator(),
		metrics:    metrics,
		logger:     logger.Component("task_worker"),
	}
}

func (w *TaskWorker) Handle(ctx context.Context, ch queue.Acknowledger, meta queue.Metadata, props queue.Properties, body []byte) error {
	startTime := time.Now()
	task := newTask(meta, props, body)

	ctx = w.propagator.Extract(ctx, headersCarrier(props.Headers))
	ctx, span := w.tracer.Start(ctx, w.queueName+" process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination.name", w.queueName),
			attribute.String("messaging.message.id", task.MessageID),
			attribute.Int64("messaging.rabbitmq.delivery_tag", int64(task.DeliveryTag)),
		),
	)
	defer span.End()

	w.logger.Info().
		Uint64("delivery_tag", task.DeliveryTag).
		Str("app_id", task.Source()).
		Bool("redelivered", task.Redelivered).
		Int("size", len(task.Body)).
		Msgf("Received message # %d from %s", task.DeliveryTag, task.Source())

	if err := ch.Ack(task.DeliveryTag, false); err != nil {
		taskErr := domain.NewAckFailedError(task.DeliveryTag, err)

		span.RecordError(taskErr)
		span.SetStatus(codes.Error, taskErr.Type)
		w.metrics.RecordTaskProcessed(ctx, w.queueName, time.Since(startTime), false, taskErr.Type)

		return taskErr
	}

	span.SetStatus(codes.Ok, "")
	w.metrics.RecordTaskProcessed(ctx, w.queueName, time.Since(startTime), true, "")

	return nil
}

func newTask(meta queue.Metadata, props queue.Properties, body []byte) domain.Task {
	return domain.Task{
		DeliveryTag:   meta.DeliveryTag,
		ConsumerTag:   meta.ConsumerTag,
		Redelivered:   meta.Redelivered,
		AppID:         props.AppID,
		MessageID:     props.MessageID,
		CorrelationID: props.CorrelationID,
		ContentType:   props.ContentType,
		PublishedAt:   props.Timestamp,
		Body:          body,
	}
}
