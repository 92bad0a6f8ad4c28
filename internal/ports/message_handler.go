package ports

import (
	"context"

	"github.com/architeacher/svc-task-runner/pkg/queue"
)

// MessageHandler processes one delivery and settles it through ch.
type MessageHandler interface {
	Handle(ctx context.Context, ch queue.Acknowledger, meta queue.Metadata, props queue.Properties, body []byte) error
}
