package domain

import (
	"time"
)

const unknownSource = "unknown"

// Task is a delivery taken off the tasks queue.
type Task struct {
	DeliveryTag   uint64
	ConsumerTag   string
	Redelivered   bool
	AppID         string
	MessageID     string
	CorrelationID string
	ContentType   string
	PublishedAt   time.Time
	Body          []byte
}

// Source names the publishing application.
func (t Task) Source() string {
	if t.AppID == "" {
		return unknownSource
	}

	return t.AppID
}
