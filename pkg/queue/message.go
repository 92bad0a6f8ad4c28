package queue

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// HandlerFunc processes one delivery. It runs on the consumer's loop goroutine, so no other
// delivery or lifecycle event is handled until it returns. A non-nil error or a panic is a
// fault: the consumer tears the channel down and asks for a restart.
//
// The handler owns acknowledgement, negative acknowledgement and retries through ch.
type HandlerFunc func(ctx context.Context, ch Acknowledger, meta Metadata, props Properties, body []byte) error

// Metadata describes how a message reached the subscription.
type Metadata struct {
	DeliveryTag uint64
	ConsumerTag string
	Redelivered bool
	Exchange    string
	RoutingKey  string
}

// Properties are the basic properties the publisher attached to the message.
type Properties struct {
	AppID           string
	ContentType     string
	ContentEncoding string
	Headers         amqp.Table
	DeliveryMode    uint8
	Priority        uint8
	CorrelationID   string
	ReplyTo         string
	Expiration      string
	MessageID       string
	Timestamp       time.Time
	Type            string
	UserID          string
}

func newMetadata(d amqp.Delivery) Metadata {
	return Metadata{
		DeliveryTag: d.DeliveryTag,
		ConsumerTag: d.ConsumerTag,
		Redelivered: d.Redelivered,
		Exchange:    d.Exchange,
		RoutingKey:  d.RoutingKey,
	}
}

func newProperties(d amqp.Delivery) Properties {
	return Properties{
		AppID:           d.AppId,
		ContentType:     d.ContentType,
		ContentEncoding: d.ContentEncoding,
		Headers:         d.Headers,
		DeliveryMode:    d.DeliveryMode,
		Priority:        d.Priority,
		CorrelationID:   d.CorrelationId,
		ReplyTo:         d.ReplyTo,
		Expiration:      d.Expiration,
		MessageID:       d.MessageId,
		Timestamp:       d.Timestamp,
		Type:            d.Type,
		UserID:          d.UserId,
	}
}
