package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Acknowledger is the part of a channel handed to message handlers.
// Acknowledgement policy belongs to the handler, the consumer never acks on its own.
type Acknowledger interface {
	Ack(tag uint64, multiple bool) error
	Nack(tag uint64, multiple, requeue bool) error
	Reject(tag uint64, requeue bool) error
}

// Channel is the subset of amqp091-go.Channel the consumer drives.
// It exists mainly to be able to substitute the broker in tests.
//
//nolint:interfacebloat // mirrors the amqp091 channel surface used by the consumer
type Channel interface {
	Acknowledger

	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Cancel(consumer string, noWait bool) error

	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	NotifyCancel(receiver chan string) chan string

	Close() error
}

// Connection is the subset of amqp091-go.Connection the consumer drives.
type Connection interface {
	Channel() (Channel, error)
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	IsClosed() bool
	Close() error
}

// Dialer opens a broker connection.
type Dialer func(url string, cfg amqp.Config) (Connection, error)

// amqpConnection adapts *amqp.Connection so Channel returns the Channel interface.
type amqpConnection struct {
	*amqp.Connection
}

func (c *amqpConnection) Channel() (Channel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}

	return ch, nil
}

// DialAMQP is the default Dialer backed by amqp091-go.
func DialAMQP(url string, cfg amqp.Config) (Connection, error) {
	conn, err := amqp.DialConfig(url, cfg)
	if err != nil {
		return nil, err
	}

	return &amqpConnection{Connection: conn}, nil
}
