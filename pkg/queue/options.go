package queue

import (
	"time"
)

type consumerOptions struct {
	logger            Logger
	dialer            Dialer
	tagPrefix         string
	requestTimeout    time.Duration
	heartbeat         time.Duration
	connectionTimeout time.Duration
}

// ConsumerOption configures a NewConsumer call.
type ConsumerOption func(*consumerOptions)

// WithLogger returns a ConsumerOption which sets the logger used by the consumer.
func WithLogger(l Logger) ConsumerOption {
	return func(o *consumerOptions) {
		o.logger = l
	}
}

// WithDialer returns a ConsumerOption which replaces the function used to reach the broker.
func WithDialer(d Dialer) ConsumerOption {
	return func(o *consumerOptions) {
		o.dialer = d
	}
}

// WithConsumerTagPrefix returns a ConsumerOption which sets the prefix of generated consumer tags.
// The prefix is also announced as the connection name.
func WithConsumerTagPrefix(prefix string) ConsumerOption {
	return func(o *consumerOptions) {
		o.tagPrefix = prefix
	}
}

// WithRequestTimeout returns a ConsumerOption which bounds every outstanding broker request
// (connect, channel open, declare, QoS, subscribe, cancel, close). An expired request is a
// fault and asks for a restart. Zero, the default, waits forever.
func WithRequestTimeout(d time.Duration) ConsumerOption {
	return func(o *consumerOptions) {
		o.requestTimeout = d
	}
}

// WithHeartbeat returns a ConsumerOption which sets the heartbeat interval negotiated with the broker.
func WithHeartbeat(d time.Duration) ConsumerOption {
	return func(o *consumerOptions) {
		o.heartbeat = d
	}
}

// WithConnectionTimeout returns a ConsumerOption which sets the TCP dial and handshake timeout.
func WithConnectionTimeout(d time.Duration) ConsumerOption {
	return func(o *consumerOptions) {
		o.connectionTimeout = d
	}
}

func defaultConsumerOptions() consumerOptions {
	return consumerOptions{
		logger:            nopLogger{},
		dialer:            DialAMQP,
		tagPrefix:         "consumer",
		heartbeat:         defaultHeartbeat,
		connectionTimeout: defaultConnectionTimeout,
	}
}
