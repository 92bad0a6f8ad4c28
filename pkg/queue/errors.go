package queue

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNilHandler is returned when a consumer is built without a message handler.
	ErrNilHandler = errors.New("message handler must not be nil")
	// ErrEmptyQueueName is returned when a consumer is built without a queue name.
	ErrEmptyQueueName = errors.New("queue name must not be empty")
	// ErrInvalidPrefetchCount is returned for a prefetch count outside [1, 65535].
	ErrInvalidPrefetchCount = errors.New("prefetch count must be between 1 and 65535")
	// ErrAlreadyStarted is returned when Start is called more than once on the same consumer.
	ErrAlreadyStarted = errors.New("consumer already started")
	// ErrRemoteCancellation describes a subscription revoked by the broker, e.g. a deleted queue.
	ErrRemoteCancellation = errors.New("consumer cancelled remotely")
	// ErrUnexpectedClose describes a connection that went away without a stop request.
	ErrUnexpectedClose = errors.New("connection closed unexpectedly")
)

// ConnectionError describes a failed attempt to reach the broker.
type ConnectionError struct {
	Op        string
	URL       string
	Err       error
	Timestamp time.Time
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// RequestError describes a broker request that completed with an error.
type RequestError struct {
	Request string
	Err     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Request, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// RequestTimeoutError describes a broker request that was not acknowledged in time.
type RequestTimeoutError struct {
	Request string
	Timeout time.Duration
}

func (e *RequestTimeoutError) Error() string {
	return fmt.Sprintf("%s was not acknowledged within %s", e.Request, e.Timeout)
}

// HandlerFaultError describes a message handler that failed while processing a delivery.
// Panic holds the recovered value when the handler panicked instead of returning an error.
type HandlerFaultError struct {
	DeliveryTag uint64
	Err         error
	Panic       any
}

func (e *HandlerFaultError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("handler panicked on delivery #%d: %v", e.DeliveryTag, e.Panic)
	}

	return fmt.Sprintf("handler failed on delivery #%d: %v", e.DeliveryTag, e.Err)
}

func (e *HandlerFaultError) Unwrap() error {
	return e.Err
}
