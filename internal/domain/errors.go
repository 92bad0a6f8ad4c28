package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAcknowledgementFailed = errors.New("acknowledgement failed")
)

const (
	ErrorTypeAckFailed = "ack_failed"
)

// TaskError describes a delivery that could not be settled with the broker.
type TaskError struct {
	DeliveryTag uint64
	Type        string
	Cause       error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task #%d: %s: %v", e.DeliveryTag, e.Type, e.Cause)
}

func (e *TaskError) Unwrap() []error {
	return []error{ErrAcknowledgementFailed, e.Cause}
}

func NewAckFailedError(deliveryTag uint64, cause error) *TaskError {
	return &TaskError{
		DeliveryTag: deliveryTag,
		Type:        ErrorTypeAckFailed,
		Cause:       cause,
	}
}
