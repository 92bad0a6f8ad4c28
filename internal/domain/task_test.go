package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTask_Source(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "billing", Task{AppID: "billing"}.Source())
	assert.Equal(t, "unknown", Task{}.Source())
}

func TestTaskError(t *testing.T) {
	t.Parallel()

	cause := errors.New("channel/connection is not open")
	err := NewAckFailedError(4, cause)

	assert.ErrorIs(t, err, ErrAcknowledgementFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "task #4: ack_failed: channel/connection is not open", err.Error())
}
