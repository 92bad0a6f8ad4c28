package queue

import (
	"strconv"

	amqp "github.com/rabbitmq/amqp091-go"
)

func (c *Consumer) dispatch(d amqp.Delivery) {
	if state := c.State(); state != StateConsuming && state != StateCancelling {
		c.logger.Debug().
			Str("delivery_tag", strconv.FormatUint(d.DeliveryTag, 10)).
			Str("state", state.String()).
			Msg("dropping delivery, it will be redelivered by the broker")

		return
	}

	meta := newMetadata(d)
	props := newProperties(d)

	c.logger.Debug().
		Str("delivery_tag", strconv.FormatUint(meta.DeliveryTag, 10)).
		Str("app_id", props.AppID).
		Msg("received message")

	if err := c.invoke(meta, props, d.Body); err != nil {
		c.logger.Error().Err(err).Msg("message handler failed, closing the channel")
		c.fail(err)
		c.closeChannel()
	}
}

// invoke runs the handler, turning a returned error or a panic into a HandlerFaultError.
func (c *Consumer) invoke(meta Metadata, props Properties, body []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fault := &HandlerFaultError{DeliveryTag: meta.DeliveryTag, Panic: r}
			if e, ok := r.(error); ok {
				fault.Err = e
			}

			err = fault
		}
	}()

	if handlerErr := c.handler(c.ctx, c.channel, meta, props, body); handlerErr != nil {
		return &HandlerFaultError{DeliveryTag: meta.DeliveryTag, Err: handlerErr}
	}

	return nil
}
