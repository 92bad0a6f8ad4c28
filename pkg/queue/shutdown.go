package queue

// stop handles a stop request according to where the lifecycle is. A running subscription is
// cancelled first, an in-flight subscription is awaited, an opening sequence is abandoned and
// a teardown already in progress is left alone.
func (c *Consumer) stop() {
	if c.stopRequested {
		return
	}

	c.stopRequested = true

	switch state := c.State(); {
	case state == StateSubscribing:
		c.logger.Info().Msg("stop requested while subscribing, waiting for the broker confirmation")
	case state == StateConsuming:
		c.cancelSubscription()
	case state.isTearingDown():
		c.logger.Debug().Str("state", state.String()).Msg("stop requested during teardown")
	default:
		c.logger.Info().Str("state", state.String()).Msg("stop requested before consuming, abandoning the connection")
		c.terminate()
	}
}

func (c *Consumer) cancelSubscription() {
	if c.channel == nil {
		c.closeConnection()

		return
	}

	tag := c.ConsumerTag()
	ch := c.channel

	c.logger.Info().Str("consumer_tag", tag).Msg("sending a Basic.Cancel RPC command to RabbitMQ")
	c.transition(StateCancelling)

	c.request(reqCancel, func() any {
		return cancelResult{err: ch.Cancel(tag, false)}
	})
}

func (c *Consumer) onRequestTimeout(id uint64) {
	if c.pending == nil || c.pending.id != id {
		return
	}

	name := c.pending.name
	c.pending = nil

	timeoutErr := &RequestTimeoutError{Request: name, Timeout: c.options.requestTimeout}

	c.logger.Error().Err(timeoutErr).Str("state", c.State().String()).Msg("broker request timed out")
	c.fail(timeoutErr)

	switch name {
	case reqConnect, reqConnectionClose:
		// Nothing left to wait for: the connection is either not there or unresponsive.
		c.stopRequested = true
		c.terminate()
	default:
		c.closeConnection()
	}
}
