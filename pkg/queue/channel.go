package queue

import (
	"errors"
	"fmt"
	"strconv"

	amqp "github.com/rabbitmq/amqp091-go"
)

func (c *Consumer) onChannelOpen(res channelResult) {
	if res.err != nil {
		c.failRequest(reqChannelOpen, res.err)

		return
	}

	ch := res.ch
	c.channel = ch
	c.chanClosed = ch.NotifyClose(make(chan *amqp.Error, 1))

	c.logger.Info().Msg("channel opened")
	c.logger.Info().Str("queue", c.queueName).Msg("declaring queue")
	c.transition(StateDeclaring)

	queueName := c.queueName
	c.request(reqQueueDeclare, func() any {
		q, err := ch.QueueDeclare(queueName, queueDurable, queueAutoDelete, queueExclusive, queueNoWait, nil)

		return declareResult{queue: q, err: err}
	})
}

// onChannelClosed reacts to any channel closure, requested or not. Channels are usually closed
// by the broker after a protocol violation, such as redeclaring a queue with different parameters.
func (c *Consumer) onChannelClosed(reason *amqp.Error) {
	c.chanClosed = nil
	c.cancellations = nil
	c.deliveries = nil
	c.channel = nil
	c.settleNamed(reqChannelClose)

	if reason != nil {
		c.logger.Warn().Err(reason).Msg("channel was closed")

		if !c.stopRequested {
			c.fail(reason)
		}
	} else {
		c.logger.Info().Msg("channel was closed")
	}

	if c.State() == StateClosingConnection || c.conn == nil || c.conn.IsClosed() {
		c.logger.Info().Msg("connection is closing or already closed")

		if c.State() != StateClosingConnection {
			c.transition(StateClosingConnection)
		}

		return
	}

	c.closeConnection()
}

func (c *Consumer) onQueueDeclareOk(res declareResult) {
	if res.err != nil {
		c.failRequest(reqQueueDeclare, res.err)

		return
	}

	c.logger.Info().
		Str("queue", res.queue.Name).
		Str("messages", strconv.Itoa(res.queue.Messages)).
		Str("consumers", strconv.Itoa(res.queue.Consumers)).
		Msg("queue declared")
	c.transition(StateSettingQos)

	ch := c.channel
	prefetchCount := c.prefetchCount
	c.request(reqQos, func() any {
		return qosResult{err: ch.Qos(prefetchCount, 0, false)}
	})
}

func (c *Consumer) onQosOk(res qosResult) {
	if res.err != nil {
		c.failRequest(reqQos, res.err)

		return
	}

	c.logger.Info().Str("prefetch_count", strconv.Itoa(c.prefetchCount)).Msg("QoS set")

	ch := c.channel
	c.cancellations = ch.NotifyCancel(make(chan string, 1))

	// The tag identifies the subscription to the broker and is needed to cancel it.
	tag := c.newConsumerTag()
	c.setConsumerTag(tag)

	c.logger.Info().Str("consumer_tag", tag).Msg("issuing consumer related RPC commands")
	c.transition(StateSubscribing)

	queueName := c.queueName
	c.request(reqConsume, func() any {
		deliveries, err := ch.Consume(queueName, tag, false, false, false, false, nil)

		return consumeResult{deliveries: deliveries, err: err}
	})
}

func (c *Consumer) onConsumeOk(res consumeResult) {
	if res.err != nil {
		c.failRequest(reqConsume, res.err)

		return
	}

	c.deliveries = res.deliveries
	c.transition(StateConsuming)
	c.logger.Info().Str("queue", c.queueName).Str("consumer_tag", c.ConsumerTag()).Msg("waiting for messages")

	// A stop that arrived while the subscription was being registered.
	if c.stopRequested {
		c.cancelSubscription()
	}
}

// onRemoteCancellation handles a Basic.Cancel sent by the broker, e.g. because the queue was deleted.
func (c *Consumer) onRemoteCancellation(tag string) {
	c.cancellations = nil

	c.logger.Warn().Str("consumer_tag", tag).Msg("consumer was cancelled remotely, shutting down")

	if !c.stopRequested {
		c.fail(fmt.Errorf("%w: %s", ErrRemoteCancellation, tag))
	}

	c.closeChannel()
}

func (c *Consumer) onCancelOk(res cancelResult) {
	if res.err != nil && !errors.Is(res.err, amqp.ErrClosed) {
		c.logger.Error().Err(res.err).Msg("cancellation failed")
		c.fail(&RequestError{Request: reqCancel, Err: res.err})
	} else {
		c.logger.Info().Msg("RabbitMQ acknowledged the cancellation")
	}

	c.closeChannel()
}

// closeChannel requests the channel close. The broker notification cascades into
// onChannelClosed, which closes the connection.
func (c *Consumer) closeChannel() {
	if c.channel == nil || c.chanClosed == nil {
		c.closeConnection()

		return
	}

	if c.State() == StateClosingChannel {
		return
	}

	c.deliveries = nil
	c.transition(StateClosingChannel)
	c.request(reqChannelClose, nil)

	ch := c.channel

	c.logger.Info().Msg("closing the channel")

	go func() {
		if err := ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			c.logger.Debug().Err(err).Msg("channel close returned an error")
		}
	}()
}

func (c *Consumer) failRequest(name string, err error) {
	reqErr := &RequestError{Request: name, Err: err}

	c.logger.Error().Err(reqErr).Msg("broker request failed")
	c.fail(reqErr)
	c.closeConnection()
}
