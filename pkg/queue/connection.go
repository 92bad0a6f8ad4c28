package queue

import (
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

func (c *Consumer) initiate() {
	url := getURL(c.cfg)
	cfg := amqpConfig(c.options, c.options.tagPrefix)
	dial := c.options.dialer

	c.logger.Info().Str("url", getSafeURL(c.cfg)).Msg("connecting to RabbitMQ")
	c.transition(StateConnecting)

	c.request(reqConnect, func() any {
		conn, err := dial(url, cfg)

		return dialResult{conn: conn, err: err}
	})
}

func (c *Consumer) onConnectionOpen(conn Connection) {
	c.conn = conn
	c.connClosed = conn.NotifyClose(make(chan *amqp.Error, 1))

	c.logger.Info().Msg("connection opened")
	c.logger.Info().Msg("creating a new channel")
	c.transition(StateChannelOpening)

	c.request(reqChannelOpen, func() any {
		ch, err := conn.Channel()

		return channelResult{ch: ch, err: err}
	})
}

func (c *Consumer) onConnectionOpenError(err error) {
	connErr := &ConnectionError{
		Op:        "dial",
		URL:       getSafeURL(c.cfg),
		Err:       err,
		Timestamp: time.Now(),
	}

	c.logger.Error().Err(connErr).Msg("connection open failed")
	c.fail(connErr)
	c.stop()
}

// onConnectionClosed is the last transition of every session: the loop ends here whether the
// close was requested or not. Without a prior stop request the closure asks for a restart.
func (c *Consumer) onConnectionClosed(reason *amqp.Error) {
	c.connClosed = nil
	c.chanClosed = nil
	c.cancellations = nil
	c.deliveries = nil
	c.channel = nil
	c.conn = nil
	c.settleNamed(reqConnectionClose)

	if c.stopRequested {
		c.logger.Info().Msg("connection closed")
		c.terminate()

		return
	}

	switch {
	case reason != nil:
		c.logger.Warn().Err(reason).Msg("connection closed")
		c.fail(reason)
	case c.Err() == nil:
		c.logger.Warn().Msg("connection closed")
		c.fail(ErrUnexpectedClose)
	default:
		c.logger.Warn().Err(c.Err()).Msg("connection closed after a fault")
		c.fail(nil)
	}

	c.stopRequested = true
	c.terminate()
}

// closeConnection requests the connection close. The loop keeps running until the
// broker notification arrives.
func (c *Consumer) closeConnection() {
	if c.State() == StateClosingConnection {
		return
	}

	if c.conn == nil || c.connClosed == nil {
		c.terminate()

		return
	}

	c.deliveries = nil
	c.transition(StateClosingConnection)
	c.request(reqConnectionClose, nil)

	conn := c.conn
	if conn.IsClosed() {
		return
	}

	c.logger.Info().Msg("closing connection")

	go func() {
		if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			c.logger.Debug().Err(err).Msg("connection close returned an error")
		}
	}()
}
