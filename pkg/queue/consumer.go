package queue

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue declaration parameters are fixed. Redeclaring a queue with different parameters is a
// protocol violation that makes the broker close the channel, so they must never vary between
// connections for the same queue name.
const (
	queueDurable    = false
	queueAutoDelete = false
	queueExclusive  = false
	queueNoWait     = false
)

const (
	reqConnect         = "connection.open"
	reqChannelOpen     = "channel.open"
	reqQueueDeclare    = "queue.declare"
	reqQos             = "basic.qos"
	reqConsume         = "basic.consume"
	reqCancel          = "basic.cancel"
	reqChannelClose    = "channel.close"
	reqConnectionClose = "connection.close"
)

type (
	// completion carries the result of an outstanding broker request back to the loop.
	completion struct {
		id     uint64
		result any
	}

	requestExpired struct {
		id uint64
	}

	dialResult struct {
		conn Connection
		err  error
	}

	channelResult struct {
		ch  Channel
		err error
	}

	declareResult struct {
		queue amqp.Queue
		err   error
	}

	qosResult struct {
		err error
	}

	consumeResult struct {
		deliveries <-chan amqp.Delivery
		err        error
	}

	cancelResult struct {
		err error
	}

	pendingRequest struct {
		id    uint64
		name  string
		timer *time.Timer
	}
)

func (r *pendingRequest) stop() {
	if r != nil && r.timer != nil {
		r.timer.Stop()
	}
}

// Consumer subscribes to a single queue and dispatches deliveries to a handler until it is
// stopped or the broker side fails. It never reconnects by itself: once Start returns,
// ShouldReconnect tells the caller whether the process should be restarted.
type Consumer struct {
	cfg           Config
	queueName     string
	prefetchCount int
	handler       HandlerFunc
	options       consumerOptions
	logger        Logger

	ctx context.Context

	// Owned by the loop goroutine.
	conn          Connection
	channel       Channel
	stopRequested bool
	pending       *pendingRequest
	requestSeq    uint64
	connClosed    chan *amqp.Error
	chanClosed    chan *amqp.Error
	cancellations chan string
	deliveries    <-chan amqp.Delivery

	events   chan any
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	started  atomic.Bool

	state           atomic.Int32
	shouldReconnect atomic.Bool

	mu          sync.RWMutex
	consumerTag string
	err         error
}

// NewConsumer validates its arguments and returns a consumer ready to Start.
// Nothing is dialed until Start is called.
func NewConsumer(
	cfg Config,
	queueName string,
	prefetchCount int,
	handler HandlerFunc,
	opts ...ConsumerOption,
) (*Consumer, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}

	if queueName == "" {
		return nil, ErrEmptyQueueName
	}

	if prefetchCount < 1 || prefetchCount > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPrefetchCount, prefetchCount)
	}

	options := defaultConsumerOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if options.logger == nil {
		options.logger = nopLogger{}
	}

	if options.dialer == nil {
		options.dialer = DialAMQP
	}

	return &Consumer{
		cfg:           cfg,
		queueName:     queueName,
		prefetchCount: prefetchCount,
		handler:       handler,
		options:       options,
		logger:        options.logger,
		events:        make(chan any),
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
	}, nil
}

// Start connects and consumes until the state machine reaches StateClosed. It blocks the
// calling goroutine. Cancelling ctx has the same effect as calling Stop.
// Broker and handler faults are not returned, they are reported through ShouldReconnect.
func (c *Consumer) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	defer close(c.done)

	// Deliveries in flight are never cancelled, so the handler context outlives ctx.
	c.ctx = context.WithoutCancel(ctx)

	select {
	case <-c.stopCh:
		c.stopRequested = true
		c.logger.Info().Msg("stop requested before start")
		c.transition(StateClosed)

		return nil
	default:
	}

	c.initiate()
	c.run(ctx.Done())
	c.release()

	c.logger.Info().
		Str("should_reconnect", strconv.FormatBool(c.ShouldReconnect())).
		Msg("stopped gracefully")

	return nil
}

// Stop requests a graceful shutdown. It is safe to call from any goroutine, any number of
// times, before or during Start. When a subscription is active the consumer cancels it and
// waits for the broker acknowledgement before closing the channel and the connection.
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}

// Done is closed once Start has returned.
func (c *Consumer) Done() <-chan struct{} {
	return c.done
}

// ShouldReconnect reports whether a broker or handler fault ended the consumer.
// It is final once Start has returned.
func (c *Consumer) ShouldReconnect() bool {
	return c.shouldReconnect.Load()
}

// State returns the current lifecycle state.
func (c *Consumer) State() State {
	return State(c.state.Load())
}

// ConsumerTag returns the tag of the current or last subscription.
func (c *Consumer) ConsumerTag() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.consumerTag
}

// Err returns the last fault observed, nil after a clean stop.
func (c *Consumer) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.err
}

// QueueName returns the name of the consumed queue.
func (c *Consumer) QueueName() string {
	return c.queueName
}

func (c *Consumer) run(ctxDone <-chan struct{}) {
	stopCh := c.stopCh

	for !c.State().IsTerminal() {
		select {
		case ev := <-c.events:
			c.handleEvent(ev)

		case <-stopCh:
			stopCh = nil
			c.stop()

		case <-ctxDone:
			ctxDone = nil
			c.logger.Info().Msg("context cancelled")
			c.stop()

		case reason, ok := <-c.connClosed:
			c.onConnectionClosed(closeReason(reason, ok))

		case reason, ok := <-c.chanClosed:
			c.onChannelClosed(closeReason(reason, ok))

		case tag, ok := <-c.cancellations:
			if !ok {
				c.cancellations = nil

				continue
			}

			c.onRemoteCancellation(tag)

		case d, ok := <-c.deliveries:
			if !ok {
				// Closure or cancellation notifications follow and drive the teardown.
				c.deliveries = nil
				c.logger.Debug().Msg("delivery channel closed")

				continue
			}

			c.dispatch(d)
		}
	}
}

func closeReason(reason *amqp.Error, ok bool) *amqp.Error {
	if !ok {
		return nil
	}

	return reason
}

func (c *Consumer) handleEvent(ev any) {
	switch ev := ev.(type) {
	case completion:
		if !c.settle(ev.id) {
			c.logger.Debug().Str("request_id", strconv.FormatUint(ev.id, 10)).Msg("discarding stale completion")
			discard(ev.result)

			return
		}

		switch res := ev.result.(type) {
		case dialResult:
			if res.err != nil {
				c.onConnectionOpenError(res.err)

				return
			}

			c.onConnectionOpen(res.conn)
		case channelResult:
			c.onChannelOpen(res)
		case declareResult:
			c.onQueueDeclareOk(res)
		case qosResult:
			c.onQosOk(res)
		case consumeResult:
			c.onConsumeOk(res)
		case cancelResult:
			c.onCancelOk(res)
		}

	case requestExpired:
		c.onRequestTimeout(ev.id)
	}
}

// request registers name as the outstanding broker request and runs call as its future.
// A nil call only arms the timeout; the matching broker notification settles it.
func (c *Consumer) request(name string, call func() any) {
	c.pending.stop()

	c.requestSeq++
	id := c.requestSeq
	req := &pendingRequest{id: id, name: name}

	if timeout := c.options.requestTimeout; timeout > 0 {
		req.timer = time.AfterFunc(timeout, func() {
			c.post(requestExpired{id: id})
		})
	}

	c.pending = req

	if call == nil {
		return
	}

	go func() {
		result := call()
		if !c.post(completion{id: id, result: result}) {
			discard(result)
		}
	}()
}

func (c *Consumer) settle(id uint64) bool {
	if c.pending == nil || c.pending.id != id {
		return false
	}

	c.pending.stop()
	c.pending = nil

	return true
}

func (c *Consumer) settleNamed(name string) {
	if c.pending != nil && c.pending.name == name {
		c.settle(c.pending.id)
	}
}

// post hands ev to the loop goroutine. It reports false once the loop is gone.
func (c *Consumer) post(ev any) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

// discard releases resources carried by a completion nobody is waiting for anymore.
func discard(result any) {
	switch res := result.(type) {
	case dialResult:
		if res.conn != nil {
			_ = res.conn.Close()
		}
	case channelResult:
		if res.ch != nil {
			_ = res.ch.Close()
		}
	}
}

func (c *Consumer) transition(next State) {
	prev := State(c.state.Swap(int32(next)))
	if prev == next {
		return
	}

	c.logger.Debug().
		Str("from", prev.String()).
		Str("to", next.String()).
		Msg("state transition")
}

// fail marks the consumer for a restart and records err as the last fault.
func (c *Consumer) fail(err error) {
	c.shouldReconnect.Store(true)

	if err == nil {
		return
	}

	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

func (c *Consumer) setConsumerTag(tag string) {
	c.mu.Lock()
	c.consumerTag = tag
	c.mu.Unlock()
}

func (c *Consumer) newConsumerTag() string {
	return fmt.Sprintf("%s-%s", c.options.tagPrefix, uuid.NewString())
}

func (c *Consumer) terminate() {
	c.pending.stop()
	c.pending = nil
	c.deliveries = nil
	c.transition(StateClosed)
}

// release closes a connection left open by a stop that did not need the broker anymore.
func (c *Consumer) release() {
	conn := c.conn
	c.conn = nil
	c.channel = nil

	if conn == nil {
		return
	}

	go func() {
		if conn.IsClosed() {
			return
		}

		if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			c.logger.Debug().Err(err).Msg("failed to release connection")
		}
	}()
}
