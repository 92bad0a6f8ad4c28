package queue

import (
	"slices"
	"sync"
	"sync/atomic"

	amqp "github.com/rabbitmq/amqp091-go"
)

// fakeBroker stands in for amqp091-go with the same notification ordering: a closed
// connection notifies its own listeners before shutting its channels down, a graceful close
// closes the listeners without sending a value.
type fakeBroker struct {
	dialErr error
	dials   atomic.Int32
	conn    *fakeConnection

	mu     sync.Mutex
	url    string
	config amqp.Config
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{conn: &fakeConnection{channel: &fakeChannel{}}}
}

func (b *fakeBroker) dial(url string, cfg amqp.Config) (Connection, error) {
	b.dials.Add(1)

	b.mu.Lock()
	b.url = url
	b.config = cfg
	b.mu.Unlock()

	if b.dialErr != nil {
		return nil, b.dialErr
	}

	return b.conn, nil
}

func (b *fakeBroker) channel() *fakeChannel {
	return b.conn.channel
}

type fakeConnection struct {
	channel    *fakeChannel
	channelErr error

	mu         sync.Mutex
	closed     bool
	closes     []chan *amqp.Error
	closeCalls int
}

func (c *fakeConnection) Channel() (Channel, error) {
	if c.channelErr != nil {
		return nil, c.channelErr
	}

	return c.channel, nil
}

func (c *fakeConnection) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		close(receiver)

		return receiver
	}

	c.closes = append(c.closes, receiver)

	return receiver
}

func (c *fakeConnection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func (c *fakeConnection) Close() error {
	c.mu.Lock()
	c.closeCalls++
	c.mu.Unlock()

	if !c.shutdown(nil) {
		return amqp.ErrClosed
	}

	return nil
}

// drop simulates the broker going away.
func (c *fakeConnection) drop(reason *amqp.Error) {
	c.shutdown(reason)
}

func (c *fakeConnection) shutdown(reason *amqp.Error) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()

		return false
	}

	c.closed = true
	closes := c.closes
	c.closes = nil
	c.mu.Unlock()

	for _, ch := range closes {
		if reason != nil {
			ch <- reason
		}

		close(ch)
	}

	c.channel.shutdown(reason)

	return true
}

func (c *fakeConnection) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closeCalls
}

type fakeChannel struct {
	declareErr error
	qosErr     error
	consumeErr error
	cancelErr  error

	declareGate chan struct{}
	qosGate     chan struct{}
	consumeGate chan struct{}

	mu             sync.Mutex
	closed         bool
	closes         []chan *amqp.Error
	cancels        []chan string
	deliveries     chan amqp.Delivery
	deliveriesDone bool
	declarations   []queueDeclaration
	prefetch       int
	tag            string
	acked          []uint64
	nacked         []uint64
	cancelCalls    int
	closeCalls     int
}

type queueDeclaration struct {
	name       string
	durable    bool
	autoDelete bool
	exclusive  bool
	noWait     bool
	args       amqp.Table
}

func wait(gate chan struct{}) {
	if gate != nil {
		<-gate
	}
}

func (ch *fakeChannel) Ack(tag uint64, _ bool) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.acked = append(ch.acked, tag)

	return nil
}

func (ch *fakeChannel) Nack(tag uint64, _, _ bool) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.nacked = append(ch.nacked, tag)

	return nil
}

func (ch *fakeChannel) Reject(tag uint64, requeue bool) error {
	return ch.Nack(tag, false, requeue)
}

func (ch *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	wait(ch.declareGate)

	ch.mu.Lock()
	ch.declarations = append(ch.declarations, queueDeclaration{
		name:       name,
		durable:    durable,
		autoDelete: autoDelete,
		exclusive:  exclusive,
		noWait:     noWait,
		args:       args,
	})
	ch.mu.Unlock()

	if ch.declareErr != nil {
		return amqp.Queue{}, ch.declareErr
	}

	return amqp.Queue{Name: name}, nil
}

func (ch *fakeChannel) Qos(prefetchCount, _ int, _ bool) error {
	wait(ch.qosGate)

	ch.mu.Lock()
	ch.prefetch = prefetchCount
	ch.mu.Unlock()

	return ch.qosErr
}

func (ch *fakeChannel) Consume(_, consumer string, _, _, _, _ bool, _ amqp.Table) (<-chan amqp.Delivery, error) {
	wait(ch.consumeGate)

	if ch.consumeErr != nil {
		return nil, ch.consumeErr
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.tag = consumer
	ch.deliveries = make(chan amqp.Delivery, 16)

	return ch.deliveries, nil
}

func (ch *fakeChannel) Cancel(_ string, _ bool) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.cancelCalls++
	ch.closeDeliveriesLocked()

	return ch.cancelErr
}

func (ch *fakeChannel) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.closes = append(ch.closes, receiver)

	return receiver
}

func (ch *fakeChannel) NotifyCancel(receiver chan string) chan string {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.cancels = append(ch.cancels, receiver)

	return receiver
}

func (ch *fakeChannel) Close() error {
	ch.mu.Lock()
	ch.closeCalls++
	ch.mu.Unlock()

	ch.shutdown(nil)

	return nil
}

// deliver pushes a message to the active subscription.
func (ch *fakeChannel) deliver(tag uint64, appID string, body string) {
	ch.mu.Lock()
	deliveries := ch.deliveries
	ch.mu.Unlock()

	deliveries <- amqp.Delivery{
		DeliveryTag: tag,
		ConsumerTag: ch.consumerTag(),
		AppId:       appID,
		Body:        []byte(body),
	}
}

// cancelRemotely simulates a Basic.Cancel sent by the broker.
func (ch *fakeChannel) cancelRemotely() {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	for _, c := range ch.cancels {
		c <- ch.tag
	}

	ch.closeDeliveriesLocked()
}

func (ch *fakeChannel) shutdown(reason *amqp.Error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.closed {
		return
	}

	ch.closed = true

	for _, c := range ch.closes {
		if reason != nil {
			c <- reason
		}

		close(c)
	}

	for _, c := range ch.cancels {
		close(c)
	}

	ch.closes = nil
	ch.cancels = nil
	ch.closeDeliveriesLocked()
}

func (ch *fakeChannel) closeDeliveriesLocked() {
	if ch.deliveries != nil && !ch.deliveriesDone {
		ch.deliveriesDone = true
		close(ch.deliveries)
	}
}

func (ch *fakeChannel) consumerTag() string {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	return ch.tag
}

func (ch *fakeChannel) ackedTags() []uint64 {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	return append([]uint64(nil), ch.acked...)
}

func (ch *fakeChannel) cancelCount() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	return ch.cancelCalls
}

func (ch *fakeChannel) closeCount() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	return ch.closeCalls
}

func (ch *fakeChannel) isClosed() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	return ch.closed
}

func (ch *fakeChannel) declaredQueue() string {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if len(ch.declarations) == 0 {
		return ""
	}

	return ch.declarations[len(ch.declarations)-1].name
}

func (ch *fakeChannel) queueDeclarations() []queueDeclaration {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	return slices.Clone(ch.declarations)
}

func (ch *fakeChannel) prefetchCount() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	return ch.prefetch
}
