// Package queue provides a single-queue RabbitMQ consumer with an explicit connection,
// channel and subscription lifecycle.
//
// # Overview
//
// A Consumer connects, opens a channel, declares its queue, applies a prefetch limit,
// subscribes and dispatches every delivery to a HandlerFunc. It never reconnects on its own.
// When the broker side fails, or the handler does, the consumer tears everything down, returns
// from Start and reports ShouldReconnect() == true. Restarting is left to the caller, usually
// by letting the process exit and having the supervisor bring it back.
//
// # Lifecycle
//
// Every broker operation is asynchronous. The consumer keeps a single loop goroutine that owns
// the connection and the channel and reacts to completions and notifications one at a time:
//
//	idle -> connecting -> channel_opening -> declaring -> setting_qos -> subscribing -> consuming
//	consuming -> cancelling -> closing_channel -> closing_connection -> closed
//
// Any failure along the way jumps to the closing states, and Start returns once the connection
// is observed closed.
//
// # Basic Usage
//
//	handler := func(ctx context.Context, ch queue.Acknowledger, meta queue.Metadata, props queue.Properties, body []byte) error {
//		log.Printf("received message #%d from %s", meta.DeliveryTag, props.AppID)
//
//		return ch.Ack(meta.DeliveryTag, false)
//	}
//
//	consumer, err := queue.NewConsumer(queue.Config{Host: "localhost"}, "tasks", 1, handler)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	go func() {
//		<-sigCh
//		consumer.Stop()
//	}()
//
//	_ = consumer.Start(ctx)
//	if consumer.ShouldReconnect() {
//		os.Exit(int(syscall.ECONNABORTED))
//	}
//
// # Acknowledgement
//
// The handler decides whether a message is acked, nacked or rejected. A handler that returns an
// error or panics is treated as a fault: its unacknowledged deliveries are returned to the queue
// when the channel closes.
//
// # Logging Integration
//
// The package defines a minimal leveled logging interface. LoggerAdapter plugs in loggers with
// chained events such as zerolog:
//
//	consumer, err := queue.NewConsumer(cfg, "tasks", 1, handler,
//		queue.WithLogger(queue.NewLoggerAdapter[*zerolog.Event](&logger)),
//	)
package queue
