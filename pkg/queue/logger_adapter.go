package queue

// EventSource is satisfied by chained log events such as *zerolog.Event.
type EventSource[E any] interface {
	Msg(string)
	Err(error) E
	Str(string, string) E
}

// LeveledLogger is satisfied by leveled loggers such as *zerolog.Logger.
type LeveledLogger[E EventSource[E]] interface {
	Debug() E
	Info() E
	Warn() E
	Error() E
}

// LoggerAdapter adapts any leveled logger with chained events to the queue Logger interface.
//
//	adapter := queue.NewLoggerAdapter[*zerolog.Event](&logger)
type LoggerAdapter[E EventSource[E]] struct {
	logger LeveledLogger[E]
}

// NewLoggerAdapter creates a new logger adapter
func NewLoggerAdapter[E EventSource[E]](logger LeveledLogger[E]) *LoggerAdapter[E] {
	return &LoggerAdapter[E]{logger: logger}
}

// Debug returns a debug log event
func (l *LoggerAdapter[E]) Debug() LogEvent {
	return &LogEventAdapter[E]{event: l.logger.Debug()}
}

// Info returns an info log event
func (l *LoggerAdapter[E]) Info() LogEvent {
	return &LogEventAdapter[E]{event: l.logger.Info()}
}

// Warn returns a warning log event
func (l *LoggerAdapter[E]) Warn() LogEvent {
	return &LogEventAdapter[E]{event: l.logger.Warn()}
}

// Error returns an error log event
func (l *LoggerAdapter[E]) Error() LogEvent {
	return &LogEventAdapter[E]{event: l.logger.Error()}
}

// LogEventAdapter adapts log events to the queue log event interface
type LogEventAdapter[E EventSource[E]] struct {
	event E
}

// Msg logs a message
func (l *LogEventAdapter[E]) Msg(msg string) {
	l.event.Msg(msg)
}

// Err adds an error to the log event
func (l *LogEventAdapter[E]) Err(err error) LogEvent {
	return &LogEventAdapter[E]{event: l.event.Err(err)}
}

// Str adds a string field to the log event
func (l *LogEventAdapter[E]) Str(key, value string) LogEvent {
	return &LogEventAdapter[E]{event: l.event.Str(key, value)}
}
