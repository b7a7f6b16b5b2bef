package log

// Logger receives capture events. Implementations must be safe for
// concurrent use and should not block.
type Logger interface {
	Log(event Event)
}

// NoopLogger discards all events. It is usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}
