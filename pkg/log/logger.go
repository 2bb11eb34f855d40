package log

// Logger is the interface applications implement to receive log events
// from the catalog and programmer sessions. Pass nil or NoopLogger to
// disable logging.
type Logger interface {
	// Log records an event. Implementations must be thread-safe and
	// must not block: the engine may log once per transferred block.
	Log(event Event)
}

// NoopLogger discards all events. Use when logging is disabled.
// NoopLogger is safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// MinSeverity wraps a sink with a severity threshold: events less
// severe than Min are dropped. The zero value forwards only OS errors.
type MinSeverity struct {
	// Min is the least severe level still forwarded.
	Min Severity

	// Next receives the surviving events.
	Next Logger
}

// Log forwards the event when it is at least as severe as Min.
func (m MinSeverity) Log(event Event) {
	if m.Next == nil || event.Severity > m.Min {
		return
	}
	m.Next.Log(event)
}

// Compile-time interface satisfaction checks.
var (
	_ Logger = NoopLogger{}
	_ Logger = MinSeverity{}
)
