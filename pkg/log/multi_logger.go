package log

// MultiLogger fans each event out to several sinks, typically a
// severity-filtered console logger next to an unfiltered FileLogger.
type MultiLogger []Logger

// NewMultiLogger combines sinks into one logger.
func NewMultiLogger(sinks ...Logger) MultiLogger {
	return MultiLogger(sinks)
}

// Log delivers the event to every sink in order.
func (m MultiLogger) Log(event Event) {
	for _, sink := range m {
		sink.Log(event)
	}
}

// Compile-time interface satisfaction check.
var _ Logger = MultiLogger(nil)
