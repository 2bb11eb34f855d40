package log

import (
	"fmt"
	"runtime"
	"time"
)

// Severity grades log events from hard OS-level failures down to wire
// traces. Lower values are more severe.
type Severity uint8

const (
	// SevOSError is an operating-system level failure (open, read,
	// write on a port or file).
	SevOSError Severity = iota
	// SevError is a programming or protocol failure.
	SevError
	// SevWarning flags a recoverable anomaly, e.g. a short transfer.
	SevWarning
	// SevInfo is normal progress output.
	SevInfo
	// SevNotice is verbose progress output.
	SevNotice
	// SevDebug is developer-level detail.
	SevDebug
	// SevTrace is wire-level traffic.
	SevTrace
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SevOSError:
		return "OS-ERROR"
	case SevError:
		return "ERROR"
	case SevWarning:
		return "WARNING"
	case SevInfo:
		return "INFO"
	case SevNotice:
		return "NOTICE"
	case SevDebug:
		return "DEBUG"
	case SevTrace:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

// Stream indicates the conventional target stream for an event, a hint
// the sink may honor or ignore.
type Stream uint8

const (
	// StreamStderr is the default for diagnostics.
	StreamStderr Stream = 0
	// StreamStdout is used for payload-like output (terminal dumps).
	StreamStdout Stream = 1
)

// String returns the stream name.
func (s Stream) String() string {
	if s == StreamStdout {
		return "stdout"
	}
	return "stderr"
}

// Event is one structured log record. CBOR encoding uses integer keys
// for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID correlates events belonging to one programmer session
	// (UUID); empty outside a session.
	SessionID string `cbor:"2,keyasint,omitempty"`

	// Severity grades the event.
	Severity Severity `cbor:"3,keyasint"`

	// Stream is the conventional target stream.
	Stream Stream `cbor:"4,keyasint,omitempty"`

	// File and Line locate the origin in the source.
	File string `cbor:"5,keyasint,omitempty"`
	Line int    `cbor:"6,keyasint,omitempty"`

	// Message is the formatted text.
	Message string `cbor:"7,keyasint"`

	// Continuation marks output that continues the previous event on
	// the same line (progress ticks); line-oriented sinks should
	// suppress their prefix for such events.
	Continuation bool `cbor:"8,keyasint,omitempty"`
}

// Logf formats and delivers an event, capturing the caller's source
// location. A nil logger discards the event.
func Logf(l Logger, sev Severity, format string, args ...any) {
	if l == nil {
		return
	}
	ev := Event{
		Timestamp: time.Now(),
		Severity:  sev,
		Message:   fmt.Sprintf(format, args...),
	}
	if _, file, line, ok := runtime.Caller(1); ok {
		ev.File = file
		ev.Line = line
	}
	l.Log(ev)
}
