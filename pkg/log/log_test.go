package log

import (
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogger records events for inspection in tests.
type captureLogger struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureLogger) Log(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "OS-ERROR", SevOSError.String())
	assert.Equal(t, "WARNING", SevWarning.String())
	assert.Equal(t, "TRACE", SevTrace.String())
	assert.Equal(t, "UNKNOWN", Severity(99).String())
}

func TestLogf(t *testing.T) {
	sink := &captureLogger{}
	Logf(sink, SevInfo, "reading %s, %d bytes", "flash", 32768)

	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.Equal(t, SevInfo, ev.Severity)
	assert.Equal(t, "reading flash, 32768 bytes", ev.Message)
	assert.Contains(t, ev.File, "log_test.go")
	assert.NotZero(t, ev.Line)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestLogfNilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		Logf(nil, SevError, "dropped")
	})
}

func TestMinSeverity(t *testing.T) {
	sink := &captureLogger{}
	l := MinSeverity{Min: SevWarning, Next: sink}

	l.Log(Event{Severity: SevError, Message: "kept"})
	l.Log(Event{Severity: SevWarning, Message: "kept"})
	l.Log(Event{Severity: SevInfo, Message: "dropped"})
	l.Log(Event{Severity: SevTrace, Message: "dropped"})

	require.Len(t, sink.events, 2)
	assert.Equal(t, SevError, sink.events[0].Severity)
	assert.Equal(t, SevWarning, sink.events[1].Severity)
}

func TestMinSeverityNilNext(t *testing.T) {
	assert.NotPanics(t, func() {
		MinSeverity{Min: SevTrace}.Log(Event{Severity: SevError})
	})
}

func TestMultiLogger(t *testing.T) {
	a := &captureLogger{}
	b := &captureLogger{}
	m := NewMultiLogger(a, b)

	m.Log(Event{Severity: SevInfo, Message: "fan out"})

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
}

func TestEventCBORRoundTrip(t *testing.T) {
	ev := Event{
		Timestamp:    time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC),
		SessionID:    "4a1c0e7e-9f2a-4f8e-8f1f-2d3c4b5a6978",
		Severity:     SevDebug,
		Stream:       StreamStdout,
		File:         "session.go",
		Line:         42,
		Message:      "device initialized",
		Continuation: true,
	}

	data, err := EncodeEvent(ev)
	require.NoError(t, err)

	got, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.True(t, ev.Timestamp.Equal(got.Timestamp))
	got.Timestamp = ev.Timestamp
	assert.Equal(t, ev, got)
}

func TestFileLoggerAndReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.alog")

	fl, err := NewFileLogger(path)
	require.NoError(t, err)

	fl.Log(Event{Timestamp: time.Now(), SessionID: "s1", Severity: SevInfo, Message: "one"})
	fl.Log(Event{Timestamp: time.Now(), SessionID: "s2", Severity: SevTrace, Message: "two"})
	fl.Log(Event{Timestamp: time.Now(), SessionID: "s1", Severity: SevError, Message: "three"})
	require.NoError(t, fl.Close())

	// Log after close is a no-op.
	fl.Log(Event{Message: "dropped"})
	require.NoError(t, fl.Close())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	var msgs []string
	for {
		ev, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		msgs = append(msgs, ev.Message)
	}
	assert.Equal(t, []string{"one", "two", "three"}, msgs)
}

func TestReaderFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter.alog")

	fl, err := NewFileLogger(path)
	require.NoError(t, err)
	fl.Log(Event{Timestamp: time.Now(), SessionID: "s1", Severity: SevInfo, Message: "one"})
	fl.Log(Event{Timestamp: time.Now(), SessionID: "s2", Severity: SevTrace, Message: "two"})
	fl.Log(Event{Timestamp: time.Now(), SessionID: "s1", Severity: SevError, Message: "three"})
	require.NoError(t, fl.Close())

	t.Run("by session", func(t *testing.T) {
		r, err := NewFilteredReader(path, Filter{SessionID: "s1"})
		require.NoError(t, err)
		defer r.Close()

		ev, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, "one", ev.Message)

		ev, err = r.Next()
		require.NoError(t, err)
		assert.Equal(t, "three", ev.Message)

		_, err = r.Next()
		assert.Equal(t, io.EOF, err)
	})

	t.Run("by severity", func(t *testing.T) {
		max := SevWarning
		r, err := NewFilteredReader(path, Filter{MaxSeverity: &max})
		require.NoError(t, err)
		defer r.Close()

		ev, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, "three", ev.Message)

		_, err = r.Next()
		assert.Equal(t, io.EOF, err)
	})
}

func TestReaderMissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "absent.alog"))
	assert.Error(t, err)
}
