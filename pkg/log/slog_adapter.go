package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger, mapping the severity
// ladder onto slog levels. Useful for console output in development.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given
// slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event at the slog level matching its severity.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("severity", event.Severity.String()),
	}
	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session", event.SessionID))
	}
	if event.File != "" {
		attrs = append(attrs, slog.String("file", event.File), slog.Int("line", event.Line))
	}
	if event.Continuation {
		attrs = append(attrs, slog.Bool("cont", true))
	}

	a.logger.LogAttrs(context.Background(), slogLevel(event.Severity), event.Message, attrs...)
}

// slogLevel maps the severity ladder onto slog's four levels. Notice
// and below render as debug.
func slogLevel(sev Severity) slog.Level {
	switch sev {
	case SevOSError, SevError:
		return slog.LevelError
	case SevWarning:
		return slog.LevelWarn
	case SevInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
