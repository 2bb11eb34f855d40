// Package log carries structured log events from the programming engine
// to the embedding application.
//
// There is no process-global verbosity: a Logger travels explicitly with
// the catalog and the programmer session. Each Event is a structured
// record (severity, source location, session ID, message, continuation
// flag); the sink decides formatting and filtering.
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	sess.Logger = log.NewSlogAdapter(slog.Default())
//
//	// For later replay: write CBOR events to a file
//	sess.Logger, _ = log.NewFileLogger("/var/log/avrkit/session.alog")
//
//	// Both: use MultiLogger
//	sess.Logger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// FileLogger persists events in CBOR for later replay with Reader;
// MinSeverity wraps any sink with a severity threshold.
package log
