package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/avrkit-project/avrkit-go/pkg/log"
)

// NewLogCommand creates the log replay command. It streams back a CBOR
// log file written with --log-file, optionally filtered by session,
// severity and time window.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		session  string
		severity string
		since    string
		until    string
	)

	cmd := &cobra.Command{
		Use:   "log <file>",
		Short: "Replay a session log file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := log.Filter{SessionID: session}
			if severity != "" {
				sev, err := parseSeverity(severity)
				if err != nil {
					return err
				}
				filter.MaxSeverity = &sev
			}
			if since != "" {
				ts, err := time.Parse(time.RFC3339, since)
				if err != nil {
					return fmt.Errorf("bad --since time: %w", err)
				}
				filter.TimeStart = &ts
			}
			if until != "" {
				ts, err := time.Parse(time.RFC3339, until)
				if err != nil {
					return fmt.Errorf("bad --until time: %w", err)
				}
				filter.TimeEnd = &ts
			}

			r, err := log.NewFilteredReader(args[0], filter)
			if err != nil {
				return err
			}
			defer r.Close()

			out := cmd.OutOrStdout()
			for {
				ev, err := r.Next()
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return fmt.Errorf("reading %s: %w", args[0], err)
				}
				formatEvent(out, ev)
			}
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "show only events of this session ID")
	cmd.Flags().StringVar(&severity, "severity", "", "show only events at least this severe (oserror, error, warning, info, notice, debug, trace)")
	cmd.Flags().StringVar(&since, "since", "", "show only events at or after this RFC3339 time")
	cmd.Flags().StringVar(&until, "until", "", "show only events before this RFC3339 time")
	return cmd
}

// formatEvent prints one replayed event as a line of text.
func formatEvent(w io.Writer, ev log.Event) {
	sid := "-"
	if ev.SessionID != "" {
		sid = ev.SessionID
		if len(sid) > 8 {
			sid = sid[:8]
		}
	}
	ts := ev.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [%s] %-8s %s\n", ts, sid, ev.Severity, ev.Message)
}

// parseSeverity maps a severity name to its grade.
func parseSeverity(name string) (log.Severity, error) {
	switch name {
	case "oserror":
		return log.SevOSError, nil
	case "error":
		return log.SevError, nil
	case "warning":
		return log.SevWarning, nil
	case "info":
		return log.SevInfo, nil
	case "notice":
		return log.SevNotice, nil
	case "debug":
		return log.SevDebug, nil
	case "trace":
		return log.SevTrace, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", name)
	}
}
