// Package cli implements the avrkit command tree.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/avrkit-project/avrkit-go/pkg/catalog"
	"github.com/avrkit-project/avrkit-go/pkg/log"
	"github.com/avrkit-project/avrkit-go/pkg/part"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	// Config is an explicit catalog file path; empty uses the search
	// order with the embedded catalog as fallback.
	Config string

	// Verbose enables debug-level logging.
	Verbose bool

	// LogFile, when set, appends every event of the run to a CBOR log
	// for later replay with "avrkit log".
	LogFile string

	fileLog *log.FileLogger
}

// NewRootCommand creates the avrkit root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "avrkit",
		Short:         "AVR device programming toolkit",
		Long:          "avrkit reads and writes the memories of AVR microcontrollers\nthrough a programmer, and converts between firmware file formats.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.LogFile == "" {
				return nil
			}
			fl, err := log.NewFileLogger(opts.LogFile)
			if err != nil {
				return err
			}
			opts.fileLog = fl
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.fileLog == nil {
				return nil
			}
			err := opts.fileLog.Close()
			opts.fileLog = nil
			return err
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "C", "", "catalog configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", "", "append session events to a CBOR log file")

	cmd.AddCommand(NewPartsCommand(opts))
	cmd.AddCommand(NewProgrammersCommand(opts))
	cmd.AddCommand(NewFuseCommand(opts))
	cmd.AddCommand(NewReadCommand(opts))
	cmd.AddCommand(NewWriteCommand(opts))
	cmd.AddCommand(NewEraseCommand(opts))
	cmd.AddCommand(NewConvertCommand(opts))
	cmd.AddCommand(NewTermCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))

	return cmd
}

// loadCatalog resolves the catalog per the global flags: an explicit
// path, else the search order, else the embedded catalog.
func loadCatalog(opts *RootOptions) (*catalog.Catalog, error) {
	if opts.Config != "" {
		return catalog.LoadFile(opts.Config)
	}
	c, err := catalog.Load()
	if errors.Is(err, catalog.ErrConfigNotFound) {
		return catalog.LoadEmbedded()
	}
	return c, err
}

// newLogger builds the logger for a command: a severity-filtered
// console sink, fanned out to the unfiltered CBOR file sink when
// --log-file is given.
func newLogger(opts *RootOptions) log.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	min := log.SevWarning
	if opts.Verbose {
		min = log.SevTrace
	}
	console := log.MinSeverity{Min: min, Next: log.NewSlogAdapter(slog.New(handler))}
	if opts.fileLog == nil {
		return console
	}
	return log.NewMultiLogger(console, opts.fileLog)
}

// lookupPart resolves a part name against the catalog and prepares its
// memories for use.
func lookupPart(c *catalog.Catalog, name string) (*part.Part, error) {
	p := c.LocatePart(name)
	if p == nil {
		return nil, fmt.Errorf("unknown part %q (try \"avrkit parts\")", name)
	}
	p.InitMemories()
	return p, nil
}
