package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/avrkit-project/avrkit-go/pkg/part"
	"github.com/avrkit-project/avrkit-go/pkg/programmer"
	"github.com/avrkit-project/avrkit-go/pkg/programmer/dryrun"
	"github.com/avrkit-project/avrkit-go/pkg/programmer/stk500"
)

// sessionOptions holds the flags shared by the commands that talk to a
// device.
type sessionOptions struct {
	Part       string
	Programmer string
	Port       string
	Baud       int
}

// register adds the session flags to a command.
func (o *sessionOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Part, "part", "p", "", "device name or id (required)")
	cmd.Flags().StringVarP(&o.Programmer, "programmer", "c", "", "programmer name (required)")
	cmd.Flags().StringVarP(&o.Port, "port", "P", "", "port: serial device path, \"usb\" or \"dryrun\"")
	cmd.Flags().IntVarP(&o.Baud, "baud", "b", 0, "serial baud rate override")
	_ = cmd.MarkFlagRequired("part")
	_ = cmd.MarkFlagRequired("programmer")
}

// newDriver instantiates the protocol driver for a programmer.
func newDriver(rootOpts *RootOptions, desc *programmer.Descriptor, baud int) (programmer.Driver, error) {
	switch desc.Name() {
	case "dryrun":
		d := dryrun.New()
		d.Logger = newLogger(rootOpts)
		return d, nil
	case "stk500", "arduino":
		d := stk500.New()
		d.Logger = newLogger(rootOpts)
		d.Baud = baud
		return d, nil
	default:
		return nil, fmt.Errorf("no driver implemented for programmer %q", desc.Name())
	}
}

// openSession resolves the part and programmer, walks the lifecycle up
// to Enabled and returns the session with the bound part. The caller
// ends the session with closeSession.
func openSession(rootOpts *RootOptions, opts *sessionOptions, progressOut io.Writer) (*programmer.Session, *part.Part, error) {
	c, err := loadCatalog(rootOpts)
	if err != nil {
		return nil, nil, err
	}
	p, err := lookupPart(c, opts.Part)
	if err != nil {
		return nil, nil, err
	}
	desc := c.LocateProgrammer(opts.Programmer)
	if desc == nil {
		return nil, nil, fmt.Errorf("unknown programmer %q (try \"avrkit programmers\")", opts.Programmer)
	}

	drv, err := newDriver(rootOpts, desc, opts.Baud)
	if err != nil {
		return nil, nil, err
	}

	port := opts.Port
	if port == "" {
		port = defaultPort(desc)
	}

	sess := programmer.NewSession(drv)
	sess.Logger = newLogger(rootOpts)
	if progressOut != nil {
		sess.Progress = progressPrinter(progressOut)
	}

	if err := sess.Setup(); err != nil {
		return nil, nil, err
	}
	if err := sess.Open(port); err != nil {
		return nil, nil, err
	}
	if err := sess.Enable(p); err != nil {
		sess.Close()
		return nil, nil, err
	}
	return sess, p, nil
}

// defaultPort picks a port when the user gives none: USB programmers
// need no serial device, the simulator has its pseudo-port.
func defaultPort(desc *programmer.Descriptor) string {
	switch {
	case desc.Name() == "dryrun":
		return programmer.PortSim
	case desc.ConnType == programmer.ConnUSB:
		return programmer.PortUSB
	default:
		return ""
	}
}

// closeSession winds the session down, ignoring state errors from a
// session that already failed partway.
func closeSession(sess *programmer.Session) {
	if sess.State() == programmer.StateEnabled {
		sess.Disable()
	}
	sess.Close()
}

// progressPrinter renders progress reports as a single self-updating
// line.
func progressPrinter(w io.Writer) programmer.ProgressFunc {
	return func(p programmer.Progress) {
		fmt.Fprintf(w, "\r%s: %3d%% (%.1fs)", p.Phase, p.Percent, p.Elapsed.Seconds())
		if p.Done {
			fmt.Fprintln(w)
		}
	}
}
