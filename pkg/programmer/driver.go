package programmer

import (
	"errors"

	"github.com/avrkit-project/avrkit-go/pkg/part"
)

// Programmer errors.
var (
	// ErrConnectionFailed is returned by Open when the programmer cannot
	// be reached on the given port. Recoverable: the caller retries with
	// a different port or settings.
	ErrConnectionFailed = errors.New("connection to programmer failed")

	// ErrInvalidState is returned when a lifecycle call arrives out of
	// order, e.g. a memory operation before Enable.
	ErrInvalidState = errors.New("invalid session state")
)

// Port sentinels. Any other port value is treated as a serial device
// path.
const (
	// PortUSB selects USB device discovery; no serial device is opened.
	PortUSB = "usb"

	// PortSim is the pseudo-port accepted by simulated and GPIO-based
	// drivers that have no transport to open.
	PortSim = "dryrun"
)

// Driver is the protocol implementation behind a programmer: STK500,
// a USB programmer, a simulator. Drivers are not safe for concurrent
// use; a Session serializes access and enforces call order.
type Driver interface {
	// Setup acquires driver resources. First lifecycle call.
	Setup() error

	// Teardown releases driver resources. Final lifecycle call.
	Teardown() error

	// Open connects to the programmer on the given port. A failure to
	// reach the hardware is reported as ErrConnectionFailed (possibly
	// wrapped); callers check with errors.Is before proceeding.
	Open(port string) error

	// Close disconnects from the programmer.
	Close() error

	// Enable powers up the programming interface for the given part.
	Enable(p *part.Part) error

	// Initialize establishes the protocol session with the device. The
	// driver decides here whether the programmer/part combination is
	// valid.
	Initialize(p *part.Part) error

	// Disable powers down the programming interface.
	Disable() error

	// ReadMemory fills mem.Buf from the device and returns the number
	// of bytes actually read. The driver reports raw done/total byte
	// counts through report, which may be nil.
	ReadMemory(p *part.Part, mem *part.Memory, report ReportFunc) (int, error)

	// WriteMemory programs the first n bytes of mem.Buf into the device
	// and returns the number of bytes actually written. Progress is
	// reported as in ReadMemory.
	WriteMemory(p *part.Part, mem *part.Memory, n int, report ReportFunc) (int, error)

	// ChipErase erases the device. A nil error means success.
	ChipErase(p *part.Part) error
}
