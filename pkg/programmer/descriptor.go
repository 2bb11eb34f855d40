package programmer

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/avrkit-project/avrkit-go/pkg/part"
)

// ConnType identifies the transport a programmer connects through.
type ConnType uint8

const (
	// ConnSerial is a serial device path (the default).
	ConnSerial ConnType = iota
	// ConnUSB is a USB device discovered without a serial port.
	ConnUSB
	// ConnLinuxGPIO bit-bangs the protocol over GPIO pins.
	ConnLinuxGPIO
	// ConnLinuxSPI uses the Linux spidev interface.
	ConnLinuxSPI
)

// String returns the connection type name.
func (c ConnType) String() string {
	switch c {
	case ConnSerial:
		return "serial"
	case ConnUSB:
		return "usb"
	case ConnLinuxGPIO:
		return "linuxgpio"
	case ConnLinuxSPI:
		return "linuxspi"
	default:
		return "unknown"
	}
}

// ParseConnType converts a catalog connection type name.
func ParseConnType(s string) (ConnType, error) {
	switch s {
	case "serial":
		return ConnSerial, nil
	case "usb":
		return ConnUSB, nil
	case "linuxgpio":
		return ConnLinuxGPIO, nil
	case "linuxspi":
		return ConnLinuxSPI, nil
	default:
		return ConnSerial, fmt.Errorf("unknown connection type %q", s)
	}
}

// UnmarshalYAML decodes a connection type from its catalog name.
func (c *ConnType) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	ct, err := ParseConnType(s)
	if err != nil {
		return err
	}
	*c = ct
	return nil
}

// MarshalYAML encodes the connection type as its catalog name.
func (c ConnType) MarshalYAML() (any, error) {
	return c.String(), nil
}

// Descriptor holds the catalog metadata for one programmer: its names,
// transport and declared protocol capabilities. Descriptors are
// immutable after catalog load; the capability bitmask is advisory
// metadata for grouping, not enforced by the session state machine.
type Descriptor struct {
	// Names lists the programmer's identifiers; the first is primary,
	// the rest are aliases. A primary name starting with "." marks an
	// internal base definition excluded from enumeration.
	Names []string

	// Desc is the human-readable description.
	Desc string

	// ConnType is the transport the programmer connects through.
	ConnType ConnType

	// ProgModes is the set of programming interfaces this programmer
	// can drive.
	ProgModes part.ProgMode

	// ConfigFile and Lineno record where the definition was loaded from.
	ConfigFile string
	Lineno     int
}

// Name returns the primary name, or "" for an empty descriptor.
func (d *Descriptor) Name() string {
	if len(d.Names) == 0 {
		return ""
	}
	return d.Names[0]
}

// HasName reports whether name matches any of the descriptor's names.
func (d *Descriptor) HasName(name string) bool {
	for _, n := range d.Names {
		if n == name {
			return true
		}
	}
	return false
}

// Classes returns the capability classes this programmer belongs to,
// in a fixed order: isp, tpi, pdi, updi, jtag, spm, hv. A programmer
// with none of these capabilities is classed "other".
func (d *Descriptor) Classes() []string {
	var classes []string
	if d.ProgModes.Has(part.ModeISP) {
		classes = append(classes, "isp")
	}
	if d.ProgModes.Has(part.ModeTPI) {
		classes = append(classes, "tpi")
	}
	if d.ProgModes.Has(part.ModePDI) {
		classes = append(classes, "pdi")
	}
	if d.ProgModes.Has(part.ModeUPDI) {
		classes = append(classes, "updi")
	}
	if d.ProgModes&(part.ModeJTAG|part.ModeJTAGmkI|part.ModeXMEGAJTAG) != 0 {
		classes = append(classes, "jtag")
	}
	if d.ProgModes.Has(part.ModeSPM) {
		classes = append(classes, "spm")
	}
	if d.ProgModes&(part.ModeHVSP|part.ModeHVPP) != 0 {
		classes = append(classes, "hv")
	}
	if len(classes) == 0 {
		classes = append(classes, "other")
	}
	return classes
}
