package part

import "strings"

// ProgMode is a bitmask of programming interfaces a part or programmer
// supports. The mask is advisory metadata for classification; the driver
// decides at initialize time whether a given combination is valid.
type ProgMode uint16

const (
	// ModeSPM covers bootloaders, self-programming with SPM opcodes or NVM controllers.
	ModeSPM ProgMode = 1 << iota
	// ModeTPI is the Tiny Programming Interface (ATtiny4/5/9/10/20/40/102/104).
	ModeTPI
	// ModeISP is SPI in-system programming (almost all classic parts).
	ModeISP
	// ModePDI is the Program and Debug Interface (XMEGA parts).
	ModePDI
	// ModeUPDI is the Unified Program and Debug Interface.
	ModeUPDI
	// ModeHVSP is high-voltage serial programming.
	ModeHVSP
	// ModeHVPP is high-voltage parallel programming.
	ModeHVPP
	// ModeDebugWire is the single-wire debug interface on some classic parts.
	ModeDebugWire
	// ModeJTAG is the JTAG interface on some classic parts.
	ModeJTAG
	// ModeJTAGmkI is the older JTAG subset (Atmel ICE mkI).
	ModeJTAGmkI
	// ModeXMEGAJTAG is JTAG on XMEGA parts.
	ModeXMEGAJTAG
	// ModeAVR32JTAG is JTAG for 32-bit AVRs.
	ModeAVR32JTAG
	// ModeAWire is the aWire interface for 32-bit AVRs.
	ModeAWire
)

// ModeClassic groups the interfaces found on classic (pre-XMEGA) parts.
const ModeClassic = ModeTPI | ModeISP | ModeHVSP | ModeHVPP | ModeDebugWire | ModeJTAG | ModeJTAGmkI

// ModeAll covers every known programming interface.
const ModeAll ProgMode = 1<<13 - 1

// modeNames is ordered by bit position.
var modeNames = []string{
	"SPM", "TPI", "ISP", "PDI", "UPDI", "HVSP", "HVPP",
	"debugWIRE", "JTAG", "JTAGmkI", "XMEGAJTAG", "AVR32JTAG", "aWire",
}

// String returns a comma-separated list of the set interface names.
func (m ProgMode) String() string {
	if m == 0 {
		return "none"
	}
	var names []string
	for i, name := range modeNames {
		if m&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, ",")
}

// Has reports whether all interfaces in mode are present in m.
func (m ProgMode) Has(mode ProgMode) bool {
	return m&mode == mode
}

// Joint returns the interfaces shared between two capability masks,
// typically a programmer's and a part's.
func (m ProgMode) Joint(other ProgMode) ProgMode {
	return m & other
}
