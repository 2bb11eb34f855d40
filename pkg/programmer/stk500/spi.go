package stk500

// Classic ISP SPI instructions issued through the universal command.
// The programmer shifts all four bytes through the device and returns
// the byte clocked out during the fourth.

// chipEraseInstr is the serial chip erase instruction.
var chipEraseInstr = [4]byte{0xac, 0x80, 0x00, 0x00}

// readInstr returns the SPI read instruction for a one-byte memory,
// or false when the memory has no ISP instruction.
func readInstr(mem string) ([4]byte, bool) {
	switch mem {
	case "lfuse":
		return [4]byte{0x50, 0x00, 0x00, 0x00}, true
	case "hfuse":
		return [4]byte{0x58, 0x08, 0x00, 0x00}, true
	case "efuse":
		return [4]byte{0x50, 0x08, 0x00, 0x00}, true
	case "lock":
		return [4]byte{0x58, 0x00, 0x00, 0x00}, true
	case "calibration":
		return [4]byte{0x38, 0x00, 0x00, 0x00}, true
	default:
		return [4]byte{}, false
	}
}

// writeInstr returns the SPI write instruction for a one-byte memory
// with the value already folded in, or false when the memory is not
// writable over ISP.
func writeInstr(mem string, val byte) ([4]byte, bool) {
	switch mem {
	case "lfuse":
		return [4]byte{0xac, 0xa0, 0x00, val}, true
	case "hfuse":
		return [4]byte{0xac, 0xa8, 0x00, val}, true
	case "efuse":
		return [4]byte{0xac, 0xa4, 0x00, val}, true
	case "lock":
		return [4]byte{0xac, 0xe0, 0x00, val}, true
	default:
		return [4]byte{}, false
	}
}
