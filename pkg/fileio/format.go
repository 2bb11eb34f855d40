package fileio

import (
	"path/filepath"
	"strings"
)

// Format identifies a firmware file format.
type Format uint8

const (
	// FormatAuto requests content autodetection. It is a pseudo-format:
	// reads must resolve it via Autodetect first, and it is never a
	// valid target for writing.
	FormatAuto Format = iota
	// FormatIntelHex is Intel HEX (":llaaaatt...cc" records).
	FormatIntelHex
	// FormatSRec is Motorola S-record.
	FormatSRec
	// FormatRawBin is a raw binary memory image.
	FormatRawBin
	// FormatELF is ELF with AVR memory segments; read-only.
	FormatELF
	// FormatUnknown is returned by Autodetect when no signature matches.
	FormatUnknown
)

// String returns the human-readable format name.
func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto-detect"
	case FormatIntelHex:
		return "Intel Hex"
	case FormatSRec:
		return "Motorola S-Record"
	case FormatRawBin:
		return "raw binary"
	case FormatELF:
		return "ELF"
	case FormatUnknown:
		return "unknown"
	default:
		return "invalid format"
	}
}

// DetectByExt guesses the intended format from the filename suffix, for
// files that do not exist yet and therefore cannot be content-sniffed:
// .hex/.ihex/.eep are Intel HEX, .srec is S-record, .bin is raw binary.
// Anything else is FormatUnknown.
func DetectByExt(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".ihex", ".eep":
		return FormatIntelHex
	case ".srec":
		return FormatSRec
	case ".bin":
		return FormatRawBin
	default:
		return FormatUnknown
	}
}
