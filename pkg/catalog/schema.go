package catalog

import (
	"encoding/hex"
	"fmt"

	"github.com/avrkit-project/avrkit-go/pkg/fuse"
	"github.com/avrkit-project/avrkit-go/pkg/part"
	"github.com/avrkit-project/avrkit-go/pkg/programmer"
)

// catalogFile is the YAML document root.
type catalogFile struct {
	Parts       []partDef `yaml:"parts"`
	Programmers []pgmDef  `yaml:"programmers"`
}

// partDef describes one device.
type partDef struct {
	ID        string          `yaml:"id"`
	Desc      string          `yaml:"desc"`
	Signature string          `yaml:"signature"`
	Variants  []string        `yaml:"variants"`
	ProgModes []string        `yaml:"prog_modes"`
	Memories  []memDef        `yaml:"memories"`
	Aliases   []aliasDef      `yaml:"aliases"`
	Fuses     []fuse.Bitfield `yaml:"fuses"`
}

// memDef describes one memory region.
type memDef struct {
	Name     string `yaml:"name"`
	Size     int    `yaml:"size"`
	Paged    bool   `yaml:"paged"`
	PageSize int    `yaml:"page_size"`
	Offset   uint32 `yaml:"offset"`
	Initval  int    `yaml:"initval"`
	Bitmask  int    `yaml:"bitmask"`
}

// aliasDef maps a logical memory name onto a physical one.
type aliasDef struct {
	Name    string `yaml:"name"`
	AliasOf string `yaml:"alias_of"`
}

// pgmDef describes one programmer.
type pgmDef struct {
	Names     []string          `yaml:"names"`
	Desc      string            `yaml:"desc"`
	ConnType  programmer.ConnType `yaml:"conntype"`
	ProgModes []string          `yaml:"prog_modes"`
}

// progModeNames maps catalog capability names onto the bitmask.
var progModeNames = map[string]part.ProgMode{
	"spm":       part.ModeSPM,
	"tpi":       part.ModeTPI,
	"isp":       part.ModeISP,
	"pdi":       part.ModePDI,
	"updi":      part.ModeUPDI,
	"hvsp":      part.ModeHVSP,
	"hvpp":      part.ModeHVPP,
	"debugwire": part.ModeDebugWire,
	"jtag":      part.ModeJTAG,
	"jtagmki":   part.ModeJTAGmkI,
	"xmegajtag": part.ModeXMEGAJTAG,
	"avr32jtag": part.ModeAVR32JTAG,
	"awire":     part.ModeAWire,
}

// parseProgModes folds a list of capability names into a bitmask.
func parseProgModes(names []string) (part.ProgMode, error) {
	var modes part.ProgMode
	for _, n := range names {
		m, ok := progModeNames[n]
		if !ok {
			return 0, fmt.Errorf("unknown prog mode %q", n)
		}
		modes |= m
	}
	return modes, nil
}

// parseSignature decodes a hex device signature ("1e950f").
func parseSignature(s string) ([part.SignatureSize]byte, error) {
	var sig [part.SignatureSize]byte
	if s == "" {
		return sig, nil
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return sig, fmt.Errorf("invalid signature %q: %w", s, err)
	}
	if len(raw) != part.SignatureSize {
		return sig, fmt.Errorf("signature %q: want %d bytes, got %d", s, part.SignatureSize, len(raw))
	}
	copy(sig[:], raw)
	return sig, nil
}
