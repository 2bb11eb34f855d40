package fileio

import (
	"debug/elf"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/avrkit-project/avrkit-go/pkg/part"
)

// avr-ld places non-flash memories at fixed load addresses; flash
// occupies everything below the data region.
const (
	elfRegionData      = 0x800000
	elfRegionEEPROM    = 0x810000
	elfRegionFuse      = 0x820000
	elfRegionLock      = 0x830000
	elfRegionSignature = 0x840000
	elfRegionUserSig   = 0x850000
)

// elfBase maps a physical memory name to its load address in an AVR ELF
// file. ok is false for memories ELF files cannot carry.
func elfBase(name string) (base uint64, ok bool) {
	switch name {
	case "flash", "application", "apptable", "boot":
		return 0, true
	case "eeprom":
		return elfRegionEEPROM, true
	case "fuse", "lfuse":
		return elfRegionFuse, true
	case "hfuse":
		return elfRegionFuse + 1, true
	case "efuse":
		return elfRegionFuse + 2, true
	case "fuses":
		return elfRegionFuse, true
	case "lock", "lockbits":
		return elfRegionLock, true
	case "signature":
		return elfRegionSignature, true
	case "usersig", "userrow":
		return elfRegionUserSig, true
	}
	// AVR-Dx style individual fuse bytes: fuse0..fuse9
	if rest, found := strings.CutPrefix(name, "fuse"); found {
		if n, err := strconv.Atoi(rest); err == nil {
			return elfRegionFuse + uint64(n), true
		}
	}
	return 0, false
}

// readELF extracts the load segments addressed to mem from an AVR ELF
// file. One file can carry images for several memories; each call
// copies out the slice for exactly one of them. Returns one past the
// highest offset written within the memory.
func readELF(path string, p *part.Part, mem *part.Memory, maxLen int) (int, error) {
	f, err := elf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if f.Machine != elf.EM_AVR {
		return 0, fmt.Errorf("%s: ELF machine %s, expected AVR", path, f.Machine)
	}

	base, ok := elfBase(mem.Desc)
	if !ok {
		return 0, fmt.Errorf("%w: ELF cannot address memory %q of %s",
			ErrUnsupportedFormat, mem.Desc, p.Desc)
	}
	limit := base + uint64(maxLen)

	maxOff := 0
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Filesz == 0 {
			continue
		}
		// intersect the segment's load range with the memory's region
		lo, hi := prog.Paddr, prog.Paddr+prog.Filesz
		if lo < base {
			lo = base
		}
		if hi > limit {
			hi = limit
		}
		if lo >= hi {
			continue
		}

		data := make([]byte, hi-lo)
		if _, err := prog.ReadAt(data, int64(lo-prog.Paddr)); err != nil && err != io.EOF {
			return 0, fmt.Errorf("%s: reading segment at 0x%06x: %w", path, prog.Paddr, err)
		}
		for i, b := range data {
			off := int(lo-base) + i
			if err := mem.Set(off, b); err != nil {
				return 0, err
			}
			if off+1 > maxOff {
				maxOff = off + 1
			}
		}
	}
	return maxOff, nil
}
