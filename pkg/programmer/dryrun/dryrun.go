// Package dryrun implements a simulated programmer driver. It emulates
// a device entirely in memory: reads answer from per-memory images (or
// the erased state), writes persist into those images with paged
// semantics, and the signature memory reflects the bound part. The
// driver exercises the full session lifecycle without hardware.
package dryrun

import (
	"fmt"
	"strings"

	"github.com/avrkit-project/avrkit-go/pkg/log"
	"github.com/avrkit-project/avrkit-go/pkg/part"
	"github.com/avrkit-project/avrkit-go/pkg/programmer"
)

// erased is the content of NOR-style memory after a chip erase.
const erased = 0xff

// Driver simulates an AVR device behind a programmer.
type Driver struct {
	// Logger receives trace events; nil disables logging.
	Logger log.Logger

	images map[string][]byte
	open   bool
}

// New creates a simulated driver with all memories in the erased state.
func New() *Driver {
	return &Driver{images: make(map[string][]byte)}
}

// Setup acquires no resources.
func (d *Driver) Setup() error { return nil }

// Teardown releases no resources.
func (d *Driver) Teardown() error { return nil }

// Open accepts the simulator pseudo-port and nothing else, so that a
// port typo fails the same way a real driver would.
func (d *Driver) Open(port string) error {
	if port != programmer.PortSim {
		return fmt.Errorf("%w: dryrun driver accepts only port %q, got %q",
			programmer.ErrConnectionFailed, programmer.PortSim, port)
	}
	d.open = true
	return nil
}

// Close disconnects the simulated device.
func (d *Driver) Close() error {
	d.open = false
	return nil
}

// Enable powers up the simulated interface.
func (d *Driver) Enable(p *part.Part) error { return nil }

// Initialize accepts any part; a simulator has no protocol constraints.
func (d *Driver) Initialize(p *part.Part) error {
	log.Logf(d.Logger, log.SevDebug, "dryrun: simulating %s", p.Desc)
	return nil
}

// Disable powers down the simulated interface.
func (d *Driver) Disable() error { return nil }

// image returns the simulated device content for a memory, creating it
// on first access. Signature memory reflects the part descriptor; fuse
// and lock memories start at their factory initval, everything else at
// the erased state.
func (d *Driver) image(p *part.Part, mem *part.Memory) []byte {
	if img, ok := d.images[mem.Desc]; ok {
		return img
	}
	img := make([]byte, mem.Size)
	switch {
	case mem.Desc == "signature":
		copy(img, p.Signature[:])
	case strings.Contains(mem.Desc, "fuse") || mem.Desc == "lock":
		for i := range img {
			img[i] = byte(mem.Initval)
		}
	default:
		for i := range img {
			img[i] = erased
		}
	}
	d.images[mem.Desc] = img
	return img
}

// ReadMemory copies the simulated content into mem.Buf.
func (d *Driver) ReadMemory(p *part.Part, mem *part.Memory, report programmer.ReportFunc) (int, error) {
	img := d.image(p, mem)
	if report == nil {
		report = func(int, int) {}
	}

	step := blockSize(mem)
	for off := 0; off < mem.Size; off += step {
		end := off + step
		if end > mem.Size {
			end = mem.Size
		}
		copy(mem.Buf[off:end], img[off:end])
		report(end, mem.Size)
	}
	mem.TagRange(0, mem.Size)
	return mem.Size, nil
}

// WriteMemory persists the first n bytes of mem.Buf into the simulated
// content. Paged memories are written in whole pages, so the returned
// count is n rounded up to the page boundary.
func (d *Driver) WriteMemory(p *part.Part, mem *part.Memory, n int, report programmer.ReportFunc) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	if report == nil {
		report = func(int, int) {}
	}
	if n > mem.Size {
		n = mem.Size
	}
	if mem.Paged && mem.PageSize > 0 {
		if rem := n % mem.PageSize; rem != 0 {
			n += mem.PageSize - rem
		}
		if n > mem.Size {
			n = mem.Size
		}
	}

	img := d.image(p, mem)
	step := blockSize(mem)
	for off := 0; off < n; off += step {
		end := off + step
		if end > n {
			end = n
		}
		copy(img[off:end], mem.Buf[off:end])
		report(end, n)
	}
	return n, nil
}

// ChipErase resets flash and eeprom to the erased state and lock bits
// to their factory value. Fuses survive a chip erase.
func (d *Driver) ChipErase(p *part.Part) error {
	for _, name := range []string{"flash", "eeprom"} {
		if mem := p.Memory(name); mem != nil {
			img := d.image(p, mem)
			for i := range img {
				img[i] = erased
			}
		}
	}
	if mem := p.Memory("lock"); mem != nil {
		delete(d.images, mem.Desc)
	}
	log.Logf(d.Logger, log.SevDebug, "dryrun: chip erase of %s", p.Desc)
	return nil
}

// blockSize is the simulated transfer granularity: the page size for
// paged memories, otherwise the whole region in one block.
func blockSize(mem *part.Memory) int {
	if mem.Paged && mem.PageSize > 0 {
		return mem.PageSize
	}
	return mem.Size
}

// Compile-time interface satisfaction check.
var _ programmer.Driver = (*Driver)(nil)
