// Package mock provides a scriptable programmer driver for testing.
package mock

import (
	"sync"

	"github.com/avrkit-project/avrkit-go/pkg/part"
	"github.com/avrkit-project/avrkit-go/pkg/programmer"
)

// Driver is a scriptable programmer.Driver. It records every lifecycle
// call in order and serves canned memory images; individual calls can
// be failed through the Handlers callbacks.
type Driver struct {
	// Calls records lifecycle and memory calls in order ("setup",
	// "open:/dev/ttyUSB0", "read:flash", ...).
	Calls []string

	// Images holds canned device content keyed by memory name; reads
	// copy from here, writes copy into here.
	Images map[string][]byte

	// Handlers are optional callbacks consulted before the default
	// behavior; a non-nil error fails the call.
	Handlers Handlers

	mu sync.Mutex
}

// Handlers holds per-operation callbacks.
type Handlers struct {
	// OnOpen is called with the port before Open succeeds.
	OnOpen func(port string) error

	// OnInitialize is called with the part before Initialize succeeds.
	OnInitialize func(p *part.Part) error

	// OnRead can override a memory read; a non-nil error fails it.
	OnRead func(mem *part.Memory) error

	// OnWrite can override a memory write; a non-nil error fails it.
	OnWrite func(mem *part.Memory, n int) error

	// OnChipErase is called before the default erase behavior.
	OnChipErase func(p *part.Part) error
}

// New creates a mock driver with no canned images.
func New() *Driver {
	return &Driver{Images: make(map[string][]byte)}
}

func (d *Driver) record(call string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, call)
}

// Setup records the call.
func (d *Driver) Setup() error {
	d.record("setup")
	return nil
}

// Teardown records the call.
func (d *Driver) Teardown() error {
	d.record("teardown")
	return nil
}

// Open records the call and consults Handlers.OnOpen.
func (d *Driver) Open(port string) error {
	d.record("open:" + port)
	if d.Handlers.OnOpen != nil {
		return d.Handlers.OnOpen(port)
	}
	return nil
}

// Close records the call.
func (d *Driver) Close() error {
	d.record("close")
	return nil
}

// Enable records the call.
func (d *Driver) Enable(p *part.Part) error {
	d.record("enable:" + p.ID)
	return nil
}

// Initialize records the call and consults Handlers.OnInitialize.
func (d *Driver) Initialize(p *part.Part) error {
	d.record("initialize:" + p.ID)
	if d.Handlers.OnInitialize != nil {
		return d.Handlers.OnInitialize(p)
	}
	return nil
}

// Disable records the call.
func (d *Driver) Disable() error {
	d.record("disable")
	return nil
}

// ReadMemory copies the canned image for the memory into mem.Buf. With
// no image the read returns the full memory size unchanged.
func (d *Driver) ReadMemory(p *part.Part, mem *part.Memory, report programmer.ReportFunc) (int, error) {
	d.record("read:" + mem.Desc)
	if d.Handlers.OnRead != nil {
		if err := d.Handlers.OnRead(mem); err != nil {
			return 0, err
		}
	}

	n := mem.Size
	d.mu.Lock()
	img, ok := d.Images[mem.Desc]
	d.mu.Unlock()
	if ok {
		n = copy(mem.Buf, img)
	}
	mem.TagRange(0, n)

	if report != nil {
		report(n, n)
	}
	return n, nil
}

// WriteMemory copies the first n bytes of mem.Buf into the canned image.
func (d *Driver) WriteMemory(p *part.Part, mem *part.Memory, n int, report programmer.ReportFunc) (int, error) {
	d.record("write:" + mem.Desc)
	if d.Handlers.OnWrite != nil {
		if err := d.Handlers.OnWrite(mem, n); err != nil {
			return 0, err
		}
	}

	img := make([]byte, n)
	copy(img, mem.Buf[:n])
	d.mu.Lock()
	d.Images[mem.Desc] = img
	d.mu.Unlock()

	if report != nil {
		report(n, n)
	}
	return n, nil
}

// ChipErase drops all canned images and consults Handlers.OnChipErase.
func (d *Driver) ChipErase(p *part.Part) error {
	d.record("chiperase")
	if d.Handlers.OnChipErase != nil {
		if err := d.Handlers.OnChipErase(p); err != nil {
			return err
		}
	}
	d.mu.Lock()
	d.Images = make(map[string][]byte)
	d.mu.Unlock()
	return nil
}

// Compile-time interface satisfaction check.
var _ programmer.Driver = (*Driver)(nil)
