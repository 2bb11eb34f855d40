// Package stk500 implements the STK500v1 protocol over a serial port:
// the original STK500 firmware 1.x, AVRISP in STK500 mode, and the
// Arduino serial bootloaders. Flash and EEPROM move as pages through
// STK_PROG_PAGE/STK_READ_PAGE; fuses, lock bits, the signature and the
// calibration byte go through the universal command passthrough.
package stk500

import (
	"errors"
	"fmt"
	"io"

	"github.com/avrkit-project/avrkit-go/pkg/log"
	"github.com/avrkit-project/avrkit-go/pkg/part"
	"github.com/avrkit-project/avrkit-go/pkg/programmer"
)

// DefaultBaud is the serial speed of the STK500 firmware. Arduino
// bootloaders vary (57600 for older boards); set Baud accordingly.
const DefaultBaud = 115200

// Protocol errors.
var (
	ErrNotInSync     = errors.New("stk500: programmer out of sync")
	ErrNoDevice      = errors.New("stk500: no device")
	ErrProtocol      = errors.New("stk500: protocol error")
	ErrUnsupportedOp = errors.New("stk500: memory not accessible over this protocol")
)

// Driver speaks STK500v1 to a programmer on a serial port.
type Driver struct {
	// Logger receives trace events; nil disables logging.
	Logger log.Logger

	// Baud overrides DefaultBaud when nonzero.
	Baud int

	port transport
}

// New creates an unconnected driver.
func New() *Driver {
	return &Driver{}
}

// Setup acquires no resources; the port is opened by Open.
func (d *Driver) Setup() error { return nil }

// Teardown releases no resources.
func (d *Driver) Teardown() error { return nil }

// Open connects to the programmer, drains stale input and establishes
// sync. USB discovery is not part of this protocol; only serial device
// paths are accepted.
func (d *Driver) Open(portName string) error {
	if portName == programmer.PortUSB || portName == programmer.PortSim {
		return fmt.Errorf("%w: stk500 requires a serial device path, got %q",
			programmer.ErrConnectionFailed, portName)
	}

	baud := d.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	p, err := openSerial(portName, baud)
	if err != nil {
		return err
	}
	d.port = p

	d.port.Drain()
	if err := d.getSync(); err != nil {
		d.port.Close()
		d.port = nil
		return fmt.Errorf("%w: %v", programmer.ErrConnectionFailed, err)
	}
	d.port.Drain()
	return nil
}

// Close disconnects from the programmer.
func (d *Driver) Close() error {
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	return err
}

// Enable is a no-op; the STK500 powers the interface on progmode entry.
func (d *Driver) Enable(p *part.Part) error { return nil }

// Initialize reads the firmware version and enters programming mode.
func (d *Driver) Initialize(p *part.Part) error {
	maj, errMaj := d.getParameter(parmSWMajor)
	min, errMin := d.getParameter(parmSWMinor)
	if errMaj == nil && errMin == nil {
		log.Logf(d.Logger, log.SevDebug, "stk500: firmware version %d.%d", maj, min)
	}
	return d.enterProgmode()
}

// Disable leaves programming mode.
func (d *Driver) Disable() error {
	return d.leaveProgmode()
}

// ReadMemory fills mem.Buf from the device. Flash and EEPROM are read
// as pages; the signature, fuses, lock bits and calibration byte go
// through dedicated commands.
func (d *Driver) ReadMemory(p *part.Part, mem *part.Memory, report programmer.ReportFunc) (int, error) {
	switch mem.Desc {
	case "flash", "eeprom":
		return d.pagedLoad(mem, report)
	case "signature":
		sig, err := d.readSign()
		if err != nil {
			return 0, err
		}
		n := copy(mem.Buf, sig[:])
		mem.TagRange(0, n)
		return n, nil
	}

	instr, ok := readInstr(mem.Desc)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedOp, mem.Desc)
	}
	val, err := d.universal(instr)
	if err != nil {
		return 0, err
	}
	if err := mem.Set(0, val); err != nil {
		return 0, err
	}
	return 1, nil
}

// WriteMemory programs the first n bytes of mem.Buf into the device.
func (d *Driver) WriteMemory(p *part.Part, mem *part.Memory, n int, report programmer.ReportFunc) (int, error) {
	switch mem.Desc {
	case "flash", "eeprom":
		return d.pagedWrite(mem, n, report)
	}

	if n < 1 {
		return 0, nil
	}
	instr, ok := writeInstr(mem.Desc, mem.Buf[0])
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedOp, mem.Desc)
	}
	if _, err := d.universal(instr); err != nil {
		return 0, err
	}
	return 1, nil
}

// ChipErase issues the serial chip erase instruction and re-enters
// programming mode, which the erase cycle drops.
func (d *Driver) ChipErase(p *part.Part) error {
	if _, err := d.universal(chipEraseInstr); err != nil {
		return err
	}
	return d.enterProgmode()
}

// send writes the buffer to the port.
func (d *Driver) send(buf []byte) error {
	_, err := d.port.Write(buf)
	return err
}

// recv reads exactly n bytes from the port.
func (d *Driver) recv(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.port, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// getSync re-establishes command framing with the programmer.
func (d *Driver) getSync() error {
	if err := d.send([]byte{cmdGetSync, syncCRCEOP}); err != nil {
		return err
	}
	resp, err := d.recv(1)
	if err != nil {
		return err
	}
	if resp[0] != respInsync {
		d.port.Drain()
		return fmt.Errorf("%w: resp=0x%02x", ErrNotInSync, resp[0])
	}
	resp, err = d.recv(1)
	if err != nil {
		return err
	}
	if resp[0] != respOK {
		return fmt.Errorf("%w: sync status 0x%02x", ErrProtocol, resp[0])
	}
	return nil
}

// expectInsync reads the leading response byte. A NOSYNC answer
// triggers resync and is reported as ErrNotInSync so the caller can
// retry the whole command.
func (d *Driver) expectInsync(op string) error {
	resp, err := d.recv(1)
	if err != nil {
		return err
	}
	switch resp[0] {
	case respInsync:
		return nil
	case respNosync:
		if err := d.getSync(); err != nil {
			return err
		}
		return ErrNotInSync
	default:
		return fmt.Errorf("%w: %s: expected INSYNC, got 0x%02x", ErrProtocol, op, resp[0])
	}
}

// expectOK reads the trailing status byte.
func (d *Driver) expectOK(op string) error {
	resp, err := d.recv(1)
	if err != nil {
		return err
	}
	switch resp[0] {
	case respOK:
		return nil
	case respNodevice:
		return ErrNoDevice
	case respFailed:
		return fmt.Errorf("%w: %s failed", ErrProtocol, op)
	default:
		return fmt.Errorf("%w: %s: expected OK, got 0x%02x", ErrProtocol, op, resp[0])
	}
}

// retrying runs fn, resyncing and retrying while it reports NOSYNC.
func (d *Driver) retrying(op string, fn func() error) error {
	for tries := 0; ; tries++ {
		err := fn()
		if !errors.Is(err, ErrNotInSync) {
			return err
		}
		if tries >= maxSyncAttempts {
			return fmt.Errorf("%s: %w", op, ErrNotInSync)
		}
	}
}

// getParameter reads one firmware parameter.
func (d *Driver) getParameter(parm byte) (byte, error) {
	var val byte
	err := d.retrying("get parameter", func() error {
		if err := d.send([]byte{cmdGetParameter, parm, syncCRCEOP}); err != nil {
			return err
		}
		if err := d.expectInsync("get parameter"); err != nil {
			return err
		}
		resp, err := d.recv(1)
		if err != nil {
			return err
		}
		val = resp[0]
		return d.expectOK("get parameter")
	})
	return val, err
}

// enterProgmode puts the device into programming mode.
func (d *Driver) enterProgmode() error {
	return d.retrying("enter progmode", func() error {
		if err := d.send([]byte{cmdEnterProgmode, syncCRCEOP}); err != nil {
			return err
		}
		if err := d.expectInsync("enter progmode"); err != nil {
			return err
		}
		return d.expectOK("enter progmode")
	})
}

// leaveProgmode takes the device out of programming mode.
func (d *Driver) leaveProgmode() error {
	return d.retrying("leave progmode", func() error {
		if err := d.send([]byte{cmdLeaveProgmode, syncCRCEOP}); err != nil {
			return err
		}
		if err := d.expectInsync("leave progmode"); err != nil {
			return err
		}
		return d.expectOK("leave progmode")
	})
}

// universal shifts a four-byte ISP instruction through the device and
// returns the byte clocked out during the fourth.
func (d *Driver) universal(instr [4]byte) (byte, error) {
	var out byte
	err := d.retrying("universal", func() error {
		buf := []byte{cmdUniversal, instr[0], instr[1], instr[2], instr[3], syncCRCEOP}
		if err := d.send(buf); err != nil {
			return err
		}
		if err := d.expectInsync("universal"); err != nil {
			return err
		}
		resp, err := d.recv(1)
		if err != nil {
			return err
		}
		out = resp[0]
		return d.expectOK("universal")
	})
	return out, err
}

// readSign reads the three device signature bytes.
func (d *Driver) readSign() ([3]byte, error) {
	var sig [3]byte
	err := d.retrying("read signature", func() error {
		if err := d.send([]byte{cmdReadSign, syncCRCEOP}); err != nil {
			return err
		}
		if err := d.expectInsync("read signature"); err != nil {
			return err
		}
		resp, err := d.recv(3)
		if err != nil {
			return err
		}
		copy(sig[:], resp)
		return d.expectOK("read signature")
	})
	return sig, err
}

// loadAddr sets the transfer address. Flash is word addressed, so the
// caller divides byte addresses by two.
func (d *Driver) loadAddr(addr int) error {
	return d.retrying("load address", func() error {
		buf := []byte{cmdLoadAddress, byte(addr), byte(addr >> 8), syncCRCEOP}
		if err := d.send(buf); err != nil {
			return err
		}
		if err := d.expectInsync("load address"); err != nil {
			return err
		}
		return d.expectOK("load address")
	})
}

// pageLayout derives the transfer parameters for a paged memory:
// page size, total bytes to move (rounded up to whole pages), the
// memtype selector and the address divisor.
func pageLayout(mem *part.Memory, n int) (pageSize, total int, memtype byte, addrDiv int) {
	pageSize = mem.PageSize
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	if n > mem.Size {
		n = mem.Size
	}
	total = n
	if rem := n % pageSize; rem != 0 {
		total = n + pageSize - rem
	}
	if total > mem.Size {
		total = mem.Size
	}
	memtype = memtypeEEPROM
	addrDiv = 1
	if mem.Desc == "flash" {
		memtype = memtypeFlash
		addrDiv = 2
	}
	return pageSize, total, memtype, addrDiv
}

// pagedWrite programs the first n bytes of the memory page by page.
// The final transfer is trimmed when the memory size is not a whole
// number of pages.
func (d *Driver) pagedWrite(mem *part.Memory, n int, report programmer.ReportFunc) (int, error) {
	pageSize, total, memtype, addrDiv := pageLayout(mem, n)

	for addr := 0; addr < total; addr += pageSize {
		chunk := pageSize
		if rest := total - addr; chunk > rest {
			chunk = rest
		}
		page := mem.Buf[addr : addr+chunk]
		err := d.retrying("prog page", func() error {
			if err := d.loadAddr(addr / addrDiv); err != nil {
				return err
			}
			hdr := []byte{cmdProgPage, byte(chunk >> 8), byte(chunk), memtype}
			if err := d.send(hdr); err != nil {
				return err
			}
			if err := d.send(page); err != nil {
				return err
			}
			if err := d.send([]byte{syncCRCEOP}); err != nil {
				return err
			}
			if err := d.expectInsync("prog page"); err != nil {
				return err
			}
			return d.expectOK("prog page")
		})
		if err != nil {
			return addr, err
		}
		if report != nil {
			report(addr+chunk, total)
		}
	}
	return total, nil
}

// pagedLoad reads the whole memory page by page, trimming the final
// request when the memory size is not a whole number of pages.
func (d *Driver) pagedLoad(mem *part.Memory, report programmer.ReportFunc) (int, error) {
	pageSize, total, memtype, addrDiv := pageLayout(mem, mem.Size)

	for addr := 0; addr < total; addr += pageSize {
		chunk := pageSize
		if rest := total - addr; chunk > rest {
			chunk = rest
		}
		err := d.retrying("read page", func() error {
			if err := d.loadAddr(addr / addrDiv); err != nil {
				return err
			}
			hdr := []byte{cmdReadPage, byte(chunk >> 8), byte(chunk), memtype, syncCRCEOP}
			if err := d.send(hdr); err != nil {
				return err
			}
			if err := d.expectInsync("read page"); err != nil {
				return err
			}
			page, err := d.recv(chunk)
			if err != nil {
				return err
			}
			copy(mem.Buf[addr:addr+chunk], page)
			return d.expectOK("read page")
		})
		if err != nil {
			return addr, err
		}
		mem.TagRange(addr, addr+chunk)
		if report != nil {
			report(addr+chunk, total)
		}
	}
	return total, nil
}

// Compile-time interface satisfaction check.
var _ programmer.Driver = (*Driver)(nil)
