package stk500

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avrkit-project/avrkit-go/pkg/part"
	"github.com/avrkit-project/avrkit-go/pkg/programmer"
)

// fakePort serves canned response bytes and records everything written.
type fakePort struct {
	responses bytes.Buffer
	written   bytes.Buffer
	drained   int
	closed    bool
}

func (f *fakePort) Read(p []byte) (int, error) {
	if f.responses.Len() == 0 {
		return 0, io.EOF
	}
	return f.responses.Read(p)
}

func (f *fakePort) Write(p []byte) (int, error) { return f.written.Write(p) }
func (f *fakePort) Close() error                { f.closed = true; return nil }
func (f *fakePort) Drain() error                { f.drained++; return nil }

func (f *fakePort) respond(b ...byte) { f.responses.Write(b) }

func newDriver(f *fakePort) *Driver {
	return &Driver{port: f}
}

func testMem(desc string, size, pageSize int) *part.Memory {
	m := &part.Memory{Desc: desc, Size: size, Paged: pageSize > 0, PageSize: pageSize}
	m.Buf = make([]byte, size)
	m.Tags = make([]byte, size)
	return m
}

func TestGetSync(t *testing.T) {
	f := &fakePort{}
	f.respond(respInsync, respOK)
	d := newDriver(f)

	require.NoError(t, d.getSync())
	assert.Equal(t, []byte{cmdGetSync, syncCRCEOP}, f.written.Bytes())
}

func TestGetSyncOutOfSync(t *testing.T) {
	f := &fakePort{}
	f.respond(0x42)
	d := newDriver(f)

	err := d.getSync()
	require.ErrorIs(t, err, ErrNotInSync)
	assert.Equal(t, 1, f.drained)
}

func TestOpenRejectsPseudoPorts(t *testing.T) {
	d := New()
	assert.ErrorIs(t, d.Open(programmer.PortUSB), programmer.ErrConnectionFailed)
	assert.ErrorIs(t, d.Open(programmer.PortSim), programmer.ErrConnectionFailed)
}

func TestUniversal(t *testing.T) {
	f := &fakePort{}
	f.respond(respInsync, 0x62, respOK)
	d := newDriver(f)

	val, err := d.universal([4]byte{0x50, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, byte(0x62), val)
	assert.Equal(t, []byte{cmdUniversal, 0x50, 0x00, 0x00, 0x00, syncCRCEOP}, f.written.Bytes())
}

func TestReadSignature(t *testing.T) {
	f := &fakePort{}
	f.respond(respInsync, 0x1e, 0x95, 0x0f, respOK)
	d := newDriver(f)

	mem := testMem("signature", 3, 0)
	n, err := d.ReadMemory(nil, mem, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{0x1e, 0x95, 0x0f}, mem.Buf)
	assert.Equal(t, 3, mem.AllocatedLength())
}

func TestReadFuse(t *testing.T) {
	f := &fakePort{}
	f.respond(respInsync, 0xd9, respOK)
	d := newDriver(f)

	mem := testMem("hfuse", 1, 0)
	n, err := d.ReadMemory(nil, mem, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, byte(0xd9), mem.Buf[0])
	// hfuse read instruction is 0x58 0x08.
	assert.Equal(t, []byte{cmdUniversal, 0x58, 0x08, 0x00, 0x00, syncCRCEOP}, f.written.Bytes())
}

func TestWriteLock(t *testing.T) {
	f := &fakePort{}
	f.respond(respInsync, 0x00, respOK)
	d := newDriver(f)

	mem := testMem("lock", 1, 0)
	mem.Buf[0] = 0xfc
	n, err := d.WriteMemory(nil, mem, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []byte{cmdUniversal, 0xac, 0xe0, 0x00, 0xfc, syncCRCEOP}, f.written.Bytes())
}

func TestUnsupportedMemory(t *testing.T) {
	d := newDriver(&fakePort{})
	mem := testMem("usersig", 32, 0)

	_, err := d.ReadMemory(nil, mem, nil)
	assert.ErrorIs(t, err, ErrUnsupportedOp)
	_, err = d.WriteMemory(nil, mem, 32, nil)
	assert.ErrorIs(t, err, ErrUnsupportedOp)
}

func TestPagedLoadFlash(t *testing.T) {
	f := &fakePort{}
	// Two pages of 128 bytes; per page: load address then read page.
	page0 := bytes.Repeat([]byte{0xa5}, 128)
	page1 := bytes.Repeat([]byte{0x5a}, 128)
	f.respond(respInsync, respOK) // load address 0
	f.respond(respInsync)
	f.respond(page0...)
	f.respond(respOK)
	f.respond(respInsync, respOK) // load address 64 (word addressed)
	f.respond(respInsync)
	f.respond(page1...)
	f.respond(respOK)
	d := newDriver(f)

	mem := testMem("flash", 256, 128)
	var reports []programmer.Progress
	tracker := programmer.NewTracker(func(p programmer.Progress) { reports = append(reports, p) }, "Reading flash")
	n, err := d.ReadMemory(nil, mem, tracker.Report)
	require.NoError(t, err)
	assert.Equal(t, 256, n)
	assert.Equal(t, page0, mem.Buf[:128])
	assert.Equal(t, page1, mem.Buf[128:])
	assert.Equal(t, 256, mem.AllocatedLength())

	// Flash addresses go over the wire divided by two.
	wire := f.written.Bytes()
	assert.Equal(t, []byte{cmdLoadAddress, 0x00, 0x00, syncCRCEOP}, wire[:4])
	assert.Equal(t, []byte{cmdReadPage, 0x00, 128, memtypeFlash, syncCRCEOP}, wire[4:9])
	assert.Equal(t, []byte{cmdLoadAddress, 0x40, 0x00, syncCRCEOP}, wire[9:13])

	require.Len(t, reports, 2)
	assert.Equal(t, 50, reports[0].Percent)
	assert.Equal(t, 100, reports[1].Percent)
}

func TestPagedWriteEEPROM(t *testing.T) {
	f := &fakePort{}
	f.respond(respInsync, respOK) // load address
	f.respond(respInsync, respOK) // prog page
	d := newDriver(f)

	mem := testMem("eeprom", 64, 4)
	copy(mem.Buf, []byte{1, 2, 3, 4})

	n, err := d.WriteMemory(nil, mem, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// EEPROM is byte addressed: address 0, then the page header and data.
	want := []byte{
		cmdLoadAddress, 0x00, 0x00, syncCRCEOP,
		cmdProgPage, 0x00, 0x04, memtypeEEPROM,
		1, 2, 3, 4,
		syncCRCEOP,
	}
	assert.Equal(t, want, f.written.Bytes())
}

func TestPagedLoadPartialFinalPage(t *testing.T) {
	f := &fakePort{}
	f.respond(respInsync, respOK) // load address 0
	f.respond(respInsync)
	f.respond(bytes.Repeat([]byte{0x11}, 64)...)
	f.respond(respOK)
	f.respond(respInsync, respOK) // load address 64
	f.respond(respInsync)
	f.respond(bytes.Repeat([]byte{0x22}, 36)...)
	f.respond(respOK)
	d := newDriver(f)

	// 100 bytes in 64-byte pages: the final request is trimmed to the
	// 36 bytes that remain.
	mem := testMem("eeprom", 100, 64)
	n, err := d.ReadMemory(nil, mem, nil)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, byte(0x11), mem.Buf[63])
	assert.Equal(t, byte(0x22), mem.Buf[99])
	assert.Equal(t, 100, mem.AllocatedLength())

	wire := f.written.Bytes()
	assert.Equal(t, []byte{cmdReadPage, 0x00, 36, memtypeEEPROM, syncCRCEOP}, wire[len(wire)-5:])
}

func TestPagedWritePartialFinalPage(t *testing.T) {
	f := &fakePort{}
	f.respond(respInsync, respOK) // load address 0
	f.respond(respInsync, respOK) // prog page 0
	f.respond(respInsync, respOK) // load address 8
	f.respond(respInsync, respOK) // prog page 8
	d := newDriver(f)

	mem := testMem("eeprom", 10, 8)
	copy(mem.Buf, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})

	n, err := d.WriteMemory(nil, mem, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	want := []byte{
		cmdLoadAddress, 0x00, 0x00, syncCRCEOP,
		cmdProgPage, 0x00, 0x08, memtypeEEPROM,
		1, 2, 3, 4, 5, 6, 7, 8,
		syncCRCEOP,
		cmdLoadAddress, 0x08, 0x00, syncCRCEOP,
		cmdProgPage, 0x00, 0x02, memtypeEEPROM,
		9, 10,
		syncCRCEOP,
	}
	assert.Equal(t, want, f.written.Bytes())
}

func TestNosyncRecovery(t *testing.T) {
	f := &fakePort{}
	// First attempt answers NOSYNC; the driver resyncs and retries.
	f.respond(respNosync)
	f.respond(respInsync, respOK) // getsync
	f.respond(respInsync, respOK) // retried enter progmode
	d := newDriver(f)

	require.NoError(t, d.enterProgmode())

	want := []byte{
		cmdEnterProgmode, syncCRCEOP,
		cmdGetSync, syncCRCEOP,
		cmdEnterProgmode, syncCRCEOP,
	}
	assert.Equal(t, want, f.written.Bytes())
}

func TestChipErase(t *testing.T) {
	f := &fakePort{}
	f.respond(respInsync, 0x00, respOK) // universal chip erase
	f.respond(respInsync, respOK)       // re-enter progmode
	d := newDriver(f)

	require.NoError(t, d.ChipErase(nil))
	assert.Equal(t, []byte{cmdUniversal, 0xac, 0x80, 0x00, 0x00, syncCRCEOP}, f.written.Bytes()[:6])
}

func TestInitializeReportsVersionAndEntersProgmode(t *testing.T) {
	f := &fakePort{}
	f.respond(respInsync, 2, respOK)  // SW major
	f.respond(respInsync, 10, respOK) // SW minor
	f.respond(respInsync, respOK)     // enter progmode
	d := newDriver(f)

	require.NoError(t, d.Initialize(nil))
}

func TestCloseWithoutOpen(t *testing.T) {
	d := New()
	assert.NoError(t, d.Close())
}
