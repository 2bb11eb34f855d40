package part

import (
	"errors"
	"fmt"
)

// Memory errors.
var (
	ErrMemoryNotFound  = errors.New("memory not found")
	ErrNotInitialized  = errors.New("part memories not initialized")
	ErrOutOfRange      = errors.New("address out of range")
	ErrDuplicateMemory = errors.New("duplicate memory name")
)

// TagAllocated marks a buffer byte as meaningful, i.e. it has been read
// from a device or loaded from a file. Writers consult tags so that sparse
// images (Intel HEX, S-record) round-trip without inventing filler bytes.
const TagAllocated = 0x01

// Memory is one named memory region of a part: flash, eeprom, a fuse
// byte, lock bits, the device signature, calibration or user rows.
//
// Descriptor fields are fixed at catalog load. Buf and Tags are allocated
// by Part.InitMemories and are mutated in place by programming and file
// operations; they are owned by the single session bound to the part.
type Memory struct {
	// Desc is the memory name ("flash", "eeprom", "lfuse", ...).
	Desc string

	// Size is the total size in bytes.
	Size int

	// Paged indicates page-addressed memory that must be written in
	// fixed-size page units. PageSize and NumPages are only meaningful
	// when Paged is true.
	Paged    bool
	PageSize int
	NumPages int

	// Offset is the location in the device's I/O address space for
	// parts that map memories there (XMEGA, UPDI).
	Offset uint32

	// Initval is the factory setting for fuse and lock memories.
	Initval int

	// Bitmask marks the bits actually used in fuse and lock memories.
	Bitmask int

	// Buf holds the memory content; Tags holds per-byte allocation
	// flags of the same length.
	Buf  []byte
	Tags []byte
}

// MemoryAlias is an alternate logical name for a physical memory, used
// when hardware exposes one fuse byte under several conceptual names
// (e.g. physical "fuse0" published as "wdtcfg"). The relationship is a
// back-reference by name; alias views never share buffers.
type MemoryAlias struct {
	// Desc is the logical alias name.
	Desc string

	// AliasOf names the physical memory this alias refers to.
	AliasOf string
}

// init allocates the backing buffer and tags and derives the paging
// layout. Safe to call more than once; existing buffers are kept.
func (m *Memory) init() {
	if m.Buf == nil {
		m.Buf = make([]byte, m.Size)
		m.Tags = make([]byte, m.Size)
	}
	if m.Paged && m.PageSize > 0 && m.NumPages == 0 {
		m.NumPages = m.Size / m.PageSize
	}
}

// Clear zeroes the first n bytes of content and their allocation flags.
// n is clamped to the memory size.
func (m *Memory) Clear(n int) {
	if n > m.Size {
		n = m.Size
	}
	for i := 0; i < n && i < len(m.Buf); i++ {
		m.Buf[i] = 0
		m.Tags[i] = 0
	}
}

// Set stores one byte and tags it as allocated.
func (m *Memory) Set(addr int, b byte) error {
	if addr < 0 || addr >= len(m.Buf) {
		return fmt.Errorf("%w: %s address 0x%04x, size 0x%04x", ErrOutOfRange, m.Desc, addr, m.Size)
	}
	m.Buf[addr] = b
	m.Tags[addr] = TagAllocated
	return nil
}

// Get returns a copy of the first n bytes of the buffer.
func (m *Memory) Get(n int) []byte {
	if n > len(m.Buf) {
		n = len(m.Buf)
	}
	out := make([]byte, n)
	copy(out, m.Buf[:n])
	return out
}

// Allocated reports whether the byte at addr has been written.
func (m *Memory) Allocated(addr int) bool {
	return addr >= 0 && addr < len(m.Tags) && m.Tags[addr]&TagAllocated != 0
}

// AllocatedLength returns one past the highest tagged byte, i.e. the
// length that covers every byte marked as written. Zero means the buffer
// holds no meaningful data.
func (m *Memory) AllocatedLength() int {
	for i := len(m.Tags) - 1; i >= 0; i-- {
		if m.Tags[i]&TagAllocated != 0 {
			return i + 1
		}
	}
	return 0
}

// TagRange marks [from, to) as allocated.
func (m *Memory) TagRange(from, to int) {
	for i := from; i < to && i < len(m.Tags); i++ {
		m.Tags[i] = TagAllocated
	}
}
