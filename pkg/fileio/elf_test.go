package fileio

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type elfSegment struct {
	paddr uint32
	data  []byte
}

// buildAVRELF assembles a minimal ELF32 executable for EM_AVR with one
// PT_LOAD segment per entry, the way avr-gcc lays out flash and the
// pseudo-regions for eeprom/fuse/lock.
func buildAVRELF(t *testing.T, segs []elfSegment) []byte {
	t.Helper()

	const (
		ehsize  = 52
		phsize  = 32
		emAVR   = 0x53
		ptLoad  = 1
		etExec  = 2
		classLE = 1
	)

	var buf bytes.Buffer
	le := binary.LittleEndian

	// e_ident
	buf.Write([]byte{0x7f, 'E', 'L', 'F', classLE, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0})

	w16 := func(v uint16) { b := make([]byte, 2); le.PutUint16(b, v); buf.Write(b) }
	w32 := func(v uint32) { b := make([]byte, 4); le.PutUint32(b, v); buf.Write(b) }

	w16(etExec)
	w16(emAVR)
	w32(1)                // e_version
	w32(0)                // e_entry
	w32(ehsize)           // e_phoff
	w32(0)                // e_shoff
	w32(0)                // e_flags
	w16(ehsize)           // e_ehsize
	w16(phsize)           // e_phentsize
	w16(uint16(len(segs))) // e_phnum
	w16(40)               // e_shentsize
	w16(0)                // e_shnum
	w16(0)                // e_shstrndx

	offset := uint32(ehsize + phsize*len(segs))
	for _, s := range segs {
		w32(ptLoad)
		w32(offset) // p_offset
		w32(s.paddr)
		w32(s.paddr)
		w32(uint32(len(s.data))) // p_filesz
		w32(uint32(len(s.data))) // p_memsz
		w32(5)                   // p_flags
		w32(1)                   // p_align
		offset += uint32(len(s.data))
	}
	for _, s := range segs {
		buf.Write(s.data)
	}
	return buf.Bytes()
}

func TestReadELFMultipleMemories(t *testing.T) {
	image := buildAVRELF(t, []elfSegment{
		{paddr: 0x000000, data: []byte{0x0c, 0x94, 0x34, 0x00, 0x0c, 0x94, 0x3e, 0x00}},
		{paddr: 0x810000, data: []byte{0xde, 0xad, 0xbe, 0xef}},
		{paddr: 0x820000, data: []byte{0x62, 0xd9, 0xff}},
	})
	path := filepath.Join(t.TempDir(), "app.elf")
	require.NoError(t, os.WriteFile(path, image, 0o644))

	format, err := Autodetect(path)
	require.NoError(t, err)
	require.Equal(t, FormatELF, format)

	p := testPart(t)

	n, err := Read(FormatELF, path, p, "flash", -1)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, []byte{0x0c, 0x94, 0x34, 0x00, 0x0c, 0x94, 0x3e, 0x00}, p.Memory("flash").Get(8))

	n, err = Read(FormatELF, path, p, "eeprom", -1)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, p.Memory("eeprom").Get(4))

	// the fuse region carries one byte per fuse memory
	n, err = Read(FormatELF, path, p, "lfuse", -1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []byte{0x62}, p.Memory("lfuse").Get(1))

	n, err = Read(FormatELF, path, p, "hfuse", -1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []byte{0xd9}, p.Memory("hfuse").Get(1))
}

func TestReadELFWrongMachine(t *testing.T) {
	image := buildAVRELF(t, []elfSegment{{paddr: 0, data: []byte{1, 2, 3, 4}}})
	// patch e_machine to EM_386
	image[18] = 0x03
	path := filepath.Join(t.TempDir(), "x86.elf")
	require.NoError(t, os.WriteFile(path, image, 0o644))

	p := testPart(t)
	_, err := Read(FormatELF, path, p, "flash", -1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected AVR")
}
