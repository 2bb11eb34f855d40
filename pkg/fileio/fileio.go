package fileio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/avrkit-project/avrkit-go/pkg/part"
)

// Codec errors.
var (
	// ErrUnsupportedFormat is returned when a read is attempted with the
	// auto pseudo-format (detection must happen first) or a format the
	// reader does not implement.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrInvalidFormat is returned when a write is attempted with a
	// format that is not a valid output target (auto, ELF, unknown).
	ErrInvalidFormat = errors.New("invalid format for writing")

	// ErrFileTooLarge is returned when file content does not fit the
	// target memory.
	ErrFileTooLarge = errors.New("file content exceeds memory size")
)

// Read loads file content into the named memory of p. maxLen caps how
// many bytes are accepted, with -1 meaning the whole memory size. It
// returns the number of meaningful bytes loaded (for address-sparse
// formats, one past the highest address written).
//
// ELF is the only format whose files can serve several named memories;
// each Read call still extracts the segment for exactly one memory.
// Reading with FormatAuto fails: run Autodetect first and pass its
// result.
func Read(format Format, path string, p *part.Part, memName string, maxLen int) (int, error) {
	mem := p.Memory(memName)
	if mem == nil {
		return 0, fmt.Errorf("%w: %q of %s", part.ErrMemoryNotFound, memName, p.Desc)
	}
	if maxLen < 0 || maxLen > mem.Size {
		maxLen = mem.Size
	}

	switch format {
	case FormatIntelHex:
		return readIntelHex(path, mem, maxLen)
	case FormatSRec:
		return readSRec(path, mem, maxLen)
	case FormatRawBin:
		return readRawBin(path, mem, maxLen)
	case FormatELF:
		return readELF(path, p, mem, maxLen)
	case FormatAuto:
		return 0, fmt.Errorf("%w: auto requires prior detection", ErrUnsupportedFormat)
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Write serializes bytes from the named memory of p into the target
// format. length is the byte count to write; when length <= 0 only the
// bytes marked as written are serialized, up to the memory's declared
// size. Auto and ELF are invalid targets and fail fast.
func Write(format Format, path string, p *part.Part, memName string, length int) (int, error) {
	mem := p.Memory(memName)
	if mem == nil {
		return 0, fmt.Errorf("%w: %q of %s", part.ErrMemoryNotFound, memName, p.Desc)
	}

	switch format {
	case FormatIntelHex, FormatSRec, FormatRawBin:
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidFormat, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n, err := writeTo(f, format, mem, length)
	if err != nil {
		return n, err
	}
	return n, f.Close()
}

// writeTo serializes according to format; spans picks what to emit.
func writeTo(f *os.File, format Format, mem *part.Memory, length int) (int, error) {
	sp := spans(mem, length)
	switch format {
	case FormatIntelHex:
		return writeIntelHex(f, sp)
	case FormatSRec:
		return writeSRec(f, sp, filepath.Base(f.Name()))
	default:
		return writeRawBin(f, mem, length)
	}
}

// span is a contiguous run of bytes to serialize.
type span struct {
	addr int
	data []byte
}

// spans determines what to write: the explicit prefix [0, length) when
// a positive length is given, else exactly the tagged runs so that
// sparse images round-trip.
func spans(mem *part.Memory, length int) []span {
	if length > 0 {
		if length > mem.Size {
			length = mem.Size
		}
		return []span{{addr: 0, data: mem.Buf[:length]}}
	}

	var out []span
	limit := mem.AllocatedLength()
	for i := 0; i < limit; {
		if !mem.Allocated(i) {
			i++
			continue
		}
		j := i
		for j < limit && mem.Allocated(j) {
			j++
		}
		out = append(out, span{addr: i, data: mem.Buf[i:j]})
		i = j
	}
	return out
}

// FuseFilename expands a user-supplied filename pattern for one fuse:
// the first '%' is replaced with the fuse's logical name, so one
// pattern can address every fuse memory in sequence.
func FuseFilename(pattern, fuse string) string {
	if i := strings.IndexByte(pattern, '%'); i >= 0 {
		return pattern[:i] + fuse + pattern[i+1:]
	}
	return pattern
}
