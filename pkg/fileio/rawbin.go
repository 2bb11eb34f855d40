package fileio

import (
	"fmt"
	"io"
	"os"

	"github.com/avrkit-project/avrkit-go/pkg/part"
)

// readRawBin loads a raw binary image at offset zero. The file must fit
// into maxLen bytes.
func readRawBin(path string, mem *part.Memory, maxLen int) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	buf := make([]byte, maxLen+1)
	n, err := io.ReadFull(f, buf)
	if err != io.EOF && err != io.ErrUnexpectedEOF {
		if err == nil {
			return 0, fmt.Errorf("%w: %s, %s holds 0x%05x bytes", ErrFileTooLarge, path, mem.Desc, maxLen)
		}
		return 0, err
	}

	copy(mem.Buf, buf[:n])
	mem.TagRange(0, n)
	return n, nil
}

// writeRawBin dumps the memory buffer verbatim. A non-positive length
// writes every byte up to the highest one marked as written; holes are
// emitted as stored since raw binary cannot express sparseness.
func writeRawBin(w io.Writer, mem *part.Memory, length int) (int, error) {
	if length <= 0 {
		length = mem.AllocatedLength()
	}
	if length > mem.Size {
		length = mem.Size
	}
	n, err := w.Write(mem.Buf[:length])
	return n, err
}
