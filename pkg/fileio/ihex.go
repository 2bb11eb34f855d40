package fileio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/avrkit-project/avrkit-go/pkg/part"
)

// Intel HEX record types.
const (
	ihexData      = 0x00
	ihexEOF       = 0x01
	ihexExtSeg    = 0x02
	ihexStartSeg  = 0x03
	ihexExtLinear = 0x04
	ihexStartLin  = 0x05
)

// ihexRecLen is the data byte count per emitted record.
const ihexRecLen = 16

type ihexRec struct {
	length  int
	loadofs int
	rectyp  int
	data    []byte
}

// parseIhexRec parses one ":llaaaatt...cc" line and validates its
// checksum (two's complement of the byte sum).
func parseIhexRec(line string) (*ihexRec, error) {
	if len(line) < 11 || line[0] != ':' {
		return nil, fmt.Errorf("malformed record %q", line)
	}
	body := line[1:]
	if len(body)%2 != 0 || !allHex(body) {
		return nil, fmt.Errorf("malformed record %q", line)
	}
	raw := make([]byte, len(body)/2)
	for i := range raw {
		raw[i] = byte(hexVal(body[2*i])<<4 | hexVal(body[2*i+1]))
	}

	r := &ihexRec{
		length:  int(raw[0]),
		loadofs: int(raw[1])<<8 | int(raw[2]),
		rectyp:  int(raw[3]),
	}
	if len(raw) != 5+r.length {
		return nil, fmt.Errorf("record length mismatch in %q", line)
	}
	var sum byte
	for _, b := range raw {
		sum += b
	}
	if sum != 0 {
		return nil, fmt.Errorf("checksum error in %q", line)
	}
	r.data = raw[4 : 4+r.length]
	return r, nil
}

// readIntelHex loads an Intel HEX file into mem, honoring extended
// segment (type 02) and extended linear (type 04) base addresses.
// Returns one past the highest address written.
func readIntelHex(path string, mem *part.Memory, maxLen int) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var base, maxAddr int
	sc := bufio.NewScanner(f)
	for lineno := 1; sc.Scan(); lineno++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		rec, err := parseIhexRec(line)
		if err != nil {
			return 0, fmt.Errorf("%s line %d: %w", path, lineno, err)
		}

		switch rec.rectyp {
		case ihexData:
			for i, b := range rec.data {
				addr := base + rec.loadofs + i
				if addr >= maxLen {
					return 0, fmt.Errorf("%w: %s address 0x%05x, %s holds 0x%05x bytes",
						ErrFileTooLarge, path, addr, mem.Desc, maxLen)
				}
				if err := mem.Set(addr, b); err != nil {
					return 0, err
				}
				if addr+1 > maxAddr {
					maxAddr = addr + 1
				}
			}
		case ihexEOF:
			return maxAddr, nil
		case ihexExtSeg:
			base = (int(rec.data[0])<<8 | int(rec.data[1])) << 4
		case ihexExtLinear:
			base = (int(rec.data[0])<<8 | int(rec.data[1])) << 16
		case ihexStartSeg, ihexStartLin:
			// start addresses carry no memory content
		default:
			return 0, fmt.Errorf("%s line %d: unsupported record type 0x%02x", path, lineno, rec.rectyp)
		}
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	// no EOF record; accept what was read
	return maxAddr, nil
}

// writeIntelHex serializes spans as 16-byte data records, inserting
// extended linear address records when crossing a 64 KiB boundary, and
// terminates with the EOF record. Returns the number of data bytes
// emitted.
func writeIntelHex(w io.Writer, sp []span) (int, error) {
	bw := bufio.NewWriter(w)
	written := 0
	highWord := 0

	for _, s := range sp {
		addr := s.addr
		data := s.data
		for len(data) > 0 {
			n := ihexRecLen - addr%ihexRecLen // keep records aligned
			if n > len(data) {
				n = len(data)
			}
			if hw := addr >> 16; hw != highWord {
				if err := ihexPutRec(bw, 0, ihexExtLinear, []byte{byte(hw >> 8), byte(hw)}); err != nil {
					return written, err
				}
				highWord = hw
			}
			if err := ihexPutRec(bw, addr&0xffff, ihexData, data[:n]); err != nil {
				return written, err
			}
			written += n
			addr += n
			data = data[n:]
		}
	}

	if err := ihexPutRec(bw, 0, ihexEOF, nil); err != nil {
		return written, err
	}
	return written, bw.Flush()
}

func ihexPutRec(w io.Writer, addr, rectyp int, data []byte) error {
	sum := byte(len(data)) + byte(addr>>8) + byte(addr) + byte(rectyp)
	if _, err := fmt.Fprintf(w, ":%02X%04X%02X", len(data), addr, rectyp); err != nil {
		return err
	}
	for _, b := range data {
		if _, err := fmt.Fprintf(w, "%02X", b); err != nil {
			return err
		}
		sum += b
	}
	_, err := fmt.Fprintf(w, "%02X\n", -sum&0xff)
	return err
}
