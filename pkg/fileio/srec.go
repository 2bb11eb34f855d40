package fileio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/avrkit-project/avrkit-go/pkg/part"
)

// readSRec loads a Motorola S-record file into mem. S1/S2/S3 data
// records with 2/3/4 address bytes are accepted, S0 headers and S5/S6
// counts are skipped, S7/S8/S9 terminate. Returns one past the highest
// address written.
func readSRec(path string, mem *part.Memory, maxLen int) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	maxAddr := 0
	sc := bufio.NewScanner(f)
	for lineno := 1; sc.Scan(); lineno++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		typ, addr, data, err := parseSRec(line)
		if err != nil {
			return 0, fmt.Errorf("%s line %d: %w", path, lineno, err)
		}

		switch typ {
		case '1', '2', '3':
			for i, b := range data {
				a := addr + i
				if a >= maxLen {
					return 0, fmt.Errorf("%w: %s address 0x%05x, %s holds 0x%05x bytes",
						ErrFileTooLarge, path, a, mem.Desc, maxLen)
				}
				if err := mem.Set(a, b); err != nil {
					return 0, err
				}
				if a+1 > maxAddr {
					maxAddr = a + 1
				}
			}
		case '7', '8', '9':
			return maxAddr, nil
		case '0', '4', '5', '6':
			// header, reserved and record counts carry no content
		default:
			return 0, fmt.Errorf("unsupported record type S%c", typ)
		}
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return maxAddr, nil
}

// parseSRec parses one "Stnn..." line, validating length and the
// ones'-complement checksum, and returns the record type digit, the
// decoded address and the data bytes.
func parseSRec(line string) (byte, int, []byte, error) {
	if len(line) < 10 || line[0] != 'S' || line[1] < '0' || line[1] > '9' {
		return 0, 0, nil, fmt.Errorf("malformed record %q", line)
	}
	body := line[2:]
	if len(body)%2 != 0 || !allHex(body) {
		return 0, 0, nil, fmt.Errorf("malformed record %q", line)
	}
	raw := make([]byte, len(body)/2)
	for i := range raw {
		raw[i] = byte(hexVal(body[2*i])<<4 | hexVal(body[2*i+1]))
	}
	if int(raw[0]) != len(raw)-1 {
		return 0, 0, nil, fmt.Errorf("record length mismatch in %q", line)
	}

	var sum byte
	for _, b := range raw {
		sum += b
	}
	if sum != 0xff {
		return 0, 0, nil, fmt.Errorf("checksum error in %q", line)
	}

	typ := line[1]
	addrBytes := srecAddrBytes(typ)
	if len(raw) < 1+addrBytes+1 {
		return 0, 0, nil, fmt.Errorf("record too short in %q", line)
	}
	addr := 0
	for _, b := range raw[1 : 1+addrBytes] {
		addr = addr<<8 | int(b)
	}
	data := raw[1+addrBytes : len(raw)-1]
	return typ, addr, data, nil
}

// srecAddrBytes returns the address width for a record type digit.
func srecAddrBytes(typ byte) int {
	switch typ {
	case '0', '1', '5', '9':
		return 2
	case '2', '6', '8':
		return 3
	default:
		return 4
	}
}

// writeSRec serializes spans as S-records: an S0 header naming the
// file, S1/S2/S3 data records picked by the highest address, and the
// matching S9/S8/S7 terminator. Returns the number of data bytes
// emitted.
func writeSRec(w io.Writer, sp []span, header string) (int, error) {
	bw := bufio.NewWriter(w)

	if err := srecPutRec(bw, '0', 2, 0, []byte(header)); err != nil {
		return 0, err
	}

	// pick the narrowest record type that fits the highest address
	maxAddr := 0
	for _, s := range sp {
		if end := s.addr + len(s.data); end > maxAddr {
			maxAddr = end
		}
	}
	dataTyp, termTyp, addrBytes := byte('1'), byte('9'), 2
	switch {
	case maxAddr > 0xffffff:
		dataTyp, termTyp, addrBytes = '3', '7', 4
	case maxAddr > 0xffff:
		dataTyp, termTyp, addrBytes = '2', '8', 3
	}

	written := 0
	for _, s := range sp {
		addr := s.addr
		data := s.data
		for len(data) > 0 {
			n := ihexRecLen - addr%ihexRecLen
			if n > len(data) {
				n = len(data)
			}
			if err := srecPutRec(bw, dataTyp, addrBytes, addr, data[:n]); err != nil {
				return written, err
			}
			written += n
			addr += n
			data = data[n:]
		}
	}

	if err := srecPutRec(bw, termTyp, addrBytes, 0, nil); err != nil {
		return written, err
	}
	return written, bw.Flush()
}

func srecPutRec(w io.Writer, typ byte, addrBytes, addr int, data []byte) error {
	count := addrBytes + len(data) + 1
	if _, err := fmt.Fprintf(w, "S%c%02X", typ, count); err != nil {
		return err
	}
	sum := byte(count)
	for i := addrBytes - 1; i >= 0; i-- {
		b := byte(addr >> (8 * i))
		if _, err := fmt.Fprintf(w, "%02X", b); err != nil {
			return err
		}
		sum += b
	}
	for _, b := range data {
		if _, err := fmt.Fprintf(w, "%02X", b); err != nil {
			return err
		}
		sum += b
	}
	_, err := fmt.Fprintf(w, "%02X\n", ^sum)
	return err
}
