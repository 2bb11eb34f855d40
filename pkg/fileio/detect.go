package fileio

import (
	"bufio"
	"io"
	"os"
)

// maxDetectLines bounds how far Autodetect scans into a file looking
// for a record signature.
const maxDetectLines = 32

// Autodetect inspects a file's content to distinguish ELF, Intel HEX
// and Motorola S-record. It returns FormatUnknown for empty files and
// content matching no signature; it never fails on unrecognizable
// content, only on I/O errors.
func Autodetect(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()
	return AutodetectReader(f)
}

// AutodetectReader is Autodetect over an io.Reader.
func AutodetectReader(r io.Reader) (Format, error) {
	br := bufio.NewReader(r)

	magic, err := br.Peek(4)
	if err == nil && magic[0] == 0x7f && magic[1] == 'E' && magic[2] == 'L' && magic[3] == 'F' {
		return FormatELF, nil
	}

	for i := 0; i < maxDetectLines; i++ {
		line, err := br.ReadString('\n')
		if format := couldBe(trimEOL(line)); format != FormatUnknown {
			return format, nil
		}
		if err != nil {
			break
		}
	}
	return FormatUnknown, nil
}

// couldBe checks whether one line is shaped like an Intel HEX or
// S-record, including that the declared data length fits the line.
func couldBe(line string) Format {
	if len(line) >= 11 && line[0] == ':' && isHex(line[1]) && isHex(line[2]) {
		n := hexVal(line[1])<<4 | hexVal(line[2])
		want := 2*n + 8 // len + addr + type + data + cksum digits
		if len(line) >= 1+want && allHex(line[1:1+want]) {
			return FormatIntelHex
		}
	}
	if len(line) >= 10 && line[0] == 'S' && line[1] >= '0' && line[1] <= '9' &&
		isHex(line[2]) && isHex(line[3]) {
		n := hexVal(line[2])<<4 | hexVal(line[3])
		want := 2 * n // count covers addr + data + cksum
		if len(line) >= 4+want && allHex(line[4:4+want]) {
			return FormatSRec
		}
	}
	return FormatUnknown
}

func trimEOL(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r' ||
		s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}
	return s
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func allHex(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isHex(s[i]) {
			return false
		}
	}
	return true
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}
