package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avrkit-project/avrkit-go/pkg/catalog"
	"github.com/avrkit-project/avrkit-go/pkg/log"
	"github.com/avrkit-project/avrkit-go/pkg/programmer"
	"github.com/avrkit-project/avrkit-go/pkg/programmer/dryrun"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPartsCommand(t *testing.T) {
	out, err := execute(t, "parts")
	require.NoError(t, err)
	assert.Contains(t, out, "ATmega328P")
	assert.Contains(t, out, "1e950f")
	assert.NotContains(t, out, ".avr8base")
}

func TestPartsFamilyFilter(t *testing.T) {
	out, err := execute(t, "parts", "--family", "attiny")
	require.NoError(t, err)
	assert.Contains(t, out, "ATtiny85")
	assert.NotContains(t, out, "ATmega328P")

	_, err = execute(t, "parts", "--family", "pic")
	assert.Error(t, err)
}

func TestProgrammersCommand(t *testing.T) {
	out, err := execute(t, "programmers")
	require.NoError(t, err)
	assert.Contains(t, out, "usbasp")
	assert.Contains(t, out, "arduino")

	out, err = execute(t, "programmers", "--class", "updi")
	require.NoError(t, err)
	assert.Contains(t, out, "dryrun")
	assert.NotContains(t, out, "usbasp")
}

func TestFuseDissect(t *testing.T) {
	out, err := execute(t, "fuse", "dissect", "-p", "m328p", "lfuse", "0x62")
	require.NoError(t, err)
	assert.Contains(t, out, "SUT_CKSEL")
	assert.Contains(t, out, "intrcosc_8mhz_6ck_14ck_65ms")
	assert.Contains(t, out, "ckout_disabled")
	assert.Contains(t, out, "divide_by_8")
}

func TestFuseDefault(t *testing.T) {
	out, err := execute(t, "fuse", "default", "-p", "m328p")
	require.NoError(t, err)
	assert.Contains(t, out, "lfuse\t0x62")
	assert.Contains(t, out, "hfuse\t0xd9")
	assert.Contains(t, out, "efuse\t0xff")

	out, err = execute(t, "fuse", "default", "-p", "m328p", "hfuse")
	require.NoError(t, err)
	assert.Equal(t, "hfuse\t0xd9\n", out)
}

func TestFuseDefaultAliasKey(t *testing.T) {
	// Logical alias names resolve through the table's memstr.
	out, err := execute(t, "fuse", "default", "-p", "avr64da48", "wdtcfg")
	require.NoError(t, err)
	assert.Equal(t, "fuse0\t0x00\n", out)
}

func TestFuseSynth(t *testing.T) {
	out, err := execute(t, "fuse", "synth", "-p", "m328p", "efuse", "BODLEVEL=bod_2v7")
	require.NoError(t, err)
	assert.Equal(t, "0xfd\n", out)

	// No selections: erased baseline minus known masks.
	out, err = execute(t, "fuse", "synth", "-p", "m328p", "efuse")
	require.NoError(t, err)
	assert.Equal(t, "0xf8\n", out)

	_, err = execute(t, "fuse", "synth", "-p", "m328p", "efuse", "BODLEVEL")
	assert.Error(t, err)
}

func TestFuseUnknownPartAndKey(t *testing.T) {
	_, err := execute(t, "fuse", "default", "-p", "z80")
	assert.Error(t, err)

	_, err = execute(t, "fuse", "default", "-p", "m328p", "qfuse")
	assert.Error(t, err)
}

func TestReadCommandWithSimulator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.hex")

	out, err := execute(t, "read", "-p", "m328p", "-c", "dryrun", "eeprom", path)
	require.NoError(t, err)
	assert.Contains(t, out, "eeprom")
	assert.FileExists(t, path)
}

func TestReadAllFusesTemplating(t *testing.T) {
	dir := t.TempDir()
	pattern := filepath.Join(dir, "fuse_%.hex")

	out, err := execute(t, "read", "-p", "m328p", "-c", "dryrun", "fuses", pattern)
	require.NoError(t, err)
	assert.Contains(t, out, "lfuse")

	assert.FileExists(t, filepath.Join(dir, "fuse_lfuse.hex"))
	assert.FileExists(t, filepath.Join(dir, "fuse_hfuse.hex"))
	assert.FileExists(t, filepath.Join(dir, "fuse_efuse.hex"))

	// Without the placeholder the command refuses.
	_, err = execute(t, "read", "-p", "m328p", "-c", "dryrun", "fuses",
		filepath.Join(dir, "all.hex"))
	assert.Error(t, err)
}

func TestWriteCommandWithSimulator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.hex")
	hex := ":10000000000102030405060708090A0B0C0D0E0F78\n:00000001FF\n"
	require.NoError(t, os.WriteFile(path, []byte(hex), 0644))

	out, err := execute(t, "write", "-p", "m328p", "-c", "dryrun", "flash", path)
	require.NoError(t, err)
	// 16 data bytes round up to one 128-byte flash page.
	assert.Contains(t, out, "128 bytes of flash written")
}

func TestEraseCommandWithSimulator(t *testing.T) {
	out, err := execute(t, "erase", "-p", "m328p", "-c", "dryrun")
	require.NoError(t, err)
	assert.Contains(t, out, "ATmega328P erased")
}

func TestSessionErrors(t *testing.T) {
	_, err := execute(t, "erase", "-p", "z80", "-c", "dryrun")
	assert.Error(t, err)

	_, err = execute(t, "erase", "-p", "m328p", "-c", "fluxcapacitor")
	assert.Error(t, err)

	// No driver exists for usbasp yet.
	_, err = execute(t, "erase", "-p", "m328p", "-c", "usbasp")
	assert.Error(t, err)

	// A wrong port fails the open with a connection error.
	_, err = execute(t, "erase", "-p", "m328p", "-c", "dryrun", "-P", "/dev/ttyS0")
	assert.Error(t, err)
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.hex")
	out := filepath.Join(dir, "out.srec")
	hex := ":10000000000102030405060708090A0B0C0D0E0F78\n:00000001FF\n"
	require.NoError(t, os.WriteFile(in, []byte(hex), 0644))

	msg, err := execute(t, "convert", "-p", "m328p", in, out)
	require.NoError(t, err)
	assert.Contains(t, msg, "16 bytes")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "S1")
}

func TestConvertRejectsELFOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.hex")
	require.NoError(t, os.WriteFile(in, []byte(":00000001FF\n"), 0644))

	_, err := execute(t, "convert", "-p", "m328p", "--to", "elf", in, filepath.Join(dir, "out.elf"))
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want string
	}{
		{"ihex", "Intel Hex"},
		{"srec", "Motorola S-Record"},
		{"bin", "raw binary"},
		{"elf", "ELF"},
		{"auto", "auto-detect"},
	} {
		f, err := parseFormat(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, f.String())
	}

	_, err := parseFormat("tape")
	assert.Error(t, err)
}

func TestLogFileSinkAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.alog")

	_, err := execute(t, "erase", "-p", "m328p", "-c", "dryrun", "--log-file", path)
	require.NoError(t, err)

	// The file sink records below the console severity cut.
	r, err := log.NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	var erase *log.Event
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		if strings.Contains(ev.Message, "chip erase") {
			e := ev
			erase = &e
		}
	}
	require.NotNil(t, erase, "no chip erase event in the log")
	assert.NotEmpty(t, erase.SessionID)

	out, err := execute(t, "log", path)
	require.NoError(t, err)
	assert.Contains(t, out, "chip erase done")
	assert.Contains(t, out, erase.SessionID[:8])

	// Info-level events drop out behind a stricter severity cut.
	out, err = execute(t, "log", "--severity", "error", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "chip erase")

	_, err = execute(t, "log", "--severity", "loud", path)
	assert.Error(t, err)

	_, err = execute(t, "log", filepath.Join(t.TempDir(), "absent.alog"))
	assert.Error(t, err)
}

func TestTermWritePreservesDeviceContent(t *testing.T) {
	c, err := catalog.LoadEmbedded()
	require.NoError(t, err)
	p, err := lookupPart(c, "m328p")
	require.NoError(t, err)

	sess := programmer.NewSession(dryrun.New())
	require.NoError(t, sess.Setup())
	require.NoError(t, sess.Open(programmer.PortSim))
	require.NoError(t, sess.Enable(p))
	defer closeSession(sess)

	out := &bytes.Buffer{}
	tm := &term{sess: sess, part: p, out: out}
	tm.dispatch([]string{"write", "eeprom", "4", "0x5a", "0xa5"})
	assert.Contains(t, out.String(), "2 bytes written")

	// Reading back shows the edited bytes surrounded by the erased
	// state, not a zero-filled prefix.
	eeprom := p.Memory("eeprom")
	require.NotNil(t, eeprom)
	eeprom.Clear(eeprom.Size)
	_, err = sess.Read("eeprom")
	require.NoError(t, err)
	assert.Equal(t, byte(0xff), eeprom.Buf[0])
	assert.Equal(t, byte(0x5a), eeprom.Buf[4])
	assert.Equal(t, byte(0xa5), eeprom.Buf[5])
	assert.Equal(t, byte(0xff), eeprom.Buf[6])
}

func TestHexdump(t *testing.T) {
	data := append([]byte("Hello, AVR!"), 0x00, 0xff, 0x7f, 0x20, 0x1f, 0x41)
	got := hexdump(data, 0x100)

	want := "0100  48 65 6c 6c 6f 2c 20 41  56 52 21 00 ff 7f 20 1f  |Hello, AVR!... .|\n" +
		"0110  41 " + strings.Repeat(" ", 46) + " |A|\n"
	assert.Equal(t, want, got)
}
