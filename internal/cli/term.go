package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/avrkit-project/avrkit-go/pkg/part"
	"github.com/avrkit-project/avrkit-go/pkg/programmer"
)

// NewTermCommand creates the interactive terminal command.
func NewTermCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &sessionOptions{}

	cmd := &cobra.Command{
		Use:   "term",
		Short: "Interactive session with the device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, p, err := openSession(rootOpts, opts, nil)
			if err != nil {
				return err
			}
			defer closeSession(sess)

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "avrkit> ",
				InterruptPrompt: "^C",
				EOFPrompt:       "quit",
			})
			if err != nil {
				return fmt.Errorf("failed to create readline: %w", err)
			}
			defer rl.Close()

			t := &term{sess: sess, part: p, out: rl.Stdout()}
			t.printHelp()

			for {
				line, err := rl.Readline()
				if err == readline.ErrInterrupt {
					continue
				}
				if err != nil {
					return nil
				}
				if quit := t.dispatch(strings.Fields(strings.TrimSpace(line))); quit {
					return nil
				}
			}
		},
	}

	opts.register(cmd)
	return cmd
}

// term is the interactive command interpreter bound to one session.
type term struct {
	sess *programmer.Session
	part *part.Part
	out  io.Writer

	// lastMem/lastAddr continue a dump where the previous one ended.
	lastMem  string
	lastAddr int
}

// dispatch runs one command line; true means quit.
func (t *term) dispatch(fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "q", "exit":
		return true
	case "help", "?":
		t.printHelp()
	case "dump", "d", "read":
		t.cmdDump(args)
	case "write", "w":
		t.cmdWrite(args)
	case "erase", "e":
		t.cmdErase()
	case "sig":
		t.cmdSig()
	case "part", "p":
		t.cmdPart()
	default:
		fmt.Fprintf(t.out, "unknown command %q; try \"help\"\n", cmd)
	}
	return false
}

func (t *term) printHelp() {
	fmt.Fprint(t.out, `Commands:
  dump <memory> [addr [len]]   read and display memory (repeat to continue)
  write <memory> <addr> <b>... write bytes to memory
  erase                        chip erase
  sig                          display the device signature
  part                         display the bound part
  quit                         leave the terminal
`)
}

func (t *term) cmdDump(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(t.out, "usage: dump <memory> [addr [len]]")
		return
	}
	memName := args[0]
	mem := t.part.Memory(memName)
	if mem == nil {
		fmt.Fprintf(t.out, "no memory %q on %s\n", memName, t.part.Desc)
		return
	}

	addr := 0
	if memName == t.lastMem {
		addr = t.lastAddr
	}
	length := 256
	if len(args) > 1 {
		v, err := strconv.ParseInt(args[1], 0, 32)
		if err != nil {
			fmt.Fprintf(t.out, "bad address %q\n", args[1])
			return
		}
		addr = int(v)
	}
	if len(args) > 2 {
		v, err := strconv.ParseInt(args[2], 0, 32)
		if err != nil {
			fmt.Fprintf(t.out, "bad length %q\n", args[2])
			return
		}
		length = int(v)
	}
	if addr >= mem.Size {
		addr = 0
	}
	if addr+length > mem.Size {
		length = mem.Size - addr
	}

	if _, err := t.sess.Read(memName); err != nil {
		fmt.Fprintf(t.out, "read failed: %v\n", err)
		return
	}
	fmt.Fprint(t.out, hexdump(mem.Buf[addr:addr+length], addr))

	t.lastMem = memName
	t.lastAddr = addr + length
}

func (t *term) cmdWrite(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(t.out, "usage: write <memory> <addr> <byte>...")
		return
	}
	memName := args[0]
	mem := t.part.Memory(memName)
	if mem == nil {
		fmt.Fprintf(t.out, "no memory %q on %s\n", memName, t.part.Desc)
		return
	}
	addr, err := strconv.ParseInt(args[1], 0, 32)
	if err != nil {
		fmt.Fprintf(t.out, "bad address %q\n", args[1])
		return
	}

	// Refresh the buffer from the device so the write-back keeps the
	// current content outside the edited range.
	if _, err := t.sess.Read(memName); err != nil {
		fmt.Fprintf(t.out, "read failed: %v\n", err)
		return
	}

	for i, arg := range args[2:] {
		v, err := strconv.ParseUint(arg, 0, 8)
		if err != nil {
			fmt.Fprintf(t.out, "bad byte %q\n", arg)
			return
		}
		if err := mem.Set(int(addr)+i, byte(v)); err != nil {
			if errors.Is(err, part.ErrOutOfRange) {
				fmt.Fprintf(t.out, "%v\n", err)
				return
			}
			fmt.Fprintf(t.out, "write failed: %v\n", err)
			return
		}
	}

	n := int(addr) + len(args[2:])
	if _, err := t.sess.Write(memName, n); err != nil {
		fmt.Fprintf(t.out, "write failed: %v\n", err)
		return
	}
	fmt.Fprintf(t.out, "%d bytes written to %s\n", len(args[2:]), memName)
}

func (t *term) cmdErase() {
	if err := t.sess.ChipErase(); err != nil {
		fmt.Fprintf(t.out, "erase failed: %v\n", err)
		return
	}
	fmt.Fprintln(t.out, "chip erased")
}

func (t *term) cmdSig() {
	mem := t.part.Memory("signature")
	if mem == nil {
		fmt.Fprintf(t.out, "no signature memory on %s\n", t.part.Desc)
		return
	}
	if _, err := t.sess.Read("signature"); err != nil {
		fmt.Fprintf(t.out, "read failed: %v\n", err)
		return
	}
	fmt.Fprintf(t.out, "device signature =")
	for _, b := range mem.Buf {
		fmt.Fprintf(t.out, " 0x%02x", b)
	}
	fmt.Fprintln(t.out)
}

func (t *term) cmdPart() {
	p := t.part
	fmt.Fprintf(t.out, "%s (%s), signature %02x%02x%02x, interfaces %s\n",
		p.Desc, p.ID, p.Signature[0], p.Signature[1], p.Signature[2], p.ProgModes)
	for _, mem := range p.Memories() {
		if mem.Paged {
			fmt.Fprintf(t.out, "  %-12s %6d bytes, %d pages of %d\n",
				mem.Desc, mem.Size, mem.NumPages, mem.PageSize)
		} else {
			fmt.Fprintf(t.out, "  %-12s %6d bytes\n", mem.Desc, mem.Size)
		}
	}
}

// hexdump renders data as 16-byte lines with a printable-ASCII column,
// addresses offset by base.
func hexdump(data []byte, base int) string {
	var sb strings.Builder
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		line := data[off:end]

		fmt.Fprintf(&sb, "%04x  ", base+off)
		for i := 0; i < 16; i++ {
			if i < len(line) {
				fmt.Fprintf(&sb, "%02x ", line[i])
			} else {
				sb.WriteString("   ")
			}
			if i == 7 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(" |")
		for _, b := range line {
			if b >= 0x20 && b < 0x7f {
				sb.WriteByte(b)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString("|\n")
	}
	return sb.String()
}
