package stk500

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/term"

	"github.com/avrkit-project/avrkit-go/pkg/programmer"
)

// transport is the byte stream to the programmer. Drain discards any
// pending input, used around sync recovery.
type transport interface {
	io.ReadWriteCloser
	Drain() error
}

// readTimeout bounds a blocking read on the serial line. The STK500
// answers well inside this; a silent line means the wrong port or a
// device stuck outside the bootloader.
const readTimeout = 2 * time.Second

// serialPort is a posix serial device in raw mode.
type serialPort struct {
	t *term.Term
}

// openSerial opens the device at the given baud rate in raw mode.
// Failures map to ErrConnectionFailed; the port may simply be wrong.
func openSerial(device string, baud int) (*serialPort, error) {
	t, err := term.Open(device, term.Speed(baud), term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", programmer.ErrConnectionFailed, device, err)
	}
	if err := t.SetReadTimeout(readTimeout); err != nil {
		t.Close()
		return nil, fmt.Errorf("%w: %s: %v", programmer.ErrConnectionFailed, device, err)
	}
	return &serialPort{t: t}, nil
}

func (s *serialPort) Read(p []byte) (int, error)  { return s.t.Read(p) }
func (s *serialPort) Write(p []byte) (int, error) { return s.t.Write(p) }
func (s *serialPort) Close() error                { return s.t.Close() }

// Drain flushes both the input and output queues.
func (s *serialPort) Drain() error { return s.t.Flush() }
