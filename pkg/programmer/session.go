package programmer

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avrkit-project/avrkit-go/pkg/log"
	"github.com/avrkit-project/avrkit-go/pkg/part"
)

// State is the lifecycle state of a session.
type State uint8

const (
	// StateClosed is the initial and final state.
	StateClosed State = iota
	// StateInitialized follows Setup.
	StateInitialized
	// StateOpen follows a successful Open.
	StateOpen
	// StateEnabled follows Enable; memory operations are legal here.
	StateEnabled
	// StateDisabled follows Disable.
	StateDisabled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateInitialized:
		return "initialized"
	case StateOpen:
		return "open"
	case StateEnabled:
		return "enabled"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Session binds one driver to one part for a programming run and
// enforces the lifecycle ordering. Hardware transports are exclusive
// access; one session per programmer at a time.
type Session struct {
	// ID correlates the session's log events (UUID).
	ID string

	// Logger receives structured events; nil disables logging.
	Logger log.Logger

	// Progress receives per-block reports during memory operations;
	// nil disables reporting.
	Progress ProgressFunc

	mu    sync.Mutex
	drv   Driver
	part  *part.Part
	state State
}

// NewSession creates a closed session around the given driver.
func NewSession(drv Driver) *Session {
	return &Session{
		ID:  uuid.NewString(),
		drv: drv,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Part returns the part bound by Enable, or nil before that.
func (s *Session) Part() *part.Part {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.part
}

// Setup prepares the driver. Closed -> Initialized.
func (s *Session) Setup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateClosed {
		return s.stateError("setup", StateClosed)
	}
	if err := s.drv.Setup(); err != nil {
		return err
	}
	s.state = StateInitialized
	return nil
}

// Open connects to the programmer. Initialized -> Open. On failure the
// session stays Initialized and the error matches ErrConnectionFailed;
// the caller may retry with a different port.
func (s *Session) Open(port string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInitialized {
		return s.stateError("open", StateInitialized)
	}
	if err := s.drv.Open(port); err != nil {
		s.logf(log.SevError, "opening port %s: %v", port, err)
		return err
	}
	s.state = StateOpen
	s.logf(log.SevNotice, "port %s open", port)
	return nil
}

// Enable powers up the programming interface and establishes the
// protocol session with the given part. Open -> Enabled. The part's
// memories must have been initialized.
func (s *Session) Enable(p *part.Part) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen {
		return s.stateError("enable", StateOpen)
	}
	if !p.Initialized() {
		return fmt.Errorf("%w: %s", part.ErrNotInitialized, p.Desc)
	}
	if err := s.drv.Enable(p); err != nil {
		return err
	}
	if err := s.drv.Initialize(p); err != nil {
		return err
	}
	s.part = p
	s.state = StateEnabled
	s.logf(log.SevInfo, "device %s initialized", p.Desc)
	return nil
}

// Disable powers down the programming interface. Enabled -> Disabled.
func (s *Session) Disable() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateEnabled {
		return s.stateError("disable", StateEnabled)
	}
	if err := s.drv.Disable(); err != nil {
		return err
	}
	s.state = StateDisabled
	return nil
}

// Close disconnects from the programmer and tears the driver down.
// Legal from Open or Disabled; the session ends Closed either way.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen && s.state != StateDisabled {
		return s.stateError("close", StateDisabled)
	}
	err := s.drv.Close()
	if terr := s.drv.Teardown(); err == nil {
		err = terr
	}
	s.part = nil
	s.state = StateClosed
	return err
}

// Read fills the named memory's buffer from the device and returns the
// number of bytes read. A shortfall against the memory size is logged
// as a warning, not an error.
func (s *Session) Read(memName string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mem, err := s.memory(memName)
	if err != nil {
		return 0, err
	}

	tracker := NewTracker(s.Progress, fmt.Sprintf("Reading %s", memName))
	n, err := s.drv.ReadMemory(s.part, mem, tracker.Report)
	tracker.Finish()
	if err != nil {
		return n, err
	}
	if n < mem.Size {
		s.logf(log.SevWarning, "read %d of %d bytes from %s", n, mem.Size, memName)
	}
	return n, nil
}

// Write programs the first n bytes of the named memory's buffer into
// the device and returns the number of bytes written. A shortfall is
// logged as a warning, not an error.
func (s *Session) Write(memName string, n int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mem, err := s.memory(memName)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > mem.Size {
		n = mem.Size
	}

	tracker := NewTracker(s.Progress, fmt.Sprintf("Writing %s", memName))
	written, err := s.drv.WriteMemory(s.part, mem, n, tracker.Report)
	tracker.Finish()
	if err != nil {
		return written, err
	}
	if written < n {
		s.logf(log.SevWarning, "wrote %d of %d bytes to %s", written, n, memName)
	}
	return written, nil
}

// ChipErase erases the bound device. A nil error means success.
func (s *Session) ChipErase() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateEnabled {
		return s.stateError("chip erase", StateEnabled)
	}
	if err := s.drv.ChipErase(s.part); err != nil {
		return err
	}
	s.logf(log.SevInfo, "chip erase done")
	return nil
}

// memory resolves a memory name against the bound part. Callers hold
// the session lock.
func (s *Session) memory(name string) (*part.Memory, error) {
	if s.state != StateEnabled {
		return nil, s.stateError("memory operation", StateEnabled)
	}
	mem := s.part.Memory(name)
	if mem == nil {
		return nil, fmt.Errorf("%w: %q on %s", part.ErrMemoryNotFound, name, s.part.Desc)
	}
	return mem, nil
}

func (s *Session) stateError(op string, want State) error {
	return fmt.Errorf("%w: %s requires state %s, session is %s", ErrInvalidState, op, want, s.state)
}

// logf emits an event tagged with the session ID. Callers may hold the
// session lock; the logger must not call back into the session.
func (s *Session) logf(sev log.Severity, format string, args ...any) {
	if s.Logger == nil {
		return
	}
	s.Logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: s.ID,
		Severity:  sev,
		Message:   fmt.Sprintf(format, args...),
	})
}
