// Package programmer models AVR programmer hardware: the descriptor
// metadata loaded from a catalog, the Driver interface a protocol
// implementation satisfies, and the Session state machine that binds
// one driver to one part for the duration of a programming run.
//
// A session walks a fixed lifecycle:
//
//	sess := programmer.NewSession(drv)
//	sess.Setup()               // Closed -> Initialized
//	err := sess.Open(port)     // Initialized -> Open
//	if errors.Is(err, programmer.ErrConnectionFailed) { ... retry ... }
//	sess.Enable(part)          // Open -> Enabled
//	sess.Read("flash")         // memory operations, Enabled only
//	sess.Disable()             // Enabled -> Disabled
//	sess.Close()               // Disabled -> Closed
//
// Out-of-order transitions fail with ErrInvalidState. Open is the one
// call whose failure is expected in normal operation (wrong port, cable
// unplugged) and must be checked explicitly before proceeding.
package programmer
