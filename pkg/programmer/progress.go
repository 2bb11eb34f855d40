package programmer

import "time"

// Progress is one progress report for a long-running memory operation.
type Progress struct {
	// Percent complete, 0 to 100.
	Percent int

	// Elapsed time since the operation started.
	Elapsed time.Duration

	// Phase labels the operation ("Reading flash", "Writing eeprom").
	Phase string

	// Done marks the final report of the operation.
	Done bool
}

// ProgressFunc receives progress reports. It may be invoked once per
// transferred block and must not block.
type ProgressFunc func(Progress)

// ReportFunc is the driver-side progress callback: done bytes moved
// out of total. Drivers invoke it once per transferred block; a nil
// ReportFunc disables reporting and drivers must tolerate it.
type ReportFunc func(done, total int)

// Tracker turns the raw completion counts reported by a driver into
// Progress reports. The Session creates one per memory operation and
// hands its Report method to the driver.
type Tracker struct {
	fn    ProgressFunc
	phase string
	start time.Time
	last  int
}

// NewTracker starts tracking an operation. fn may be nil, in which case
// all reports are discarded.
func NewTracker(fn ProgressFunc, phase string) *Tracker {
	return &Tracker{
		fn:    fn,
		phase: phase,
		start: time.Now(),
		last:  -1,
	}
}

// Report delivers the completion ratio done/total as a percentage.
// Repeated reports of the same percentage are suppressed.
func (t *Tracker) Report(done, total int) {
	if t.fn == nil || total <= 0 {
		return
	}
	pct := done * 100 / total
	if pct == t.last {
		return
	}
	t.last = pct
	t.fn(Progress{
		Percent: pct,
		Elapsed: time.Since(t.start),
		Phase:   t.phase,
	})
}

// Finish delivers the final report at 100 percent.
func (t *Tracker) Finish() {
	if t.fn == nil {
		return
	}
	t.fn(Progress{
		Percent: 100,
		Elapsed: time.Since(t.start),
		Phase:   t.phase,
		Done:    true,
	})
}
