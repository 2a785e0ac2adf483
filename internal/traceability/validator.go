// Package traceability decides whether a scan is unique within its process
// and whether the unit was scanned at the upstream process beforehand.
//
// Checks are read-only over a snapshot of decoded table rows supplied by the
// caller.
package traceability

import (
	"time"

	"lotwatch/internal/catalog"
	"lotwatch/internal/scan"
)

const day = 24 * time.Hour

// Options configures a Validator.
type Options struct {
	// WindowDays is the maximum whole-day age of a previous-process scan.
	WindowDays int
	// DeburrProcess names the process after which machining re-serializes units.
	DeburrProcess string
}

// Validator applies the uniqueness and previous-process rules.
type Validator struct {
	windowDays    int
	deburrProcess string
}

// New returns a Validator for opts.
func New(opts Options) *Validator {
	return &Validator{windowDays: opts.WindowDays, deburrProcess: opts.DeburrProcess}
}

// IsDuplicate reports whether table already holds a scan of the same unit.
func (v *Validator) IsDuplicate(event scan.Event, table []scan.Event) bool {
	for _, existing := range table {
		if scan.SameUnit(event, existing) {
			return true
		}
	}
	return false
}

// HasPreviousProcessMatch reports whether any row of the previous process's
// table satisfies event. Processes without a previous process always pass.
func (v *Validator) HasPreviousProcessMatch(event scan.Event, previous []scan.Event) bool {
	if _, ok := event.Process.PreviousProcess(); !ok {
		return true
	}
	for _, candidate := range previous {
		if v.matchesPrevious(event, candidate) {
			return true
		}
	}
	return false
}

func (v *Validator) matchesPrevious(event, candidate scan.Event) bool {
	return v.serialMatches(event, candidate) &&
		event.Part.Model == candidate.Part.Model &&
		v.withinWindow(event.ProducedAt, candidate.ProducedAt)
}

// serialMatches compares serials, except across the deburr to machining
// boundary where the event's deburr JBK carries the upstream identity.
func (v *Validator) serialMatches(event, candidate scan.Event) bool {
	candidateSerial := candidate.SerialValue()
	if candidateSerial == "" {
		return false
	}
	if v.crossesDeburr(event.Process) {
		if event.Fields.DeburrJBK == nil {
			return false
		}
		return event.Fields.DeburrJBK.String() == candidateSerial
	}
	return event.SerialValue() == candidateSerial
}

func (v *Validator) crossesDeburr(p catalog.Process) bool {
	if p.Type != catalog.TypeMachining || v.deburrProcess == "" {
		return false
	}
	previous, ok := p.PreviousProcess()
	return ok && previous == v.deburrProcess
}

// withinWindow truncates the wall-clock gap to whole days before comparing.
func (v *Validator) withinWindow(produced, candidate time.Time) bool {
	diff := wallClock(produced).Sub(wallClock(candidate))
	if diff < 0 {
		return false
	}
	return int(diff/day) <= v.windowDays
}

// wallClock drops the zone so a daylight-saving shift between two stamps does
// not change the gap.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
