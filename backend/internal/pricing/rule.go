// Package pricing splits a worked interval into priced segments.
//
// A RateCoefficient is a set of rules. Each rule looks at the shift and says how much of the
// remaining worked time it covers, that it does not apply, or that it is a flat allowance.
// Calc walks coefficients from the highest priority down and hands whatever is left to "base".
// Everything here is pure: no I/O, no clock, safe for concurrent use.
package pricing

import (
	"time"

	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/worktime"
)

// Verdict is what a rule says about a piece of work
type Verdict int

const (
	// Applies the rule covers Outcome.Duration of the remaining time
	Applies Verdict = iota
	// NotApplicable the whole coefficient is skipped
	NotApplicable
	// FlatAllowance a fixed one-hour charge that does not consume worked time
	FlatAllowance
)

// AllowanceDuration is the nominal length billed for a flat allowance
const AllowanceDuration = time.Hour

// Outcome of evaluating one rule
type Outcome struct {
	Verdict  Verdict
	Duration time.Duration
}

func covers(d time.Duration) Outcome {
	if d < 0 {
		d = 0
	}
	return Outcome{Verdict: Applies, Duration: d}
}

var (
	notApplicable = Outcome{Verdict: NotApplicable}
	flatAllowance = Outcome{Verdict: FlatAllowance, Duration: AllowanceDuration}
)

// Work is the input a rule sees
type Work struct {
	// Start is the shift start in the site's location; weekday and time-of-day checks read it there
	Start time.Time
	// Remaining worked time not yet claimed by a higher-priority coefficient, breaks excluded
	Remaining time.Duration
	// Break is optional
	Break *worktime.Interval
}

// Rule is closed: only the four kinds in this package implement it
type Rule interface {
	ApplicableDuration(w Work) Outcome
	DefaultPriority() int
	rule()
}

// Default rule priorities, higher runs first
const (
	WeekdayPriority       = 10
	OvertimePriority      = 20
	TimeOfDayPriority     = 30
	TimeOfDayWrapPriority = 35
	AllowancePriority     = 50
)

// ── weekday ──

// WeekdayRule is all or nothing on the start day
type WeekdayRule struct {
	Days []time.Weekday
}

func (r WeekdayRule) ApplicableDuration(w Work) Outcome {
	day := w.Start.Weekday()
	for _, d := range r.Days {
		if d == day {
			return covers(w.Remaining)
		}
	}
	return notApplicable
}

func (WeekdayRule) DefaultPriority() int { return WeekdayPriority }
func (WeekdayRule) rule()                {}

// ── overtime ──

// OvertimeRule covers worked time between From and To. A zero To leaves the band open.
type OvertimeRule struct {
	From time.Duration
	To   time.Duration
}

func (r OvertimeRule) ApplicableDuration(w Work) Outcome {
	if r.To > 0 && r.To <= r.From {
		return covers(0)
	}
	switch {
	case r.To > 0 && w.Remaining > r.To:
		return covers(r.To - r.From)
	case w.Remaining > r.From:
		return covers(w.Remaining - r.From)
	default:
		return covers(0)
	}
}

func (OvertimeRule) DefaultPriority() int { return OvertimePriority }
func (OvertimeRule) rule()                {}

// ── time of day ──

// TimeOfDayRule covers worked time inside a daily window. End before Start wraps past midnight,
// End equal to Start is the whole day.
type TimeOfDayRule struct {
	Start worktime.Clock
	End   worktime.Clock
}

// Wraps reports whether the window crosses midnight
func (r TimeOfDayRule) Wraps() bool {
	return !r.Start.Before(r.End)
}

func (r TimeOfDayRule) ApplicableDuration(w Work) Outcome {
	loc := w.Start.Location()

	var breakLen time.Duration
	if w.Break != nil {
		breakLen = w.Break.Duration()
	}
	span := worktime.Interval{Start: w.Start, End: w.Start.Add(w.Remaining + breakLen)}

	var brk *worktime.Interval
	if w.Break != nil {
		if in, ok := span.Intersect(*w.Break); ok {
			brk = &in
		}
	}

	// occurrences never overlap each other; the one anchored on the day before
	// can still reach into the start day
	var inside, breakInside time.Duration
	for day := worktime.AddDays(worktime.DayStart(w.Start, loc), -1); day.Before(span.End); day = worktime.AddDays(day, 1) {
		win := r.window(day, loc)
		inside += span.Overlap(win)
		if brk != nil {
			breakInside += brk.Overlap(win)
		}
	}

	return covers(inside - breakInside)
}

func (r TimeOfDayRule) window(day time.Time, loc *time.Location) worktime.Interval {
	start := r.Start.On(day, loc)
	end := r.End.On(day, loc)
	if r.Wraps() {
		end = r.End.On(worktime.AddDays(day, 1), loc)
	}
	return worktime.Interval{Start: start, End: end}
}

func (r TimeOfDayRule) DefaultPriority() int {
	if r.Wraps() {
		return TimeOfDayWrapPriority
	}
	return TimeOfDayPriority
}

func (TimeOfDayRule) rule() {}

// ── allowance ──

// AllowanceRule always yields the flat allowance
type AllowanceRule struct {
	Description string
}

func (AllowanceRule) ApplicableDuration(Work) Outcome { return flatAllowance }
func (AllowanceRule) DefaultPriority() int          { return AllowancePriority }
func (AllowanceRule) rule()                         {}
