package worktime

import "time"

// Interval is a half-open span [Start, End)
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration is zero for empty or inverted intervals
func (i Interval) Duration() time.Duration {
	if !i.End.After(i.Start) {
		return 0
	}
	return i.End.Sub(i.Start)
}

// Intersect returns the common part of both intervals
func (i Interval) Intersect(o Interval) (Interval, bool) {
	start := i.Start
	if o.Start.After(start) {
		start = o.Start
	}
	end := i.End
	if o.End.Before(end) {
		end = o.End
	}
	if !end.After(start) {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// Overlap is the length of the intersection
func (i Interval) Overlap(o Interval) time.Duration {
	in, ok := i.Intersect(o)
	if !ok {
		return 0
	}
	return in.Duration()
}

// BreakInterval returns the break as an interval when both ends are known and ordered
func BreakInterval(start, end *time.Time) (Interval, bool) {
	if start == nil || end == nil || !end.After(*start) {
		return Interval{}, false
	}
	return Interval{Start: *start, End: *end}, true
}

// WorkedDuration is shift length minus the part of the break that falls inside the shift.
// An end at or before start yields zero.
func WorkedDuration(start, end time.Time, breakStart, breakEnd *time.Time) time.Duration {
	shift := Interval{Start: start, End: end}
	worked := shift.Duration()
	if worked == 0 {
		return 0
	}
	if brk, ok := BreakInterval(breakStart, breakEnd); ok {
		worked -= shift.Overlap(brk)
	}
	return worked
}
