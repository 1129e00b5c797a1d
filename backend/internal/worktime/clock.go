// Package worktime holds the time arithmetic shared by offers, timesheets and pricing:
// wall-clock parsing, shift start instants, interval overlap and timezone resolution.
package worktime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a wall-clock time of day without a date
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// ParseClock accepts "HH:MM" and "HH:MM:SS" (the form PostgreSQL returns for TIME columns)
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Clock{}, fmt.Errorf("worktime: invalid clock %q", s)
	}

	vals := make([]int, 3)
	for i, p := range parts {
		// drop fractional seconds, "08:30:00.000000"
		if i == 2 {
			p, _, _ = strings.Cut(p, ".")
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Clock{}, fmt.Errorf("worktime: invalid clock %q: %w", s, err)
		}
		vals[i] = n
	}

	c := Clock{Hour: vals[0], Minute: vals[1], Second: vals[2]}
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 || c.Second < 0 || c.Second > 59 {
		return Clock{}, fmt.Errorf("worktime: clock %q out of range", s)
	}
	return c, nil
}

// MustClock is ParseClock for literals
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) String() string {
	if c.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
	}
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Offset is the duration since midnight
func (c Clock) Offset() time.Duration {
	return time.Duration(c.Hour)*time.Hour + time.Duration(c.Minute)*time.Minute + time.Duration(c.Second)*time.Second
}

// Before reports whether c is earlier in the day than o
func (c Clock) Before(o Clock) bool {
	return c.Offset() < o.Offset()
}

// On places the clock on the calendar day of day, as seen in loc
func (c Clock) On(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.In(loc).Date()
	return time.Date(y, m, d, c.Hour, c.Minute, c.Second, 0, loc)
}

// ShiftStart combines a calendar date (only Y/M/D are used) with a start clock in loc.
// The date is read in its own location so a UTC-midnight date column maps to the same calendar day.
func ShiftStart(date time.Time, clock Clock, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, clock.Hour, clock.Minute, clock.Second, 0, loc)
}

// DayStart is midnight of t's calendar day in loc
func DayStart(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// AddDays moves t by n calendar days keeping the wall clock, so DST changes do not shift the hour
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
