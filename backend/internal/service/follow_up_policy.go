package service

import (
	"time"

	"github.com/shinystaratnight/endless-backend-sub001/backend/config"
)

// FollowUpPolicy decides when an undecided offer's message goes out.
// All times must be in the site's location: the hour boundaries are wall-clock hours there.
type FollowUpPolicy struct {
	ResendDelay      time.Duration
	ImmediateDelay   time.Duration
	MorningHour      int
	DayBoundaryHour  int
	LateWindow       time.Duration
	GraceAfterStart  time.Duration
	MorningCutoff    time.Duration
	FastTrackHorizon time.Duration
}

// NewFollowUpPolicy reads the policy from configuration
func NewFollowUpPolicy(cfg config.OfferConfig) FollowUpPolicy {
	return FollowUpPolicy{
		ResendDelay:      cfg.ResendDelay,
		ImmediateDelay:   cfg.ImmediateDelay,
		MorningHour:      cfg.MorningHour,
		DayBoundaryHour:  cfg.DayBoundaryHour,
		LateWindow:       cfg.LateWindow,
		GraceAfterStart:  cfg.GraceAfterStart,
		MorningCutoff:    cfg.MorningCutoff,
		FastTrackHorizon: cfg.FastTrackHorizon,
	}
}

// ResendAt is the send time for an explicit resend
func (p FollowUpPolicy) ResendAt(now time.Time) time.Time {
	return now.Add(p.ResendDelay)
}

// FollowUpAt returns when to send the offer message for a shift starting at start.
// ok is false when the shift is too far in the past to bother.
// fastTrack marks a candidate with no other future accepted offer and no earlier offer on the job.
func (p FollowUpPolicy) FollowUpAt(now, start time.Time, fastTrack bool) (at time.Time, ok bool) {
	loc := now.Location()
	start = start.In(loc)
	immediate := now.Add(p.ImmediateDelay)

	y, m, d := now.Date()
	boundary := time.Date(y, m, d+2, p.DayBoundaryHour, 0, 0, 0, loc)

	if !start.After(boundary) {
		if !now.Before(start.Add(-p.LateWindow)) {
			if !now.Before(start.Add(p.GraceAfterStart)) {
				return time.Time{}, false
			}
			return immediate, true
		}
		morning := time.Date(y, m, d, p.MorningHour, 0, 0, 0, loc)
		if !morning.After(now) || !morning.Before(start.Add(-p.MorningCutoff)) {
			return immediate, true
		}
		return morning, true
	}

	if fastTrack && !start.After(now.Add(p.FastTrackHorizon)) {
		return immediate, true
	}
	sy, sm, sd := start.Date()
	return time.Date(sy, sm, sd-1, p.MorningHour, 0, 0, 0, loc), true
}
