package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/repository"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/worktime"
)

// ── iCalendar feed ──────────────────────────────────────────
//
// One VEVENT per accepted offer, UID = offer id so calendar clients update in place.
// The end is the default shift length; actual times live on the timesheet.
// ─────────────────────────────────────────────────────────────

const calendarProductID = "-//staffline//shifts//EN"

// CalendarService candidate shift feeds
type CalendarService interface {
	// CandidateCalendar renders the candidate's accepted shifts as an .ics document
	CandidateCalendar(ctx context.Context, candidateID string) (string, error)
}

type calendarService struct {
	repo        *repository.Repository
	zones       *worktime.Resolver
	shiftLength time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewCalendarService creates a CalendarService
func NewCalendarService(repo *repository.Repository, zones *worktime.Resolver, shiftLength time.Duration, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, zones: zones, shiftLength: shiftLength, logger: logger, now: time.Now}
}

func (s *calendarService) CandidateCalendar(ctx context.Context, candidateID string) (string, error) {
	candidate, err := s.repo.Candidate.GetByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrCandidateNotFound
		}
		s.logger.Error("load candidate failed", zap.Error(err))
		return "", err
	}

	offers, err := s.repo.JobOffer.ListAcceptedByCandidate(ctx, candidateID)
	if err != nil {
		s.logger.Error("list accepted offers failed", zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetName(fmt.Sprintf("Shifts for %s", candidate.FullName()))

	stamp := s.now().UTC()
	for i := range offers {
		o := &offers[i]
		if o.Shift == nil || o.Shift.ShiftDate == nil {
			continue
		}
		start, err := o.Shift.StartsAt(s.zones.Resolve(o.Shift.Timezone()))
		if err != nil {
			s.logger.Warn("shift skipped in calendar", zap.String("shift_id", o.ShiftID), zap.Error(err))
			continue
		}

		summary, location := "Shift", ""
		if job := o.Shift.ShiftDate.Job; job != nil {
			summary = job.Position
			if job.Jobsite != nil {
				summary = fmt.Sprintf("%s at %s", job.Position, job.Jobsite.Name)
				location = job.Jobsite.Address
			}
		}

		ev := cal.AddEvent(o.JobOfferID)
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(start.UTC())
		ev.SetEndAt(start.Add(s.shiftLength).UTC())
		ev.SetSummary(summary)
		if location != "" {
			ev.SetLocation(location)
		}
	}

	return cal.Serialize(), nil
}
