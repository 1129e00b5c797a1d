package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shinystaratnight/endless-backend-sub001/backend/config"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/dto"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/model"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/notify"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/repository"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/task"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/workflow"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/worktime"
)

// ── Timesheet module business errors ──

var (
	ErrTimeSheetNotFound    = errors.New("timesheet not found")
	ErrTransitionNotAllowed = errors.New("timesheet cannot move to that state now")
	ErrInvalidTimeRange     = errors.New("shift end must be after start and the break inside the shift")
)

// Workflow predicates referenced from the rules file
const (
	checkAttendanceDue = "attendance_check_due"
	checkShiftStarted  = "shift_started"
	checkHasTimes      = "has_times"
)

// TimeSheetPredicates names the checks a timesheet answers in workflow rules
func TimeSheetPredicates() []string {
	return []string{checkAttendanceDue, checkShiftStarted, checkHasTimes}
}

// TimeSheetService timesheet workflow
//
// State changes are gated by the workflow rule set and logged with the acting user.
// Rows are updated under optimistic locking; a concurrent edit surfaces as ErrOptimisticLock.
type TimeSheetService interface {
	Get(ctx context.Context, id string) (*dto.TimeSheetResponse, error)
	History(ctx context.Context, id string) ([]dto.TimeSheetStateLogResponse, error)
	// ConfirmAttendance records the answer to the going-to-work check
	ConfirmAttendance(ctx context.Context, id string, confirmed bool, actorID string) (*dto.TimeSheetResponse, error)
	// Submit stores the worker's times and asks for approval
	Submit(ctx context.Context, id string, req *dto.TimeSheetTimesRequest, actorID string) (*dto.TimeSheetResponse, error)
	// Modify is a supervisor correction
	Modify(ctx context.Context, id string, req *dto.TimeSheetTimesRequest, actorID string) (*dto.TimeSheetResponse, error)
	Approve(ctx context.Context, id, actorID string) (*dto.TimeSheetResponse, error)

	HandlePlacementNotice(ctx context.Context, id string) error
	HandleAttendanceCheck(ctx context.Context, id string) error
	HandleShiftStarted(ctx context.Context, id string) error
	HandleAutoApprove(ctx context.Context, id string) error
}

type timeSheetService struct {
	repo      *repository.Repository
	scheduler task.Scheduler
	notifier  Notifier
	rules     *workflow.RuleSet
	zones     *worktime.Resolver
	cfg       config.TimeSheetConfig
	immediate time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func newTimeSheetService(
	cfg *config.Config,
	repo *repository.Repository,
	scheduler task.Scheduler,
	notifier Notifier,
	rules *workflow.RuleSet,
	zones *worktime.Resolver,
	logger *zap.Logger,
) *timeSheetService {
	return &timeSheetService{
		repo:      repo,
		scheduler: scheduler,
		notifier:  notifier,
		rules:     rules,
		zones:     zones,
		cfg:       cfg.TimeSheet,
		immediate: cfg.Offer.ImmediateDelay,
		logger:    logger,
		now:       time.Now,
	}
}

// timeSheetSubject exposes a timesheet to the workflow rules
type timeSheetSubject struct {
	ts   *model.TimeSheet
	now  time.Time
	lead time.Duration
}

func (s timeSheetSubject) HasState(state string) bool { return s.ts.Status == state }

func (s timeSheetSubject) Check(name string) bool {
	switch name {
	case checkHasTimes:
		return s.ts.HasTimes() && s.ts.ShiftEndedAt.After(*s.ts.ShiftStartedAt)
	case checkShiftStarted:
		return s.ts.ShiftStartedAt != nil && !s.now.Before(*s.ts.ShiftStartedAt)
	case checkAttendanceDue:
		return s.ts.ShiftStartedAt != nil && !s.now.Before(s.ts.ShiftStartedAt.Add(-s.lead))
	}
	return false
}

// ═══════════════════════════════════════════════════════════
// Creation (called by the offer lifecycle inside its transaction)
// ═══════════════════════════════════════════════════════════

// createForOffer returns the offer's timesheet for start, creating it with default times
func (s *timeSheetService) createForOffer(
	ctx context.Context,
	txRepo *repository.Repository,
	offer *model.JobOffer,
	start time.Time,
	actorID string,
) (*model.TimeSheet, error) {
	start = start.UTC()
	existing, err := txRepo.TimeSheet.GetByOfferAndStart(ctx, offer.JobOfferID, start)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("load timesheet failed", zap.Error(err))
		return nil, err
	}

	breakStart := start.Add(s.cfg.BreakStartOffset)
	breakEnd := breakStart.Add(s.cfg.BreakLength)
	end := start.Add(s.cfg.ShiftLength)
	ts := &model.TimeSheet{
		JobOfferID:     offer.JobOfferID,
		Status:         model.TimeSheetNew,
		ShiftStartedAt: &start,
		BreakStartedAt: &breakStart,
		BreakEndedAt:   &breakEnd,
		ShiftEndedAt:   &end,
		VersionedModel: model.VersionedModel{
			BaseModel: model.BaseModel{CreatedBy: &actorID, UpdatedBy: &actorID},
			Version:   1,
		},
	}
	if err := txRepo.TimeSheet.Create(ctx, ts); err != nil {
		s.logger.Error("create timesheet failed", zap.Error(err))
		return nil, err
	}

	now := s.now()
	args := map[string]string{argTimeSheetID: ts.TimeSheetID}

	checkAt := start.Add(-s.cfg.GoingToWorkLead)
	if checkAt.After(now) {
		if err := scheduleTask(ctx, s.scheduler, s.logger, TaskTimeSheetAttendance, args, checkAt); err != nil {
			return nil, err
		}
	} else {
		// too late to ask; treat the acceptance itself as the confirmation
		confirmed := true
		ts.GoingToWorkConfirmation = &confirmed
		if err := s.transition(ctx, txRepo, ts, model.TimeSheetCheckConfirmed, actorID, "accepted inside the check window"); err != nil {
			return nil, err
		}
	}

	if err := scheduleTask(ctx, s.scheduler, s.logger, TaskTimeSheetShiftStarted, args, maxTime(start, now)); err != nil {
		return nil, err
	}
	if !now.After(start.Add(s.cfg.PlacementGrace)) {
		if err := scheduleTask(ctx, s.scheduler, s.logger, TaskTimeSheetPlacement, args, now.Add(s.immediate)); err != nil {
			return nil, err
		}
	}

	s.logger.Info("timesheet created",
		zap.String("time_sheet_id", ts.TimeSheetID),
		zap.String("job_offer_id", offer.JobOfferID),
		zap.String("status", ts.Status),
	)
	return ts, nil
}

// autoFill books a short-notice cancellation as worked and approved
func (s *timeSheetService) autoFill(ctx context.Context, txRepo *repository.Repository, ts *model.TimeSheet, actorID string) error {
	now := s.now().UTC()
	end := now.Add(s.cfg.AutoFillLength)
	from := ts.Status

	ts.ShiftStartedAt = &now
	ts.ShiftEndedAt = &end
	ts.BreakStartedAt, ts.BreakEndedAt = nil, nil
	ts.CandidateSubmittedAt = &now
	ts.SupervisorApprovedAt = &now
	ts.Status = model.TimeSheetApproved
	ts.UpdatedBy = &actorID
	if err := txRepo.TimeSheet.Update(ctx, ts); err != nil {
		s.logger.Error("auto-fill timesheet failed", zap.String("time_sheet_id", ts.TimeSheetID), zap.Error(err))
		return err
	}
	return s.writeLog(ctx, txRepo, ts.TimeSheetID, from, ts.Status, actorID, "auto-filled after short-notice cancellation")
}

// ═══════════════════════════════════════════════════════════
// Queries
// ═══════════════════════════════════════════════════════════

func (s *timeSheetService) Get(ctx context.Context, id string) (*dto.TimeSheetResponse, error) {
	ts, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return toTimeSheetResponse(ts), nil
}

func (s *timeSheetService) History(ctx context.Context, id string) ([]dto.TimeSheetStateLogResponse, error) {
	if _, err := s.load(ctx, s.repo, id); err != nil {
		return nil, err
	}
	logs, err := s.repo.TimeSheetLog.ListByTimeSheet(ctx, id)
	if err != nil {
		s.logger.Error("list timesheet history failed", zap.Error(err))
		return nil, err
	}
	result := make([]dto.TimeSheetStateLogResponse, 0, len(logs))
	for _, l := range logs {
		result = append(result, dto.TimeSheetStateLogResponse{
			FromState: l.FromState,
			ToState:   l.ToState,
			ActorID:   l.ActorID,
			Comment:   l.Comment,
			CreatedAt: formatTime(l.CreatedAt),
		})
	}
	return result, nil
}

// ═══════════════════════════════════════════════════════════
// Worker and supervisor actions
// ═══════════════════════════════════════════════════════════

func (s *timeSheetService) ConfirmAttendance(ctx context.Context, id string, confirmed bool, actorID string) (*dto.TimeSheetResponse, error) {
	return s.mutate(ctx, id, func(txRepo *repository.Repository, ts *model.TimeSheet) error {
		ts.GoingToWorkConfirmation = &confirmed
		target, comment := model.TimeSheetCheckConfirmed, "going to work"
		if !confirmed {
			target, comment = model.TimeSheetCheckFailed, "not going to work"
		}
		return s.transition(ctx, txRepo, ts, target, actorID, comment)
	})
}

func (s *timeSheetService) Submit(ctx context.Context, id string, req *dto.TimeSheetTimesRequest, actorID string) (*dto.TimeSheetResponse, error) {
	if err := validateTimes(req); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(txRepo *repository.Repository, ts *model.TimeSheet) error {
		applyTimes(ts, req)
		now := s.now().UTC()
		ts.CandidateSubmittedAt = &now
		if err := s.transition(ctx, txRepo, ts, model.TimeSheetApprovalPending, actorID, "submitted"); err != nil {
			return err
		}
		args := map[string]string{argTimeSheetID: ts.TimeSheetID}
		return scheduleTask(ctx, s.scheduler, s.logger, TaskTimeSheetAutoApprove, args, now.Add(s.cfg.AutoApproveAfter))
	})
}

func (s *timeSheetService) Modify(ctx context.Context, id string, req *dto.TimeSheetTimesRequest, actorID string) (*dto.TimeSheetResponse, error) {
	if err := validateTimes(req); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(txRepo *repository.Repository, ts *model.TimeSheet) error {
		applyTimes(ts, req)
		ts.SupervisorID = &actorID
		return s.transition(ctx, txRepo, ts, model.TimeSheetModified, actorID, "modified by supervisor")
	})
}

func (s *timeSheetService) Approve(ctx context.Context, id, actorID string) (*dto.TimeSheetResponse, error) {
	var approved *model.TimeSheet
	resp, err := s.mutate(ctx, id, func(txRepo *repository.Repository, ts *model.TimeSheet) error {
		if err := s.approve(ctx, txRepo, ts, actorID, "approved"); err != nil {
			return err
		}
		approved = ts
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifyCandidate(ctx, approved, notify.TemplateTimeSheetApproved)
	return resp, nil
}

func (s *timeSheetService) approve(ctx context.Context, txRepo *repository.Repository, ts *model.TimeSheet, actorID, comment string) error {
	now := s.now().UTC()
	ts.SupervisorApprovedAt = &now
	if ts.SupervisorID == nil {
		ts.SupervisorID = &actorID
	}
	return s.transition(ctx, txRepo, ts, model.TimeSheetApproved, actorID, comment)
}

// ═══════════════════════════════════════════════════════════
// Scheduled callbacks
// ═══════════════════════════════════════════════════════════

// HandlePlacementNotice confirms the booking to the candidate while the offer is still accepted
func (s *timeSheetService) HandlePlacementNotice(ctx context.Context, id string) error {
	ts, ok, err := s.loadForCallback(ctx, id)
	if !ok {
		return err
	}
	if ts.JobOffer == nil || !ts.JobOffer.IsAccepted() {
		return nil
	}
	s.notifyCandidate(ctx, ts, notify.TemplatePlacementAccepted)
	return nil
}

// HandleAttendanceCheck asks whether the candidate is on the way
func (s *timeSheetService) HandleAttendanceCheck(ctx context.Context, id string) error {
	ts, ok, err := s.loadForCallback(ctx, id)
	if !ok {
		return err
	}
	if ts.JobOffer == nil || !ts.JobOffer.IsAccepted() || ts.Status != model.TimeSheetNew {
		return nil
	}

	var moved *model.TimeSheet
	err = runInTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		if !s.rules.Allowed(model.TimeSheetCheckPending, s.subject(ts)) {
			return nil
		}
		now := s.now().UTC()
		ts.GoingToWorkSentAt = &now
		if err := s.transition(ctx, txRepo, ts, model.TimeSheetCheckPending, systemActorID, "going-to-work check sent"); err != nil {
			return err
		}
		moved = ts
		return nil
	})
	if err != nil || moved == nil {
		return err
	}
	s.notifyCandidate(ctx, moved, notify.TemplateGoingToWorkCheck)
	return nil
}

// HandleShiftStarted opens the timesheet for submission once the shift has begun
func (s *timeSheetService) HandleShiftStarted(ctx context.Context, id string) error {
	ts, ok, err := s.loadForCallback(ctx, id)
	if !ok {
		return err
	}
	if ts.JobOffer == nil || !ts.JobOffer.IsAccepted() {
		return nil
	}

	var moved bool
	err = runInTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		if !s.rules.Allowed(model.TimeSheetSubmitPending, s.subject(ts)) {
			s.logger.Debug("timesheet not ready for submission", zap.String("time_sheet_id", id), zap.String("status", ts.Status))
			return nil
		}
		moved = true
		return s.transition(ctx, txRepo, ts, model.TimeSheetSubmitPending, systemActorID, "shift started")
	})
	if err != nil || !moved {
		return err
	}
	s.notifyCandidate(ctx, ts, notify.TemplateTimeSheetSubmitReminder)
	return nil
}

// HandleAutoApprove approves a submission nobody looked at
func (s *timeSheetService) HandleAutoApprove(ctx context.Context, id string) error {
	ts, ok, err := s.loadForCallback(ctx, id)
	if !ok {
		return err
	}
	if ts.Status != model.TimeSheetApprovalPending || ts.CandidateSubmittedAt == nil {
		return nil
	}
	if s.now().Before(ts.CandidateSubmittedAt.Add(s.cfg.AutoApproveAfter)) {
		return nil
	}

	err = runInTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		return s.approve(ctx, txRepo, ts, systemActorID, "approved automatically")
	})
	if err != nil {
		return err
	}
	s.notifyCandidate(ctx, ts, notify.TemplateTimeSheetApproved)
	return nil
}

// ═══════════════════════════════════════════════════════════
// Helpers
// ═══════════════════════════════════════════════════════════

// mutate loads the timesheet, applies fn in a transaction and returns the updated view
func (s *timeSheetService) mutate(ctx context.Context, id string, fn func(txRepo *repository.Repository, ts *model.TimeSheet) error) (*dto.TimeSheetResponse, error) {
	var result *model.TimeSheet
	err := runInTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		ts, err := s.load(ctx, txRepo, id)
		if err != nil {
			return err
		}
		if err := fn(txRepo, ts); err != nil {
			return err
		}
		result = ts
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toTimeSheetResponse(result), nil
}

// transition moves ts to target if the rules allow it, and logs the move
func (s *timeSheetService) transition(ctx context.Context, txRepo *repository.Repository, ts *model.TimeSheet, target, actorID, comment string) error {
	if !s.rules.Allowed(target, s.subject(ts)) {
		return ErrTransitionNotAllowed
	}

	from := ts.Status
	ts.Status = target
	ts.UpdatedBy = &actorID
	if err := txRepo.TimeSheet.Update(ctx, ts); err != nil {
		ts.Status = from
		s.logger.Error("update timesheet failed", zap.String("time_sheet_id", ts.TimeSheetID), zap.Error(err))
		return err
	}
	if err := s.writeLog(ctx, txRepo, ts.TimeSheetID, from, target, actorID, comment); err != nil {
		return err
	}

	s.logger.Info("timesheet state changed",
		zap.String("time_sheet_id", ts.TimeSheetID),
		zap.String("from", from),
		zap.String("to", target),
		zap.String("actor_id", actorID),
	)
	return nil
}

func (s *timeSheetService) writeLog(ctx context.Context, txRepo *repository.Repository, id, from, to, actorID, comment string) error {
	entry := &model.TimeSheetStateLog{
		TimeSheetID: id,
		FromState:   from,
		ToState:     to,
		ActorID:     actorID,
		Comment:     comment,
		CreatedAt:   s.now().UTC(),
	}
	if err := txRepo.TimeSheetLog.Create(ctx, entry); err != nil {
		s.logger.Error("write timesheet log failed", zap.Error(err))
		return err
	}
	return nil
}

func (s *timeSheetService) subject(ts *model.TimeSheet) timeSheetSubject {
	return timeSheetSubject{ts: ts, now: s.now(), lead: s.cfg.GoingToWorkLead}
}

func (s *timeSheetService) load(ctx context.Context, repo *repository.Repository, id string) (*model.TimeSheet, error) {
	ts, err := repo.TimeSheet.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimeSheetNotFound
		}
		s.logger.Error("load timesheet failed", zap.String("time_sheet_id", id), zap.Error(err))
		return nil, err
	}
	return ts, nil
}

func (s *timeSheetService) loadForCallback(ctx context.Context, id string) (*model.TimeSheet, bool, error) {
	ts, err := s.load(ctx, s.repo, id)
	if errors.Is(err, ErrTimeSheetNotFound) {
		s.logger.Warn("scheduled timesheet no longer exists", zap.String("time_sheet_id", id))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return ts, true, nil
}

func (s *timeSheetService) notifyCandidate(ctx context.Context, ts *model.TimeSheet, template string) {
	if ts == nil || ts.JobOffer == nil || ts.ShiftStartedAt == nil {
		return
	}
	offer := ts.JobOffer
	loc := s.zones.Default()
	if offer.Shift != nil {
		loc = s.zones.Resolve(offer.Shift.Timezone())
	}
	s.notifier.Notify(ctx, Notice{
		Recipient:   offer.Candidate,
		Template:    template,
		Data:        noticeData(offer.Candidate, offer.Shift, ts.ShiftStartedAt.In(loc)),
		RelatedType: "time_sheet",
		RelatedID:   ts.TimeSheetID,
	})
}

func validateTimes(req *dto.TimeSheetTimesRequest) error {
	return checkRange(req.ShiftStartedAt, req.ShiftEndedAt, req.BreakStartedAt, req.BreakEndedAt)
}

// checkRange: end after start; the break, if any, given as a pair and inside the shift
func checkRange(start, end time.Time, breakStart, breakEnd *time.Time) error {
	if !end.After(start) {
		return ErrInvalidTimeRange
	}
	if (breakStart == nil) != (breakEnd == nil) {
		return ErrInvalidTimeRange
	}
	if breakStart != nil {
		bs, be := *breakStart, *breakEnd
		if !be.After(bs) || bs.Before(start) || be.After(end) {
			return ErrInvalidTimeRange
		}
	}
	return nil
}

func applyTimes(ts *model.TimeSheet, req *dto.TimeSheetTimesRequest) {
	start, end := req.ShiftStartedAt.UTC(), req.ShiftEndedAt.UTC()
	ts.ShiftStartedAt, ts.ShiftEndedAt = &start, &end
	ts.BreakStartedAt, ts.BreakEndedAt = nil, nil
	if req.BreakStartedAt != nil {
		bs, be := req.BreakStartedAt.UTC(), req.BreakEndedAt.UTC()
		ts.BreakStartedAt, ts.BreakEndedAt = &bs, &be
	}
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func toTimeSheetResponse(ts *model.TimeSheet) *dto.TimeSheetResponse {
	return &dto.TimeSheetResponse{
		ID:                      ts.TimeSheetID,
		JobOfferID:              ts.JobOfferID,
		Status:                  ts.Status,
		ShiftStartedAt:          formatTimePtr(ts.ShiftStartedAt),
		BreakStartedAt:          formatTimePtr(ts.BreakStartedAt),
		BreakEndedAt:            formatTimePtr(ts.BreakEndedAt),
		ShiftEndedAt:            formatTimePtr(ts.ShiftEndedAt),
		GoingToWorkConfirmation: ts.GoingToWorkConfirmation,
		CandidateSubmittedAt:    formatTimePtr(ts.CandidateSubmittedAt),
		SupervisorApprovedAt:    formatTimePtr(ts.SupervisorApprovedAt),
		SupervisorID:            ts.SupervisorID,
		Version:                 ts.Version,
		UpdatedAt:               formatTime(ts.UpdatedAt),
	}
}
