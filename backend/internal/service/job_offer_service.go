package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shinystaratnight/endless-backend-sub001/backend/config"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/dto"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/model"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/notify"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/repository"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/task"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/worktime"
)

// ── Job offer module business errors ──

var (
	ErrJobOfferNotFound  = errors.New("job offer not found")
	ErrShiftNotFound     = errors.New("shift not found")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrShiftFulfilled    = errors.New("shift already has all the workers it needs")
	ErrOfferCancelled    = errors.New("job offer is cancelled")
	ErrOfferAccepted     = errors.New("job offer is already accepted")
	ErrAmbiguousReply    = errors.New("reply is neither yes nor no")
	ErrDuplicateOffer    = errors.New("candidate already has an open offer for this shift")
)

// JobOfferService job offer lifecycle
//
// Every quota decision runs in one transaction holding the shift row lock:
// the accepted count, the accept itself and the cancellation of competing offers.
// Scheduled callbacks re-read the offer when they fire and do nothing if it moved on.
type JobOfferService interface {
	// Create offers a shift to a candidate, optionally recording an up-front yes
	Create(ctx context.Context, req *dto.CreateJobOfferRequest, actorID string) (*dto.JobOfferResponse, error)
	// Get returns one offer
	Get(ctx context.Context, offerID string) (*dto.JobOfferResponse, error)
	// Accept moves an undecided offer to accepted. A full shift cancels the offer and returns ErrShiftFulfilled.
	Accept(ctx context.Context, offerID, actorID string) (*dto.JobOfferResponse, error)
	// Cancel is idempotent
	Cancel(ctx context.Context, offerID, actorID string) (*dto.JobOfferResponse, error)
	// Resend reopens the offer and sends the message again shortly
	Resend(ctx context.Context, offerID, actorID string) (*dto.JobOfferResponse, error)
	// ProcessReply applies a parsed candidate reply; nil is ErrAmbiguousReply
	ProcessReply(ctx context.Context, offerID string, positive *bool, actorID string) (*dto.JobOfferResponse, error)
	// IsQuotaFilled reports accepted offers against the shift's workers
	IsQuotaFilled(ctx context.Context, offerID string) (*dto.QuotaResponse, error)

	HandleFollowUp(ctx context.Context, offerID, scheduledAt string) error
	HandleRejection(ctx context.Context, offerID string) error
	HandleCancellation(ctx context.Context, offerID string, shortNotice bool) error
}

// offerTimeSheets is what the offer lifecycle needs from the timesheet service
type offerTimeSheets interface {
	createForOffer(ctx context.Context, txRepo *repository.Repository, offer *model.JobOffer, start time.Time, actorID string) (*model.TimeSheet, error)
	autoFill(ctx context.Context, txRepo *repository.Repository, ts *model.TimeSheet, actorID string) error
}

type jobOfferService struct {
	repo        *repository.Repository
	scheduler   task.Scheduler
	notifier    Notifier
	timeSheets  offerTimeSheets
	zones       *worktime.Resolver
	policy      FollowUpPolicy
	shortNotice time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

func newJobOfferService(
	cfg *config.Config,
	repo *repository.Repository,
	scheduler task.Scheduler,
	notifier Notifier,
	timeSheets offerTimeSheets,
	zones *worktime.Resolver,
	logger *zap.Logger,
) *jobOfferService {
	return &jobOfferService{
		repo:        repo,
		scheduler:   scheduler,
		notifier:    notifier,
		timeSheets:  timeSheets,
		zones:       zones,
		policy:      NewFollowUpPolicy(cfg.Offer),
		shortNotice: cfg.Offer.ShortNotice,
		logger:      logger,
		now:         time.Now,
	}
}

// ═══════════════════════════════════════════════════════════
// Create
// ═══════════════════════════════════════════════════════════

func (s *jobOfferService) Create(ctx context.Context, req *dto.CreateJobOfferRequest, actorID string) (*dto.JobOfferResponse, error) {
	var offer *model.JobOffer

	err := s.withShiftLock(ctx, req.ShiftID, func(txRepo *repository.Repository, shift *model.Shift) error {
		start, _, err := s.siteTime(shift)
		if err != nil {
			return err
		}

		candidate, err := txRepo.Candidate.GetByID(ctx, req.CandidateID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCandidateNotFound
			}
			s.logger.Error("load candidate failed", zap.Error(err))
			return err
		}

		if err := s.ensureSingleOffer(ctx, txRepo, shift.ShiftID, candidate.CandidateID, "",
			model.OfferStatusUndefined, model.OfferStatusAccepted); err != nil {
			return err
		}

		offer = &model.JobOffer{
			ShiftID:     shift.ShiftID,
			CandidateID: candidate.CandidateID,
			Status:      model.OfferStatusUndefined,
			BaseModel:   model.BaseModel{CreatedBy: &actorID, UpdatedBy: &actorID},
		}
		if err := txRepo.JobOffer.Create(ctx, offer); err != nil {
			s.logger.Error("create job offer failed", zap.Error(err))
			return err
		}
		offer.Shift, offer.Candidate = shift, candidate

		if req.Accepted {
			// a full shift turns the offer into a cancelled one; that is a normal outcome of Create
			if _, err := s.acceptLocked(ctx, txRepo, offer, shift, start, actorID); err != nil {
				return err
			}
		}

		if err := s.linkCarrierList(ctx, txRepo, offer, shift, start, actorID); err != nil {
			return err
		}
		if offer.IsUndefined() {
			return s.scheduleFollowUp(ctx, txRepo, offer, shift, false)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("job offer created",
		zap.String("job_offer_id", offer.JobOfferID),
		zap.String("shift_id", offer.ShiftID),
		zap.String("status", offer.Status),
		zap.String("actor_id", actorID),
	)
	return s.toResponse(offer), nil
}

// ═══════════════════════════════════════════════════════════
// Get / IsQuotaFilled
// ═══════════════════════════════════════════════════════════

func (s *jobOfferService) Get(ctx context.Context, offerID string) (*dto.JobOfferResponse, error) {
	offer, err := s.loadOffer(ctx, s.repo, offerID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(offer), nil
}

func (s *jobOfferService) IsQuotaFilled(ctx context.Context, offerID string) (*dto.QuotaResponse, error) {
	offer, err := s.loadOffer(ctx, s.repo, offerID)
	if err != nil {
		return nil, err
	}
	if offer.Shift == nil {
		return nil, ErrShiftNotFound
	}

	accepted, err := s.repo.JobOffer.CountAcceptedByShift(ctx, offer.ShiftID)
	if err != nil {
		s.logger.Error("count accepted offers failed", zap.Error(err))
		return nil, err
	}
	return &dto.QuotaResponse{
		ShiftID:  offer.ShiftID,
		Workers:  offer.Shift.Workers,
		Accepted: accepted,
		Filled:   accepted >= int64(offer.Shift.Workers),
	}, nil
}

// ═══════════════════════════════════════════════════════════
// Accept
// ═══════════════════════════════════════════════════════════

func (s *jobOfferService) Accept(ctx context.Context, offerID, actorID string) (*dto.JobOfferResponse, error) {
	offer, err := s.loadOffer(ctx, s.repo, offerID)
	if err != nil {
		return nil, err
	}

	var filled bool
	err = s.withShiftLock(ctx, offer.ShiftID, func(txRepo *repository.Repository, shift *model.Shift) error {
		current, err := s.loadOffer(ctx, txRepo, offerID)
		if err != nil {
			return err
		}
		offer = current

		switch {
		case current.IsAccepted():
			return nil
		case current.IsCancelled():
			return ErrOfferCancelled
		}

		start, _, err := s.siteTime(shift)
		if err != nil {
			return err
		}
		filled, err = s.acceptLocked(ctx, txRepo, current, shift, start, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := s.toResponse(offer)
	if filled {
		s.logger.Info("job offer rejected, shift full", zap.String("job_offer_id", offerID))
		return resp, ErrShiftFulfilled
	}
	s.logger.Info("job offer accepted", zap.String("job_offer_id", offerID), zap.String("actor_id", actorID))
	return resp, nil
}

// acceptLocked accepts offer under the shift lock. filled reports that the shift was already full,
// in which case the offer has been cancelled instead.
func (s *jobOfferService) acceptLocked(
	ctx context.Context,
	txRepo *repository.Repository,
	offer *model.JobOffer,
	shift *model.Shift,
	start time.Time,
	actorID string,
) (filled bool, err error) {
	// one candidate fills at most one place on a shift
	if err := s.ensureSingleOffer(ctx, txRepo, shift.ShiftID, offer.CandidateID, offer.JobOfferID,
		model.OfferStatusAccepted); err != nil {
		return false, err
	}

	accepted, err := txRepo.JobOffer.CountAcceptedByShift(ctx, shift.ShiftID)
	if err != nil {
		s.logger.Error("count accepted offers failed", zap.Error(err))
		return false, err
	}
	if accepted >= int64(shift.Workers) {
		return true, s.rejectForFilledShift(ctx, txRepo, offer, start, actorID)
	}

	offer.Status = model.OfferStatusAccepted
	offer.ScheduledNotificationAt = nil
	offer.UpdatedBy = &actorID
	if err := txRepo.JobOffer.Update(ctx, offer); err != nil {
		s.logger.Error("accept job offer failed", zap.Error(err))
		return false, err
	}

	if accepted+1 >= int64(shift.Workers) {
		if err := s.cancelForFilledQuota(ctx, txRepo, offer, start, actorID); err != nil {
			return false, err
		}
	}

	if _, err := s.timeSheets.createForOffer(ctx, txRepo, offer, start, actorID); err != nil {
		return false, err
	}
	return false, nil
}

// ensureSingleOffer fails with ErrDuplicateOffer when the candidate holds another offer on the shift in one of statuses
func (s *jobOfferService) ensureSingleOffer(
	ctx context.Context,
	txRepo *repository.Repository,
	shiftID, candidateID, exceptID string,
	statuses ...string,
) error {
	n, err := txRepo.JobOffer.CountForCandidate(ctx, shiftID, candidateID, exceptID, statuses...)
	if err != nil {
		s.logger.Error("count candidate offers failed", zap.Error(err))
		return err
	}
	if n > 0 {
		return ErrDuplicateOffer
	}
	return nil
}

// rejectForFilledShift cancels offer because its shift has no room left
func (s *jobOfferService) rejectForFilledShift(
	ctx context.Context,
	txRepo *repository.Repository,
	offer *model.JobOffer,
	start time.Time,
	actorID string,
) error {
	if err := s.cancelForFilledQuota(ctx, txRepo, offer, start, actorID); err != nil {
		return err
	}
	// they said yes, so they are available for something else that day
	if err := s.moveToCarrierList(ctx, txRepo, offer, start, true, actorID); err != nil {
		return err
	}

	offer.Status = model.OfferStatusCancelled
	offer.ScheduledNotificationAt = nil
	offer.UpdatedBy = &actorID
	if err := txRepo.JobOffer.Update(ctx, offer); err != nil {
		s.logger.Error("cancel job offer failed", zap.Error(err))
		return err
	}

	now := s.now()
	if start.After(now) {
		return s.schedule(ctx, TaskOfferRejection, offerArgs(offer), now.Add(s.policy.ImmediateDelay))
	}
	return nil
}

// cancelForFilledQuota cancels the other undecided offers on the shift.
// Those whose message already went out get a rejection notice while the shift is in the future.
func (s *jobOfferService) cancelForFilledQuota(
	ctx context.Context,
	txRepo *repository.Repository,
	keep *model.JobOffer,
	start time.Time,
	actorID string,
) error {
	others, err := txRepo.JobOffer.ListCancellableByShift(ctx, keep.ShiftID, keep.JobOfferID)
	if err != nil {
		s.logger.Error("list competing offers failed", zap.Error(err))
		return err
	}
	if len(others) == 0 {
		return nil
	}

	ids := make([]string, 0, len(others))
	for _, o := range others {
		ids = append(ids, o.JobOfferID)
	}
	if err := txRepo.JobOffer.CancelMany(ctx, ids, actorID); err != nil {
		s.logger.Error("cancel competing offers failed", zap.Error(err))
		return err
	}

	now := s.now()
	for i := range others {
		if others[i].OfferSentNotificationID == nil || !start.After(now) {
			continue
		}
		if err := s.schedule(ctx, TaskOfferRejection, offerArgs(&others[i]), now.Add(s.policy.ImmediateDelay)); err != nil {
			return err
		}
	}

	s.logger.Info("competing offers cancelled",
		zap.String("shift_id", keep.ShiftID),
		zap.Int("count", len(ids)),
	)
	return nil
}

// ═══════════════════════════════════════════════════════════
// Cancel
// ═══════════════════════════════════════════════════════════

func (s *jobOfferService) Cancel(ctx context.Context, offerID, actorID string) (*dto.JobOfferResponse, error) {
	offer, err := s.loadOffer(ctx, s.repo, offerID)
	if err != nil {
		return nil, err
	}

	err = s.withShiftLock(ctx, offer.ShiftID, func(txRepo *repository.Repository, shift *model.Shift) error {
		current, err := s.loadOffer(ctx, txRepo, offerID)
		if err != nil {
			return err
		}
		offer = current
		if current.IsCancelled() {
			return nil
		}

		start, _, err := s.siteTime(shift)
		if err != nil {
			return err
		}
		if current.IsAccepted() {
			if err := s.moveToCarrierList(ctx, txRepo, current, start, true, actorID); err != nil {
				return err
			}
		}

		current.Status = model.OfferStatusCancelled
		current.ScheduledNotificationAt = nil
		current.UpdatedBy = &actorID
		if err := txRepo.JobOffer.Update(ctx, current); err != nil {
			s.logger.Error("cancel job offer failed", zap.Error(err))
			return err
		}

		return s.releaseTimeSheet(ctx, txRepo, current, actorID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("job offer cancelled", zap.String("job_offer_id", offerID), zap.String("actor_id", actorID))
	return s.toResponse(offer), nil
}

// releaseTimeSheet deals with the next upcoming timesheet of a cancelled offer.
// Far enough ahead, or before the candidate confirmed going to work, it is deleted.
// Otherwise the candidate gets the short-notice message and, if already on the way, a paid auto-fill.
func (s *jobOfferService) releaseTimeSheet(ctx context.Context, txRepo *repository.Repository, offer *model.JobOffer, actorID string) error {
	sheets, err := txRepo.TimeSheet.ListByOffer(ctx, offer.JobOfferID)
	if err != nil {
		s.logger.Error("list timesheets failed", zap.Error(err))
		return err
	}

	now := s.now()
	var next *model.TimeSheet
	for i := range sheets {
		if sheets[i].ShiftStartedAt != nil && sheets[i].ShiftStartedAt.After(now) {
			next = &sheets[i]
			break
		}
	}
	if next == nil {
		return nil
	}

	notifyAt := now.Add(s.policy.ImmediateDelay)
	if next.ShiftStartedAt.Sub(now) > s.shortNotice || next.GoingToWorkConfirmation == nil {
		if err := txRepo.TimeSheet.Delete(ctx, next.TimeSheetID); err != nil {
			s.logger.Error("delete timesheet failed", zap.Error(err))
			return err
		}
		return s.schedule(ctx, TaskOfferCancelled, offerArgs(offer), notifyAt)
	}

	if err := s.schedule(ctx, TaskOfferCancelledLate, offerArgs(offer), notifyAt); err != nil {
		return err
	}
	if *next.GoingToWorkConfirmation {
		return s.timeSheets.autoFill(ctx, txRepo, next, actorID)
	}
	return nil
}

// ═══════════════════════════════════════════════════════════
// Resend / ProcessReply
// ═══════════════════════════════════════════════════════════

func (s *jobOfferService) Resend(ctx context.Context, offerID, actorID string) (*dto.JobOfferResponse, error) {
	offer, err := s.loadOffer(ctx, s.repo, offerID)
	if err != nil {
		return nil, err
	}

	err = s.withShiftLock(ctx, offer.ShiftID, func(txRepo *repository.Repository, shift *model.Shift) error {
		current, err := s.loadOffer(ctx, txRepo, offerID)
		if err != nil {
			return err
		}
		offer = current
		if current.IsAccepted() {
			return ErrOfferAccepted
		}
		if current.IsCancelled() {
			if err := s.ensureSingleOffer(ctx, txRepo, shift.ShiftID, current.CandidateID, current.JobOfferID,
				model.OfferStatusUndefined, model.OfferStatusAccepted); err != nil {
				return err
			}
		}

		current.Status = model.OfferStatusUndefined
		current.UpdatedBy = &actorID
		if current.ScheduledNotificationAt != nil {
			// a follow-up is already on its way
			return txRepo.JobOffer.Update(ctx, current)
		}
		return s.scheduleFollowUp(ctx, txRepo, current, shift, true)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("job offer resent", zap.String("job_offer_id", offerID), zap.String("actor_id", actorID))
	return s.toResponse(offer), nil
}

func (s *jobOfferService) ProcessReply(ctx context.Context, offerID string, positive *bool, actorID string) (*dto.JobOfferResponse, error) {
	if positive == nil {
		return nil, ErrAmbiguousReply
	}
	if *positive {
		return s.Accept(ctx, offerID, actorID)
	}
	return s.Cancel(ctx, offerID, actorID)
}

// ═══════════════════════════════════════════════════════════
// Follow-up scheduling
// ═══════════════════════════════════════════════════════════

// scheduleFollowUp persists offer with its next message time and queues the message
func (s *jobOfferService) scheduleFollowUp(
	ctx context.Context,
	txRepo *repository.Repository,
	offer *model.JobOffer,
	shift *model.Shift,
	resend bool,
) error {
	start, loc, err := s.siteTime(shift)
	if err != nil {
		return err
	}
	now := s.now().In(loc)

	var at time.Time
	ok := true
	if resend {
		at = s.policy.ResendAt(now)
	} else {
		fastTrack, err := s.isFastTrack(ctx, txRepo, offer, shift, start, loc)
		if err != nil {
			return err
		}
		at, ok = s.policy.FollowUpAt(now, start.In(loc), fastTrack)
	}

	if !ok {
		s.logger.Info("follow-up skipped, shift already under way", zap.String("job_offer_id", offer.JobOfferID))
		offer.ScheduledNotificationAt = nil
		return txRepo.JobOffer.Update(ctx, offer)
	}

	at = at.UTC().Truncate(time.Second)
	offer.ScheduledNotificationAt = &at
	if err := txRepo.JobOffer.Update(ctx, offer); err != nil {
		s.logger.Error("store follow-up time failed", zap.Error(err))
		return err
	}

	args := offerArgs(offer)
	args[argScheduledAt] = at.Format(time.RFC3339)
	return s.schedule(ctx, TaskOfferFollowUp, args, at)
}

// isFastTrack: no other future accepted offer anywhere and no earlier offer on the same job
func (s *jobOfferService) isFastTrack(
	ctx context.Context,
	txRepo *repository.Repository,
	offer *model.JobOffer,
	shift *model.Shift,
	start time.Time,
	loc *time.Location,
) (bool, error) {
	now := s.now()

	accepted, err := txRepo.JobOffer.ListAcceptedByCandidate(ctx, offer.CandidateID)
	if err != nil {
		s.logger.Error("list accepted offers failed", zap.Error(err))
		return false, err
	}
	for i := range accepted {
		if accepted[i].JobOfferID == offer.JobOfferID || accepted[i].Shift == nil {
			continue
		}
		other, _, err := s.siteTime(accepted[i].Shift)
		if err == nil && other.After(now) {
			return false, nil
		}
	}

	onJob, err := txRepo.JobOffer.ListByCandidateAndJob(ctx, offer.CandidateID, shift.JobID())
	if err != nil {
		s.logger.Error("list offers on job failed", zap.Error(err))
		return false, err
	}
	for i := range onJob {
		if onJob[i].JobOfferID == offer.JobOfferID || onJob[i].Shift == nil || onJob[i].Shift.ShiftDate == nil {
			continue
		}
		// same job, same site: the current shift's zone applies
		other, err := onJob[i].Shift.StartsAt(loc)
		if err == nil && other.Before(start) {
			return false, nil
		}
	}
	return true, nil
}

// ═══════════════════════════════════════════════════════════
// Scheduled callbacks
// ═══════════════════════════════════════════════════════════

// HandleFollowUp sends the offer message if the offer is still waiting for exactly this follow-up
func (s *jobOfferService) HandleFollowUp(ctx context.Context, offerID, scheduledAt string) error {
	offer, ok, err := s.loadForCallback(ctx, offerID)
	if !ok {
		return err
	}
	if !offer.IsUndefined() || offer.ScheduledNotificationAt == nil {
		s.logger.Debug("follow-up no longer needed", zap.String("job_offer_id", offerID), zap.String("status", offer.Status))
		return nil
	}
	if offer.ScheduledNotificationAt.UTC().Format(time.RFC3339) != scheduledAt {
		s.logger.Debug("stale follow-up ignored", zap.String("job_offer_id", offerID))
		return nil
	}

	start, loc, err := s.siteTime(offer.Shift)
	if err != nil {
		return err
	}
	if !s.now().Before(start.Add(s.policy.GraceAfterStart)) {
		return s.repo.JobOffer.MarkSent(ctx, offerID, "")
	}

	template, err := s.offerTemplate(ctx, offer, start, loc)
	if err != nil {
		return err
	}
	id := s.notifier.Notify(ctx, Notice{
		Recipient:   offer.Candidate,
		Template:    template,
		Data:        noticeData(offer.Candidate, offer.Shift, start.In(loc)),
		RelatedType: "job_offer",
		RelatedID:   offerID,
	})
	return s.repo.JobOffer.MarkSent(ctx, offerID, id)
}

// offerTemplate picks the recurring wording when the candidate already accepted an earlier shift on the job
func (s *jobOfferService) offerTemplate(ctx context.Context, offer *model.JobOffer, start time.Time, loc *time.Location) (string, error) {
	offers, err := s.repo.JobOffer.ListByCandidateAndJob(ctx, offer.CandidateID, offer.Shift.JobID())
	if err != nil {
		s.logger.Error("list offers on job failed", zap.Error(err))
		return "", err
	}
	for i := range offers {
		o := &offers[i]
		if o.JobOfferID == offer.JobOfferID || !o.IsAccepted() || o.Shift == nil || o.Shift.ShiftDate == nil {
			continue
		}
		if other, err := o.Shift.StartsAt(loc); err == nil && other.Before(start) {
			return notify.TemplateOfferRecurring, nil
		}
	}
	return notify.TemplateOfferFirst, nil
}

// HandleRejection tells a candidate the shift filled up, while it is still in the future
func (s *jobOfferService) HandleRejection(ctx context.Context, offerID string) error {
	offer, ok, err := s.loadForCallback(ctx, offerID)
	if !ok {
		return err
	}
	if !offer.IsCancelled() {
		return nil
	}

	start, loc, err := s.siteTime(offer.Shift)
	if err != nil {
		return err
	}
	if !start.After(s.now()) {
		return nil
	}
	return s.reply(ctx, offer, notify.TemplateOfferRejected, start.In(loc))
}

// HandleCancellation tells a candidate their placement was cancelled
func (s *jobOfferService) HandleCancellation(ctx context.Context, offerID string, shortNotice bool) error {
	offer, ok, err := s.loadForCallback(ctx, offerID)
	if !ok {
		return err
	}
	if !offer.IsCancelled() {
		return nil
	}

	start, loc, err := s.siteTime(offer.Shift)
	if err != nil {
		return err
	}
	template := notify.TemplateOfferCancelled
	if shortNotice {
		template = notify.TemplateOfferCancelledLate
	}
	return s.reply(ctx, offer, template, start.In(loc))
}

func (s *jobOfferService) reply(ctx context.Context, offer *model.JobOffer, template string, start time.Time) error {
	id := s.notifier.Notify(ctx, Notice{
		Recipient:   offer.Candidate,
		Template:    template,
		Data:        noticeData(offer.Candidate, offer.Shift, start),
		RelatedType: "job_offer",
		RelatedID:   offer.JobOfferID,
	})
	if id == "" {
		return nil
	}
	return s.repo.JobOffer.SetReplyNotification(ctx, offer.JobOfferID, id)
}

// ═══════════════════════════════════════════════════════════
// Carrier list
// ═══════════════════════════════════════════════════════════

// moveToCarrierList records the candidate as free on the shift's day, referred by offer
func (s *jobOfferService) moveToCarrierList(
	ctx context.Context,
	txRepo *repository.Repository,
	offer *model.JobOffer,
	start time.Time,
	confirmed bool,
	actorID string,
) error {
	target := s.targetDay(offer.Shift, start)
	offerID := offer.JobOfferID
	confirmed = confirmed || offer.IsAccepted()

	cl, err := txRepo.CarrierList.GetByCandidateAndTarget(ctx, offer.CandidateID, target)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cl = &model.CarrierList{
			CandidateID:        offer.CandidateID,
			TargetDate:         target,
			ConfirmedAvailable: confirmed,
			ReferralJobOfferID: &offerID,
			BaseModel:          model.BaseModel{CreatedBy: &actorID, UpdatedBy: &actorID},
		}
		if err := txRepo.CarrierList.Create(ctx, cl); err != nil {
			s.logger.Error("create carrier list entry failed", zap.Error(err))
			return err
		}
		return nil
	}
	if err != nil {
		s.logger.Error("load carrier list entry failed", zap.Error(err))
		return err
	}

	cl.ConfirmedAvailable = confirmed
	cl.ReferralJobOfferID = &offerID
	if cl.JobOfferID != nil && *cl.JobOfferID == offerID {
		cl.JobOfferID = nil
	}
	cl.UpdatedBy = &actorID
	return txRepo.CarrierList.Update(ctx, cl)
}

// linkCarrierList attaches a live offer to the candidate's confirmed availability for that day
func (s *jobOfferService) linkCarrierList(
	ctx context.Context,
	txRepo *repository.Repository,
	offer *model.JobOffer,
	shift *model.Shift,
	start time.Time,
	actorID string,
) error {
	if offer.IsCancelled() {
		return nil
	}
	cl, err := txRepo.CarrierList.GetByCandidateAndTarget(ctx, offer.CandidateID, s.targetDay(shift, start))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Error("load carrier list entry failed", zap.Error(err))
		return err
	}
	if !cl.ConfirmedAvailable {
		return nil
	}

	offerID := offer.JobOfferID
	cl.JobOfferID = &offerID
	cl.UpdatedBy = &actorID
	return txRepo.CarrierList.Update(ctx, cl)
}

// targetDay is local midnight of the shift day, stored in UTC
func (s *jobOfferService) targetDay(shift *model.Shift, start time.Time) time.Time {
	loc := s.zones.Default()
	if shift != nil {
		loc = s.zones.Resolve(shift.Timezone())
	}
	return worktime.DayStart(start, loc).UTC()
}

// ═══════════════════════════════════════════════════════════
// Helpers
// ═══════════════════════════════════════════════════════════

// withShiftLock runs fn in a transaction holding the shift row lock
func (s *jobOfferService) withShiftLock(ctx context.Context, shiftID string, fn func(txRepo *repository.Repository, shift *model.Shift) error) error {
	return runInTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		shift, err := txRepo.Shift.GetByIDForUpdate(ctx, shiftID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShiftNotFound
			}
			s.logger.Error("lock shift failed", zap.String("shift_id", shiftID), zap.Error(err))
			return err
		}
		return fn(txRepo, shift)
	})
}

func (s *jobOfferService) loadOffer(ctx context.Context, repo *repository.Repository, offerID string) (*model.JobOffer, error) {
	offer, err := repo.JobOffer.GetByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobOfferNotFound
		}
		s.logger.Error("load job offer failed", zap.String("job_offer_id", offerID), zap.Error(err))
		return nil, err
	}
	return offer, nil
}

// loadForCallback treats a vanished offer as nothing to do
func (s *jobOfferService) loadForCallback(ctx context.Context, offerID string) (*model.JobOffer, bool, error) {
	offer, err := s.loadOffer(ctx, s.repo, offerID)
	if errors.Is(err, ErrJobOfferNotFound) {
		s.logger.Warn("scheduled job offer no longer exists", zap.String("job_offer_id", offerID))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if offer.Shift == nil {
		s.logger.Warn("scheduled job offer has no shift", zap.String("job_offer_id", offerID))
		return nil, false, nil
	}
	return offer, true, nil
}

// siteTime is the shift start and the site's location
func (s *jobOfferService) siteTime(shift *model.Shift) (time.Time, *time.Location, error) {
	if shift == nil || shift.ShiftDate == nil {
		return time.Time{}, nil, ErrShiftNotFound
	}
	loc := s.zones.Resolve(shift.Timezone())
	start, err := shift.StartsAt(loc)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("shift %s start: %w", shift.ShiftID, err)
	}
	return start, loc, nil
}

func (s *jobOfferService) schedule(ctx context.Context, name string, args map[string]string, at time.Time) error {
	return scheduleTask(ctx, s.scheduler, s.logger, name, args, at)
}

func scheduleTask(ctx context.Context, scheduler task.Scheduler, logger *zap.Logger, name string, args map[string]string, at time.Time) error {
	if err := scheduler.Schedule(ctx, name, args, at); err != nil {
		logger.Error("schedule task failed", zap.String("task", name), zap.Error(err))
		return err
	}
	return nil
}

func offerArgs(offer *model.JobOffer) map[string]string {
	return map[string]string{argJobOfferID: offer.JobOfferID}
}

func (s *jobOfferService) toResponse(offer *model.JobOffer) *dto.JobOfferResponse {
	resp := &dto.JobOfferResponse{
		ID:                      offer.JobOfferID,
		ShiftID:                 offer.ShiftID,
		CandidateID:             offer.CandidateID,
		Status:                  offer.Status,
		ScheduledNotificationAt: formatTimePtr(offer.ScheduledNotificationAt),
		OfferSent:               offer.OfferSentNotificationID != nil,
		CreatedAt:               formatTime(offer.CreatedAt),
		UpdatedAt:               formatTime(offer.UpdatedAt),
	}
	if offer.Candidate != nil {
		resp.CandidateName = offer.Candidate.FullName()
	}
	if start, _, err := s.siteTime(offer.Shift); err == nil {
		resp.ShiftStart = formatTimePtr(&start)
	}
	return resp
}
