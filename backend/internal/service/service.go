package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shinystaratnight/endless-backend-sub001/backend/config"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/notify"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/repository"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/task"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/workflow"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/worktime"
)

// Service aggregates every service
type Service struct {
	JobOffer  JobOfferService
	TimeSheet TimeSheetService
	Pricing   PricingService
	Export    ExportService
	Calendar  CalendarService
	Notifier  Notifier
}

// Deps everything the services are built from
type Deps struct {
	Config    *config.Config
	Repo      *repository.Repository
	Scheduler task.Scheduler
	Sender    notify.Sender
	Renderer  *notify.Renderer
	Rules     *workflow.RuleSet
	Zones     *worktime.Resolver
	Logger    *zap.Logger
}

// NewService builds the aggregate
func NewService(d Deps) *Service {
	notifier := NewNotificationService(d.Repo, d.Renderer, d.Sender, d.Logger)
	timeSheets := newTimeSheetService(d.Config, d.Repo, d.Scheduler, notifier, d.Rules, d.Zones, d.Logger)
	pricing := newPricingService(d.Repo, d.Zones, d.Logger)
	return &Service{
		JobOffer:  newJobOfferService(d.Config, d.Repo, d.Scheduler, notifier, timeSheets, d.Zones, d.Logger),
		TimeSheet: timeSheets,
		Pricing:   pricing,
		Export:    NewExportService(d.Repo, pricing, d.Zones, d.Logger),
		Calendar:  NewCalendarService(d.Repo, d.Zones, d.Config.TimeSheet.ShiftLength, d.Logger),
		Notifier:  notifier,
	}
}

// RegisterTasks binds every scheduled callback to w
func RegisterTasks(w *task.Worker, svc *Service) {
	w.Register(TaskOfferFollowUp, func(ctx context.Context, args map[string]string) error {
		return svc.JobOffer.HandleFollowUp(ctx, args[argJobOfferID], args[argScheduledAt])
	})
	w.Register(TaskOfferRejection, func(ctx context.Context, args map[string]string) error {
		return svc.JobOffer.HandleRejection(ctx, args[argJobOfferID])
	})
	w.Register(TaskOfferCancelled, func(ctx context.Context, args map[string]string) error {
		return svc.JobOffer.HandleCancellation(ctx, args[argJobOfferID], false)
	})
	w.Register(TaskOfferCancelledLate, func(ctx context.Context, args map[string]string) error {
		return svc.JobOffer.HandleCancellation(ctx, args[argJobOfferID], true)
	})
	w.Register(TaskTimeSheetPlacement, func(ctx context.Context, args map[string]string) error {
		return svc.TimeSheet.HandlePlacementNotice(ctx, args[argTimeSheetID])
	})
	w.Register(TaskTimeSheetAttendance, func(ctx context.Context, args map[string]string) error {
		return svc.TimeSheet.HandleAttendanceCheck(ctx, args[argTimeSheetID])
	})
	w.Register(TaskTimeSheetShiftStarted, func(ctx context.Context, args map[string]string) error {
		return svc.TimeSheet.HandleShiftStarted(ctx, args[argTimeSheetID])
	})
	w.Register(TaskTimeSheetAutoApprove, func(ctx context.Context, args map[string]string) error {
		return svc.TimeSheet.HandleAutoApprove(ctx, args[argTimeSheetID])
	})
}

// Scheduled task names
const (
	TaskOfferFollowUp         = "job_offer.follow_up"
	TaskOfferRejection        = "job_offer.rejection"
	TaskOfferCancelled        = "job_offer.cancelled"
	TaskOfferCancelledLate    = "job_offer.cancelled_short_notice"
	TaskTimeSheetPlacement    = "time_sheet.placement_notice"
	TaskTimeSheetAttendance   = "time_sheet.attendance_check"
	TaskTimeSheetShiftStarted = "time_sheet.shift_started"
	TaskTimeSheetAutoApprove  = "time_sheet.auto_approve"
)

const (
	argJobOfferID   = "job_offer_id"
	argTimeSheetID  = "time_sheet_id"
	argScheduledAt  = "scheduled_at"
	systemActorID   = "system"
	timestampLayout = "2006-01-02T15:04:05Z"
)

// runInTx runs fn against a transaction-bound repository and commits when it returns nil.
// Without a database (mock repositories) fn runs directly against repo.
func runInTx(ctx context.Context, repo *repository.Repository, fn func(txRepo *repository.Repository) error) error {
	tx, err := repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	if err := fn(repo.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
