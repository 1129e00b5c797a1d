package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/model"
	pkgerrors "github.com/shinystaratnight/endless-backend-sub001/backend/pkg/errors"
)

// TimeSheetRepository timesheet access; Update is optimistic on version
type TimeSheetRepository interface {
	Create(ctx context.Context, ts *model.TimeSheet) error
	GetByID(ctx context.Context, id string) (*model.TimeSheet, error)
	GetByOfferAndStart(ctx context.Context, offerID string, start time.Time) (*model.TimeSheet, error)
	ListByOffer(ctx context.Context, offerID string) ([]model.TimeSheet, error)
	ListApproved(ctx context.Context, filter ApprovedFilter) ([]model.TimeSheet, error)
	Update(ctx context.Context, ts *model.TimeSheet) error
	Delete(ctx context.Context, id string) error
}

// ApprovedFilter selects approved timesheets by shift start; empty CandidateID means everyone
type ApprovedFilter struct {
	CandidateID string
	From        time.Time
	To          time.Time
}

type timeSheetRepo struct {
	db *gorm.DB
}

func NewTimeSheetRepo(db *gorm.DB) TimeSheetRepository {
	return &timeSheetRepo{db: db}
}

func timeSheetGraph(db *gorm.DB) *gorm.DB {
	return db.
		Preload("JobOffer").
		Preload("JobOffer.Candidate").
		Preload("JobOffer.Shift").
		Preload("JobOffer.Shift.ShiftDate").
		Preload("JobOffer.Shift.ShiftDate.Job").
		Preload("JobOffer.Shift.ShiftDate.Job.Jobsite")
}

func (r *timeSheetRepo) Create(ctx context.Context, ts *model.TimeSheet) error {
	return r.db.WithContext(ctx).Omit("JobOffer").Create(ts).Error
}

func (r *timeSheetRepo) GetByID(ctx context.Context, id string) (*model.TimeSheet, error) {
	var ts model.TimeSheet
	if err := timeSheetGraph(r.db.WithContext(ctx)).Where("time_sheet_id = ?", id).First(&ts).Error; err != nil {
		return nil, err
	}
	return &ts, nil
}

func (r *timeSheetRepo) GetByOfferAndStart(ctx context.Context, offerID string, start time.Time) (*model.TimeSheet, error) {
	var ts model.TimeSheet
	err := r.db.WithContext(ctx).
		Where("job_offer_id = ? AND shift_started_at = ?", offerID, start.UTC()).
		First(&ts).Error
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func (r *timeSheetRepo) ListByOffer(ctx context.Context, offerID string) ([]model.TimeSheet, error) {
	var list []model.TimeSheet
	err := r.db.WithContext(ctx).
		Where("job_offer_id = ?", offerID).
		Order("shift_started_at ASC").
		Find(&list).Error
	return list, err
}

func (r *timeSheetRepo) ListApproved(ctx context.Context, filter ApprovedFilter) ([]model.TimeSheet, error) {
	q := timeSheetGraph(r.db.WithContext(ctx)).
		Where("time_sheets.status = ?", model.TimeSheetApproved).
		Where("time_sheets.shift_started_at >= ? AND time_sheets.shift_started_at < ?", filter.From.UTC(), filter.To.UTC())
	if filter.CandidateID != "" {
		q = q.Where("EXISTS (SELECT 1 FROM job_offers jo WHERE jo.job_offer_id = time_sheets.job_offer_id AND jo.candidate_id = ?)", filter.CandidateID)
	}
	var list []model.TimeSheet
	err := q.Order("time_sheets.shift_started_at ASC").Find(&list).Error
	return list, err
}

func (r *timeSheetRepo) Update(ctx context.Context, ts *model.TimeSheet) error {
	oldVersion := ts.Version
	result := r.db.WithContext(ctx).
		Model(&model.TimeSheet{}).
		Where("time_sheet_id = ? AND version = ?", ts.TimeSheetID, oldVersion).
		Updates(map[string]interface{}{
			"status":                     ts.Status,
			"shift_started_at":           ts.ShiftStartedAt,
			"break_started_at":           ts.BreakStartedAt,
			"break_ended_at":             ts.BreakEndedAt,
			"shift_ended_at":             ts.ShiftEndedAt,
			"going_to_work_confirmation": ts.GoingToWorkConfirmation,
			"going_to_work_sent_at":      ts.GoingToWorkSentAt,
			"candidate_submitted_at":     ts.CandidateSubmittedAt,
			"supervisor_approved_at":     ts.SupervisorApprovedAt,
			"supervisor_id":              ts.SupervisorID,
			"updated_by":                 ts.UpdatedBy,
			"updated_at":                 time.Now().UTC(),
			"version":                    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	ts.Version = oldVersion + 1
	return nil
}

func (r *timeSheetRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("time_sheet_id = ?", id).Delete(&model.TimeSheet{}).Error
}

// ── state log ──

// TimeSheetStateLogRepository transition audit
type TimeSheetStateLogRepository interface {
	Create(ctx context.Context, log *model.TimeSheetStateLog) error
	ListByTimeSheet(ctx context.Context, timeSheetID string) ([]model.TimeSheetStateLog, error)
}

type timeSheetStateLogRepo struct {
	db *gorm.DB
}

func NewTimeSheetStateLogRepo(db *gorm.DB) TimeSheetStateLogRepository {
	return &timeSheetStateLogRepo{db: db}
}

func (r *timeSheetStateLogRepo) Create(ctx context.Context, log *model.TimeSheetStateLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *timeSheetStateLogRepo) ListByTimeSheet(ctx context.Context, timeSheetID string) ([]model.TimeSheetStateLog, error) {
	var logs []model.TimeSheetStateLog
	err := r.db.WithContext(ctx).
		Where("time_sheet_id = ?", timeSheetID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}
