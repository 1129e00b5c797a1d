package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/model"
)

// JobOfferRepository job offer access
type JobOfferRepository interface {
	Create(ctx context.Context, offer *model.JobOffer) error
	GetByID(ctx context.Context, id string) (*model.JobOffer, error)
	Update(ctx context.Context, offer *model.JobOffer) error
	CountAcceptedByShift(ctx context.Context, shiftID string) (int64, error)
	// CountForCandidate counts the candidate's offers on the shift in any of statuses, other than exceptID
	CountForCandidate(ctx context.Context, shiftID, candidateID, exceptID string, statuses ...string) (int64, error)
	// ListCancellableByShift returns undecided offers on the shift, other than exceptID, that either
	// never had an offer message sent or have no timesheet
	ListCancellableByShift(ctx context.Context, shiftID, exceptID string) ([]model.JobOffer, error)
	CancelMany(ctx context.Context, ids []string, actorID string) error
	// MarkSent records the offer message and clears the pending follow-up without touching status
	MarkSent(ctx context.Context, id, notificationID string) error
	// SetReplyNotification records the notice sent in answer to the candidate
	SetReplyNotification(ctx context.Context, id, notificationID string) error
	ListByCandidateAndJob(ctx context.Context, candidateID, jobID string) ([]model.JobOffer, error)
	ListAcceptedByCandidate(ctx context.Context, candidateID string) ([]model.JobOffer, error)
}

type jobOfferRepo struct {
	db *gorm.DB
}

func NewJobOfferRepo(db *gorm.DB) JobOfferRepository {
	return &jobOfferRepo{db: db}
}

// withGraph preloads what offer handling needs: the shift up to its site, and the candidate
func withGraph(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Shift").
		Preload("Shift.ShiftDate").
		Preload("Shift.ShiftDate.Job").
		Preload("Shift.ShiftDate.Job.Jobsite").
		Preload("Candidate")
}

func (r *jobOfferRepo) Create(ctx context.Context, offer *model.JobOffer) error {
	return r.db.WithContext(ctx).Omit("Shift", "Candidate", "TimeSheets").Create(offer).Error
}

func (r *jobOfferRepo) GetByID(ctx context.Context, id string) (*model.JobOffer, error) {
	var offer model.JobOffer
	err := withGraph(r.db.WithContext(ctx)).
		Where("job_offer_id = ?", id).
		First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *jobOfferRepo) Update(ctx context.Context, offer *model.JobOffer) error {
	return r.db.WithContext(ctx).
		Model(&model.JobOffer{}).
		Where("job_offer_id = ?", offer.JobOfferID).
		Updates(map[string]interface{}{
			"status":                     offer.Status,
			"scheduled_notification_at":  offer.ScheduledNotificationAt,
			"offer_sent_notification_id": offer.OfferSentNotificationID,
			"reply_notification_id":      offer.ReplyNotificationID,
			"updated_by":                 offer.UpdatedBy,
			"updated_at":                 time.Now().UTC(),
		}).Error
}

func (r *jobOfferRepo) CountAcceptedByShift(ctx context.Context, shiftID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.JobOffer{}).
		Where("shift_id = ? AND status = ?", shiftID, model.OfferStatusAccepted).
		Count(&n).Error
	return n, err
}

func (r *jobOfferRepo) CountForCandidate(ctx context.Context, shiftID, candidateID, exceptID string, statuses ...string) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.JobOffer{}).
		Where("shift_id = ? AND candidate_id = ? AND status IN ?", shiftID, candidateID, statuses)
	if exceptID != "" {
		q = q.Where("job_offer_id <> ?", exceptID)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (r *jobOfferRepo) ListCancellableByShift(ctx context.Context, shiftID, exceptID string) ([]model.JobOffer, error) {
	var offers []model.JobOffer
	err := withGraph(r.db.WithContext(ctx)).
		Where("shift_id = ? AND job_offer_id <> ? AND status = ?", shiftID, exceptID, model.OfferStatusUndefined).
		Where("offer_sent_notification_id IS NULL OR NOT EXISTS (SELECT 1 FROM time_sheets ts WHERE ts.job_offer_id = job_offers.job_offer_id)").
		Find(&offers).Error
	return offers, err
}

func (r *jobOfferRepo) CancelMany(ctx context.Context, ids []string, actorID string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.JobOffer{}).
		Where("job_offer_id IN ?", ids).
		Updates(map[string]interface{}{
			"status":                    model.OfferStatusCancelled,
			"scheduled_notification_at": nil,
			"updated_by":                actorID,
			"updated_at":                time.Now().UTC(),
		}).Error
}

func (r *jobOfferRepo) MarkSent(ctx context.Context, id, notificationID string) error {
	updates := map[string]interface{}{
		"scheduled_notification_at": nil,
		"updated_at":                time.Now().UTC(),
	}
	if notificationID != "" {
		updates["offer_sent_notification_id"] = notificationID
	}
	return r.db.WithContext(ctx).
		Model(&model.JobOffer{}).
		Where("job_offer_id = ? AND status = ?", id, model.OfferStatusUndefined).
		Updates(updates).Error
}

func (r *jobOfferRepo) SetReplyNotification(ctx context.Context, id, notificationID string) error {
	return r.db.WithContext(ctx).
		Model(&model.JobOffer{}).
		Where("job_offer_id = ?", id).
		Update("reply_notification_id", notificationID).Error
}

func (r *jobOfferRepo) ListByCandidateAndJob(ctx context.Context, candidateID, jobID string) ([]model.JobOffer, error) {
	var offers []model.JobOffer
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Preload("Shift.ShiftDate").
		Joins("JOIN shifts ON shifts.shift_id = job_offers.shift_id").
		Joins("JOIN shift_dates ON shift_dates.shift_date_id = shifts.shift_date_id").
		Where("job_offers.candidate_id = ? AND shift_dates.job_id = ?", candidateID, jobID).
		Order("shift_dates.date ASC, shifts.start_time ASC").
		Find(&offers).Error
	return offers, err
}

func (r *jobOfferRepo) ListAcceptedByCandidate(ctx context.Context, candidateID string) ([]model.JobOffer, error) {
	var offers []model.JobOffer
	err := withGraph(r.db.WithContext(ctx)).
		Where("candidate_id = ? AND status = ?", candidateID, model.OfferStatusAccepted).
		Order("created_at ASC").
		Find(&offers).Error
	return offers, err
}
