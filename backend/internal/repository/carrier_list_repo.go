package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/model"
)

// CarrierListRepository availability records, unique per (candidate, target date)
type CarrierListRepository interface {
	GetByCandidateAndTarget(ctx context.Context, candidateID string, target time.Time) (*model.CarrierList, error)
	Create(ctx context.Context, cl *model.CarrierList) error
	Update(ctx context.Context, cl *model.CarrierList) error
}

type carrierListRepo struct {
	db *gorm.DB
}

func NewCarrierListRepo(db *gorm.DB) CarrierListRepository {
	return &carrierListRepo{db: db}
}

func (r *carrierListRepo) GetByCandidateAndTarget(ctx context.Context, candidateID string, target time.Time) (*model.CarrierList, error) {
	var cl model.CarrierList
	err := r.db.WithContext(ctx).
		Where("candidate_id = ? AND target_date = ?", candidateID, target.UTC()).
		First(&cl).Error
	if err != nil {
		return nil, err
	}
	return &cl, nil
}

func (r *carrierListRepo) Create(ctx context.Context, cl *model.CarrierList) error {
	cl.TargetDate = cl.TargetDate.UTC()
	return r.db.WithContext(ctx).Create(cl).Error
}

func (r *carrierListRepo) Update(ctx context.Context, cl *model.CarrierList) error {
	return r.db.WithContext(ctx).
		Model(&model.CarrierList{}).
		Where("carrier_list_id = ?", cl.CarrierListID).
		Updates(map[string]interface{}{
			"confirmed_available":   cl.ConfirmedAvailable,
			"job_offer_id":          cl.JobOfferID,
			"referral_job_offer_id": cl.ReferralJobOfferID,
			"updated_by":            cl.UpdatedBy,
			"updated_at":            time.Now().UTC(),
		}).Error
}
