package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/model"
)

// ShiftRepository shift access
type ShiftRepository interface {
	GetByID(ctx context.Context, id string) (*model.Shift, error)
	// GetByIDForUpdate row-locks the shift for the rest of the transaction.
	// Every offer mutation that can change the accepted count takes this lock first.
	GetByIDForUpdate(ctx context.Context, id string) (*model.Shift, error)
}

type shiftRepo struct {
	db *gorm.DB
}

func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) GetByID(ctx context.Context, id string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Preload("ShiftDate").
		Preload("ShiftDate.Job").
		Preload("ShiftDate.Job.Jobsite").
		Where("shift_id = ?", id).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Shift, error) {
	var locked model.Shift
	err := forUpdate(r.db.WithContext(ctx)).
		Select("shift_id").
		Where("shift_id = ?", id).
		First(&locked).Error
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}
