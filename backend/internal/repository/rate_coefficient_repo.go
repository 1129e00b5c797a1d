package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/model"
)

// RateCoefficientRepository coefficient definitions with their rules and modifiers
type RateCoefficientRepository interface {
	Create(ctx context.Context, c *model.RateCoefficient) error
	// ListActiveByScope returns active coefficients that carry a modifier for scope, highest priority first
	ListActiveByScope(ctx context.Context, scope string) ([]model.RateCoefficient, error)
}

type rateCoefficientRepo struct {
	db *gorm.DB
}

func NewRateCoefficientRepo(db *gorm.DB) RateCoefficientRepository {
	return &rateCoefficientRepo{db: db}
}

func (r *rateCoefficientRepo) Create(ctx context.Context, c *model.RateCoefficient) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *rateCoefficientRepo) ListActiveByScope(ctx context.Context, scope string) ([]model.RateCoefficient, error) {
	var list []model.RateCoefficient
	err := r.db.WithContext(ctx).
		Preload("Rules").
		Preload("Modifiers").
		Where("active = ?", true).
		Where("EXISTS (SELECT 1 FROM rate_coefficient_modifiers m WHERE m.rate_coefficient_id = rate_coefficients.rate_coefficient_id AND m.scope = ?)", scope).
		Order("priority DESC, name ASC").
		Find(&list).Error
	return list, err
}
