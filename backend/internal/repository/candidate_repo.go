package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/model"
)

// CandidateRepository candidate lookups
type CandidateRepository interface {
	GetByID(ctx context.Context, id string) (*model.Candidate, error)
}

type candidateRepo struct {
	db *gorm.DB
}

func NewCandidateRepo(db *gorm.DB) CandidateRepository {
	return &candidateRepo{db: db}
}

func (r *candidateRepo) GetByID(ctx context.Context, id string) (*model.Candidate, error) {
	var c model.Candidate
	if err := r.db.WithContext(ctx).Where("candidate_id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
