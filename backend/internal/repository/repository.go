package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository aggregates every repository over one connection or transaction
type Repository struct {
	db *gorm.DB

	Candidate       CandidateRepository
	Shift           ShiftRepository
	JobOffer        JobOfferRepository
	CarrierList     CarrierListRepository
	TimeSheet       TimeSheetRepository
	TimeSheetLog    TimeSheetStateLogRepository
	RateCoefficient RateCoefficientRepository
	Notification    NotificationRepository
}

// NewRepository builds the aggregate on db
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:              db,
		Candidate:       NewCandidateRepo(db),
		Shift:           NewShiftRepo(db),
		JobOffer:        NewJobOfferRepo(db),
		CarrierList:     NewCarrierListRepo(db),
		TimeSheet:       NewTimeSheetRepo(db),
		TimeSheetLog:    NewTimeSheetStateLogRepo(db),
		RateCoefficient: NewRateCoefficientRepo(db),
		Notification:    NewNotificationRepo(db),
	}
}

// BeginTx opens a transaction. With no database attached (unit tests over mocks) it returns nil, nil
// and callers skip Commit/Rollback.
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx returns an aggregate bound to tx; nil tx returns r unchanged
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// forUpdate adds a row lock where the dialect has one.
// sqlite serialises writers through a single connection instead.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector != nil && db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
