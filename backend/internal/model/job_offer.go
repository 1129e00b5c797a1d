package model

import (
	"time"

	"gorm.io/gorm"
)

// Job offer statuses
const (
	OfferStatusUndefined = "undefined"
	OfferStatusAccepted  = "accepted"
	OfferStatusCancelled = "cancelled"
)

// JobOffer a proposal of one candidate for one Shift.
// At most one accepted offer per (shift, candidate), enforced by a partial unique index.
type JobOffer struct {
	JobOfferID              string     `gorm:"type:uuid;primaryKey"                           json:"job_offer_id"`
	ShiftID                 string     `gorm:"type:uuid;not null;index"                       json:"shift_id"`
	CandidateID             string     `gorm:"type:uuid;not null;index"                       json:"candidate_id"`
	Status                  string     `gorm:"type:varchar(20);not null;default:'undefined'"  json:"status"` // undefined | accepted | cancelled
	ScheduledNotificationAt *time.Time `json:"scheduled_notification_at,omitempty"`
	OfferSentNotificationID *string    `gorm:"type:uuid" json:"offer_sent_notification_id,omitempty"`
	ReplyNotificationID     *string    `gorm:"type:uuid" json:"reply_notification_id,omitempty"`
	BaseModel

	Shift      *Shift      `json:"shift,omitempty"`
	Candidate  *Candidate  `json:"candidate,omitempty"`
	TimeSheets []TimeSheet `gorm:"foreignKey:JobOfferID;constraint:OnDelete:CASCADE" json:"-"`
}

func (JobOffer) TableName() string { return "job_offers" }

func (m *JobOffer) BeforeCreate(*gorm.DB) error { ensureID(&m.JobOfferID); return nil }

func (m *JobOffer) IsAccepted() bool  { return m.Status == OfferStatusAccepted }
func (m *JobOffer) IsCancelled() bool { return m.Status == OfferStatusCancelled }
func (m *JobOffer) IsUndefined() bool { return m.Status == OfferStatusUndefined }

// CarrierList a candidate's availability for a target day, unique per (candidate, target_date)
type CarrierList struct {
	CarrierListID      string    `gorm:"type:uuid;primaryKey"                           json:"carrier_list_id"`
	CandidateID        string    `gorm:"type:uuid;not null;uniqueIndex:idx_carrier_candidate_target" json:"candidate_id"`
	TargetDate         time.Time `gorm:"not null;uniqueIndex:idx_carrier_candidate_target"            json:"target_date"`
	ConfirmedAvailable bool      `gorm:"not null;default:false"                         json:"confirmed_available"`
	JobOfferID         *string   `gorm:"type:uuid"                                      json:"job_offer_id,omitempty"`
	ReferralJobOfferID *string   `gorm:"type:uuid"                                      json:"referral_job_offer_id,omitempty"`
	BaseModel
}

func (CarrierList) TableName() string { return "carrier_lists" }

func (m *CarrierList) BeforeCreate(*gorm.DB) error { ensureID(&m.CarrierListID); return nil }
