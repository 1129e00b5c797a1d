package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/worktime"
)

// Jobsite the place work happens; its zone drives every local-time decision
type Jobsite struct {
	JobsiteID string `gorm:"type:uuid;primaryKey"                           json:"jobsite_id"`
	Name      string `gorm:"type:varchar(200);not null"                     json:"name"`
	Address   string `gorm:"type:varchar(500)"                              json:"address,omitempty"`
	Timezone  string `gorm:"type:varchar(64)"                               json:"timezone,omitempty"` // IANA name, empty uses the default zone
	BaseModel
}

func (Jobsite) TableName() string { return "jobsites" }

func (m *Jobsite) BeforeCreate(*gorm.DB) error { ensureID(&m.JobsiteID); return nil }

// Job a request for workers at a site over a date range
type Job struct {
	JobID             string          `gorm:"type:uuid;primaryKey"                           json:"job_id"`
	JobsiteID         string          `gorm:"type:uuid;not null;index"                       json:"jobsite_id"`
	Position          string          `gorm:"type:varchar(100);not null"                     json:"position"`
	DefaultHourlyRate decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"          json:"default_hourly_rate"`
	BaseModel

	// belongs-to by field naming; a lone foreignKey tag makes gorm read it as has-one
	Jobsite *Jobsite `json:"jobsite,omitempty"`
}

func (Job) TableName() string { return "jobs" }

func (m *Job) BeforeCreate(*gorm.DB) error { ensureID(&m.JobID); return nil }

// ShiftDate one calendar day of a Job
type ShiftDate struct {
	ShiftDateID string              `gorm:"type:uuid;primaryKey"                           json:"shift_date_id"`
	JobID       string              `gorm:"type:uuid;not null;index"                       json:"job_id"`
	Date        datatypes.Date      `gorm:"not null"                                       json:"date"`
	HourlyRate  decimal.NullDecimal `gorm:"type:numeric(10,2)"                             json:"hourly_rate"`
	Cancelled   bool                `gorm:"not null;default:false"                         json:"cancelled"`
	BaseModel

	Job    *Job    `json:"job,omitempty"`
	Shifts []Shift `gorm:"foreignKey:ShiftDateID;constraint:OnDelete:CASCADE" json:"shifts,omitempty"`
}

func (ShiftDate) TableName() string { return "shift_dates" }

func (m *ShiftDate) BeforeCreate(*gorm.DB) error { ensureID(&m.ShiftDateID); return nil }

// Shift one time slot on a ShiftDate with a worker quota
type Shift struct {
	ShiftID     string              `gorm:"type:uuid;primaryKey"                           json:"shift_id"`
	ShiftDateID string              `gorm:"type:uuid;not null;index"                       json:"shift_date_id"`
	StartTime   string              `gorm:"type:time;not null"                             json:"start_time"` // HH:MM
	Workers     int                 `gorm:"not null;default:1"                             json:"workers"`
	HourlyRate  decimal.NullDecimal `gorm:"type:numeric(10,2)"                             json:"hourly_rate"`
	BaseModel

	ShiftDate *ShiftDate `json:"shift_date,omitempty"`
}

func (Shift) TableName() string { return "shifts" }

func (m *Shift) BeforeCreate(*gorm.DB) error { ensureID(&m.ShiftID); return nil }

// Timezone is the site zone name, empty when the graph is not loaded
func (m *Shift) Timezone() string {
	if m.ShiftDate == nil || m.ShiftDate.Job == nil || m.ShiftDate.Job.Jobsite == nil {
		return ""
	}
	return m.ShiftDate.Job.Jobsite.Timezone
}

// JobID is the owning job, empty when ShiftDate is not loaded
func (m *Shift) JobID() string {
	if m.ShiftDate == nil {
		return ""
	}
	return m.ShiftDate.JobID
}

// StartsAt is the absolute start instant in loc. Requires ShiftDate to be loaded.
func (m *Shift) StartsAt(loc *time.Location) (time.Time, error) {
	clock, err := worktime.ParseClock(m.StartTime)
	if err != nil {
		return time.Time{}, err
	}
	return worktime.ShiftStart(time.Time(m.ShiftDate.Date), clock, loc), nil
}

// BaseRate picks the most specific hourly rate: shift, then day, then job
func (m *Shift) BaseRate() decimal.Decimal {
	if m.HourlyRate.Valid {
		return m.HourlyRate.Decimal
	}
	if m.ShiftDate != nil {
		if m.ShiftDate.HourlyRate.Valid {
			return m.ShiftDate.HourlyRate.Decimal
		}
		if m.ShiftDate.Job != nil {
			return m.ShiftDate.Job.DefaultHourlyRate
		}
	}
	return decimal.Zero
}

// Candidate the worker receiving offers
type Candidate struct {
	CandidateID    string `gorm:"type:uuid;primaryKey"                           json:"candidate_id"`
	FirstName      string `gorm:"type:varchar(100);not null"                     json:"first_name"`
	LastName       string `gorm:"type:varchar(100)"                              json:"last_name"`
	Phone          string `gorm:"type:varchar(32)"                               json:"phone,omitempty"`
	TelegramChatID *int64 `json:"telegram_chat_id,omitempty"`
	BaseModel
}

func (Candidate) TableName() string { return "candidates" }

func (m *Candidate) BeforeCreate(*gorm.DB) error { ensureID(&m.CandidateID); return nil }

func (m *Candidate) FullName() string {
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}
