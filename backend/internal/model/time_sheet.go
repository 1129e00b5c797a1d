package model

import (
	"time"

	"gorm.io/gorm"
)

// Timesheet workflow states
const (
	TimeSheetNew             = "new"
	TimeSheetCheckPending    = "check_pending"
	TimeSheetCheckConfirmed  = "check_confirmed"
	TimeSheetCheckFailed     = "check_failed"
	TimeSheetSubmitPending   = "submit_pending"
	TimeSheetApprovalPending = "approval_pending"
	TimeSheetModified        = "modified"
	TimeSheetApproved        = "approved"
)

// TimeSheet the reported times for one accepted JobOffer occurrence
type TimeSheet struct {
	TimeSheetID             string     `gorm:"type:uuid;primaryKey"                                 json:"time_sheet_id"`
	JobOfferID              string     `gorm:"type:uuid;not null;uniqueIndex:idx_timesheet_offer_start" json:"job_offer_id"`
	Status                  string     `gorm:"type:varchar(20);not null;default:'new'"              json:"status"`
	ShiftStartedAt          *time.Time `gorm:"uniqueIndex:idx_timesheet_offer_start"                json:"shift_started_at,omitempty"`
	BreakStartedAt          *time.Time `json:"break_started_at,omitempty"`
	BreakEndedAt            *time.Time `json:"break_ended_at,omitempty"`
	ShiftEndedAt            *time.Time `json:"shift_ended_at,omitempty"`
	GoingToWorkConfirmation *bool      `json:"going_to_work_confirmation,omitempty"`
	GoingToWorkSentAt       *time.Time `json:"going_to_work_sent_at,omitempty"`
	CandidateSubmittedAt    *time.Time `json:"candidate_submitted_at,omitempty"`
	SupervisorApprovedAt    *time.Time `json:"supervisor_approved_at,omitempty"`
	SupervisorID            *string    `gorm:"type:varchar(64)" json:"supervisor_id,omitempty"`
	VersionedModel

	JobOffer *JobOffer `json:"job_offer,omitempty"`
}

func (TimeSheet) TableName() string { return "time_sheets" }

func (m *TimeSheet) BeforeCreate(*gorm.DB) error { ensureID(&m.TimeSheetID); return nil }

// HasTimes reports whether start and end are both recorded
func (m *TimeSheet) HasTimes() bool {
	return m.ShiftStartedAt != nil && m.ShiftEndedAt != nil
}

// TimeSheetStateLog audit row for every workflow transition
type TimeSheetStateLog struct {
	LogID       string    `gorm:"type:uuid;primaryKey"                           json:"log_id"`
	TimeSheetID string    `gorm:"type:uuid;not null;index"                       json:"time_sheet_id"`
	FromState   string    `gorm:"type:varchar(20);not null"                      json:"from_state"`
	ToState     string    `gorm:"type:varchar(20);not null"                      json:"to_state"`
	ActorID     string    `gorm:"type:varchar(64);not null"                      json:"actor_id"`
	Comment     string    `gorm:"type:varchar(500)"                              json:"comment,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

func (TimeSheetStateLog) TableName() string { return "time_sheet_state_logs" }

func (m *TimeSheetStateLog) BeforeCreate(*gorm.DB) error { ensureID(&m.LogID); return nil }
