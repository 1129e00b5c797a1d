package dto

import "time"

// ── Timesheet DTO ──

// AttendanceRequest answer to the going-to-work check
type AttendanceRequest struct {
	Confirmed *bool `json:"confirmed" binding:"required"`
}

// TimeSheetTimesRequest reported or corrected times. Break is optional but must be given as a pair.
type TimeSheetTimesRequest struct {
	ShiftStartedAt time.Time  `json:"shift_started_at" binding:"required"`
	ShiftEndedAt   time.Time  `json:"shift_ended_at"   binding:"required"`
	BreakStartedAt *time.Time `json:"break_started_at"`
	BreakEndedAt   *time.Time `json:"break_ended_at"`
}

// PayLinesQuery selects which modifier set prices the lines
type PayLinesQuery struct {
	Scope string `form:"scope" binding:"omitempty,oneof=company candidate"`
}

// ── Responses ──

// TimeSheetResponse timesheet view
type TimeSheetResponse struct {
	ID                      string  `json:"id"`
	JobOfferID              string  `json:"job_offer_id"`
	Status                  string  `json:"status"`
	ShiftStartedAt          *string `json:"shift_started_at,omitempty"`
	BreakStartedAt          *string `json:"break_started_at,omitempty"`
	BreakEndedAt            *string `json:"break_ended_at,omitempty"`
	ShiftEndedAt            *string `json:"shift_ended_at,omitempty"`
	GoingToWorkConfirmation *bool   `json:"going_to_work_confirmation,omitempty"`
	CandidateSubmittedAt    *string `json:"candidate_submitted_at,omitempty"`
	SupervisorApprovedAt    *string `json:"supervisor_approved_at,omitempty"`
	SupervisorID            *string `json:"supervisor_id,omitempty"`
	Version                 int     `json:"version"`
	UpdatedAt               string  `json:"updated_at"`
}

// TimeSheetStateLogResponse one workflow transition
type TimeSheetStateLogResponse struct {
	FromState string `json:"from_state"`
	ToState   string `json:"to_state"`
	ActorID   string `json:"actor_id"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"created_at"`
}
