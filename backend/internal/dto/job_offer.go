package dto

// ── Job offer DTO ──

// CreateJobOfferRequest offer a shift to a candidate. Accepted records a yes given up front,
// e.g. by a recruiter on the phone.
type CreateJobOfferRequest struct {
	ShiftID     string `json:"shift_id"     binding:"required,uuid"`
	CandidateID string `json:"candidate_id" binding:"required,uuid"`
	Accepted    bool   `json:"accepted"`
}

// JobOfferReplyRequest the candidate's answer; null means the reply could not be read
type JobOfferReplyRequest struct {
	Positive *bool `json:"positive"`
}

// ── Responses ──

// JobOfferResponse job offer view
type JobOfferResponse struct {
	ID                      string  `json:"id"`
	ShiftID                 string  `json:"shift_id"`
	CandidateID             string  `json:"candidate_id"`
	CandidateName           string  `json:"candidate_name,omitempty"`
	Status                  string  `json:"status"`
	ShiftStart              *string `json:"shift_start,omitempty"`
	ScheduledNotificationAt *string `json:"scheduled_notification_at,omitempty"`
	OfferSent               bool    `json:"offer_sent"`
	CreatedAt               string  `json:"created_at"`
	UpdatedAt               string  `json:"updated_at"`
}

// QuotaResponse accepted offers against the shift's worker count
type QuotaResponse struct {
	ShiftID  string `json:"shift_id"`
	Workers  int    `json:"workers"`
	Accepted int64  `json:"accepted"`
	Filled   bool   `json:"filled"`
}
