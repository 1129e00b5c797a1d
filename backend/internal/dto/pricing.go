package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Pricing DTO ──

// PricingCalcRequest ad-hoc split of a worked interval. Timezone defaults to the configured zone.
type PricingCalcRequest struct {
	Scope          string     `json:"scope"            binding:"required,oneof=company candidate"`
	ShiftStartedAt time.Time  `json:"shift_started_at" binding:"required"`
	ShiftEndedAt   time.Time  `json:"shift_ended_at"   binding:"required"`
	BreakStartedAt *time.Time `json:"break_started_at"`
	BreakEndedAt   *time.Time `json:"break_ended_at"`
	Timezone       string     `json:"timezone"`
}

// PayLinesExportQuery approved timesheets whose shift started in [from, to)
type PayLinesExportQuery struct {
	CandidateID string `form:"candidate_id" binding:"omitempty,uuid"`
	From        string `form:"from"         binding:"required"` // YYYY-MM-DD
	To          string `form:"to"           binding:"required"` // YYYY-MM-DD, exclusive
	Scope       string `form:"scope"        binding:"omitempty,oneof=company candidate"`
}

// ── Responses ──

// CoefficientHours time attributed to one coefficient, or to base
type CoefficientHours struct {
	CoefficientID string          `json:"coefficient_id,omitempty"`
	Name          string          `json:"name"`
	Hours         decimal.Decimal `json:"hours"`
	Allowance     bool            `json:"allowance,omitempty"`
}

// PricingCalcResponse the split plus total worked hours
type PricingCalcResponse struct {
	WorkedHours decimal.Decimal    `json:"worked_hours"`
	Segments    []CoefficientHours `json:"segments"`
}

// PayLineResponse one priced line
type PayLineResponse struct {
	Notes     string          `json:"notes"`
	Units     decimal.Decimal `json:"units"`
	Rate      decimal.Decimal `json:"rate"`
	Amount    decimal.Decimal `json:"amount"`
	Allowance bool            `json:"allowance,omitempty"`
}

// PayLinesResponse priced lines for one timesheet
type PayLinesResponse struct {
	TimeSheetID string            `json:"time_sheet_id"`
	Scope       string            `json:"scope"`
	BaseRate    decimal.Decimal   `json:"base_rate"`
	Lines       []PayLineResponse `json:"lines"`
	Total       decimal.Decimal   `json:"total"`
}
