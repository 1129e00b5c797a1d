package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Rule kinds
const (
	RuleKindWeekday   = "weekday"
	RuleKindOvertime  = "overtime"
	RuleKindTimeOfDay = "time_of_day"
	RuleKindAllowance = "allowance"
)

// Modifier scopes
const (
	ModifierScopeCompany   = "company"
	ModifierScopeCandidate = "candidate"
)

// RateCoefficient a named pay modifier made of one or more rules
type RateCoefficient struct {
	RateCoefficientID string `gorm:"type:uuid;primaryKey"                           json:"rate_coefficient_id"`
	Name              string `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	Priority          int    `gorm:"not null;default:0"                             json:"priority"`
	Active            bool   `gorm:"not null;default:true"                          json:"active"`
	BaseModel

	Rules     []CoefficientRule         `gorm:"foreignKey:RateCoefficientID;constraint:OnDelete:CASCADE" json:"rules,omitempty"`
	Modifiers []RateCoefficientModifier `gorm:"foreignKey:RateCoefficientID;constraint:OnDelete:CASCADE" json:"modifiers,omitempty"`
}

func (RateCoefficient) TableName() string { return "rate_coefficients" }

func (m *RateCoefficient) BeforeCreate(*gorm.DB) error { ensureID(&m.RateCoefficientID); return nil }

// ModifierFor returns the coefficient's modifier for scope, nil when it has none
func (m *RateCoefficient) ModifierFor(scope string) *RateCoefficientModifier {
	var found *RateCoefficientModifier
	for i := range m.Modifiers {
		mod := &m.Modifiers[i]
		if mod.Scope != scope {
			continue
		}
		if mod.IsDefault {
			return mod
		}
		if found == nil {
			found = mod
		}
	}
	return found
}

// CoefficientRule one stored rule; Kind selects which columns are meaningful.
// Weekdays uses 0=Sunday .. 6=Saturday.
type CoefficientRule struct {
	RuleID            string   `gorm:"type:uuid;primaryKey"                           json:"rule_id"`
	RateCoefficientID string   `gorm:"type:uuid;not null;index"                       json:"rate_coefficient_id"`
	Kind              string   `gorm:"type:varchar(20);not null"                      json:"kind"`     // weekday | overtime | time_of_day | allowance
	Priority          int      `gorm:"not null;default:0"                             json:"priority"` // 0 uses the kind default
	Weekdays          IntArray `json:"weekdays,omitempty"`
	OvertimeFromMin   int      `gorm:"not null;default:0"                             json:"overtime_from_min"`
	OvertimeToMin     int      `gorm:"not null;default:0"                             json:"overtime_to_min"` // 0 = open ended
	WindowStart       string   `gorm:"type:varchar(8)"                                json:"window_start,omitempty"`
	WindowEnd         string   `gorm:"type:varchar(8)"                                json:"window_end,omitempty"`
	Description       string   `gorm:"type:varchar(200)"                              json:"description,omitempty"`
}

func (CoefficientRule) TableName() string { return "coefficient_rules" }

func (m *CoefficientRule) BeforeCreate(*gorm.DB) error { ensureID(&m.RuleID); return nil }

// RateCoefficientModifier how a coefficient changes the rate for one scope
type RateCoefficientModifier struct {
	ModifierID        string          `gorm:"type:uuid;primaryKey"                           json:"modifier_id"`
	RateCoefficientID string          `gorm:"type:uuid;not null;index"                       json:"rate_coefficient_id"`
	Scope             string          `gorm:"type:varchar(20);not null"                      json:"scope"` // company | candidate
	Multiplier        decimal.Decimal `gorm:"type:numeric(8,4);not null;default:1"           json:"multiplier"`
	FixedAddition     decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"          json:"fixed_addition"`
	FixedOverride     decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"          json:"fixed_override"`
	IsDefault         bool            `gorm:"not null;default:false"                         json:"is_default"`
}

func (RateCoefficientModifier) TableName() string { return "rate_coefficient_modifiers" }

func (m *RateCoefficientModifier) BeforeCreate(*gorm.DB) error { ensureID(&m.ModifierID); return nil }

// Apply returns the modified hourly rate
func (m *RateCoefficientModifier) Apply(rate decimal.Decimal) decimal.Decimal {
	if m.FixedOverride.IsPositive() {
		return m.FixedOverride
	}
	return rate.Mul(m.Multiplier).Add(m.FixedAddition)
}
