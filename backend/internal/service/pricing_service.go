package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/dto"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/model"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/pricing"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/repository"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/worktime"
)

// ── Pricing module business errors ──

var (
	ErrInvalidModifierScope = errors.New("scope must be company or candidate")
	ErrTimeSheetIncomplete  = errors.New("timesheet has no start or end time")
)

// PricingService splits worked time across rate coefficients and prices it
type PricingService interface {
	// Calc splits an arbitrary interval using the coefficients that carry a modifier for the scope
	Calc(ctx context.Context, req *dto.PricingCalcRequest) (*dto.PricingCalcResponse, error)
	// PayLines prices one timesheet for the scope (company invoice or candidate payslip)
	PayLines(ctx context.Context, timeSheetID, scope string) (*dto.PayLinesResponse, error)
}

type pricingService struct {
	repo   *repository.Repository
	zones  *worktime.Resolver
	logger *zap.Logger
}

func newPricingService(repo *repository.Repository, zones *worktime.Resolver, logger *zap.Logger) *pricingService {
	return &pricingService{repo: repo, zones: zones, logger: logger}
}

// NewPricingService creates a PricingService
func NewPricingService(repo *repository.Repository, zones *worktime.Resolver, logger *zap.Logger) PricingService {
	return newPricingService(repo, zones, logger)
}

// ═══════════════════════════════════════════════════════════
// Calc
// ═══════════════════════════════════════════════════════════

func (s *pricingService) Calc(ctx context.Context, req *dto.PricingCalcRequest) (*dto.PricingCalcResponse, error) {
	if !validScope(req.Scope) {
		return nil, ErrInvalidModifierScope
	}
	if err := checkRange(req.ShiftStartedAt, req.ShiftEndedAt, req.BreakStartedAt, req.BreakEndedAt); err != nil {
		return nil, err
	}

	loc := s.zones.Default()
	if req.Timezone != "" {
		loc = s.zones.Resolve(req.Timezone)
	}

	coefficients, _, err := s.coefficients(ctx, req.Scope)
	if err != nil {
		return nil, err
	}

	work := workFor(req.ShiftStartedAt.In(loc), req.ShiftEndedAt, req.BreakStartedAt, req.BreakEndedAt)
	segments := pricing.Calc(coefficients, work)

	resp := &dto.PricingCalcResponse{
		WorkedHours: pricing.Hours(work.Remaining),
		Segments:    make([]dto.CoefficientHours, 0, len(segments)),
	}
	for _, seg := range segments {
		resp.Segments = append(resp.Segments, dto.CoefficientHours{
			CoefficientID: seg.CoefficientID,
			Name:          seg.Name,
			Hours:         pricing.Hours(seg.Duration),
			Allowance:     seg.Allowance,
		})
	}
	return resp, nil
}

// ═══════════════════════════════════════════════════════════
// PayLines
// ═══════════════════════════════════════════════════════════

func (s *pricingService) PayLines(ctx context.Context, timeSheetID, scope string) (*dto.PayLinesResponse, error) {
	if !validScope(scope) {
		return nil, ErrInvalidModifierScope
	}

	ts, err := s.repo.TimeSheet.GetByID(ctx, timeSheetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimeSheetNotFound
		}
		s.logger.Error("load timesheet failed", zap.Error(err))
		return nil, err
	}

	coefficients, byID, err := s.coefficients(ctx, scope)
	if err != nil {
		return nil, err
	}
	lines, base, err := s.linesFor(ts, scope, coefficients, byID)
	if err != nil {
		return nil, err
	}

	resp := &dto.PayLinesResponse{
		TimeSheetID: ts.TimeSheetID,
		Scope:       scope,
		BaseRate:    base,
		Lines:       make([]dto.PayLineResponse, 0, len(lines)),
		Total:       pricing.Total(lines),
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, dto.PayLineResponse{
			Notes:     l.Notes,
			Units:     l.Units,
			Rate:      l.Rate,
			Amount:    l.Amount,
			Allowance: l.Allowance,
		})
	}
	return resp, nil
}

// linesFor prices ts. Base time is paid at the shift's base rate, coefficient time at the
// scope modifier applied to it, allowances at the modifier's fixed override.
func (s *pricingService) linesFor(
	ts *model.TimeSheet,
	scope string,
	coefficients []pricing.Coefficient,
	byID map[string]*model.RateCoefficient,
) ([]pricing.PayLine, decimal.Decimal, error) {
	if !ts.HasTimes() {
		return nil, decimal.Zero, ErrTimeSheetIncomplete
	}
	if ts.JobOffer == nil || ts.JobOffer.Shift == nil {
		return nil, decimal.Zero, ErrShiftNotFound
	}

	shift := ts.JobOffer.Shift
	loc := s.zones.Resolve(shift.Timezone())
	base := shift.BaseRate()
	work := workFor(ts.ShiftStartedAt.In(loc), *ts.ShiftEndedAt, ts.BreakStartedAt, ts.BreakEndedAt)

	var lines []pricing.PayLine
	for _, seg := range pricing.Calc(coefficients, work) {
		rate := base
		if !seg.IsBase() {
			if mod := byID[seg.CoefficientID].ModifierFor(scope); mod != nil {
				if seg.Allowance {
					rate = mod.FixedOverride
				} else {
					rate = mod.Apply(base)
				}
			}
		}
		lines = append(lines, pricing.NewPayLine(seg.Name, seg.Duration, rate, seg.Allowance))
	}
	return lines, base, nil
}

// coefficients loads the active coefficients for scope in engine form.
// A coefficient with a malformed rule is skipped and logged rather than failing the whole calculation.
func (s *pricingService) coefficients(ctx context.Context, scope string) ([]pricing.Coefficient, map[string]*model.RateCoefficient, error) {
	rows, err := s.repo.RateCoefficient.ListActiveByScope(ctx, scope)
	if err != nil {
		s.logger.Error("list rate coefficients failed", zap.Error(err))
		return nil, nil, err
	}

	result := make([]pricing.Coefficient, 0, len(rows))
	byID := make(map[string]*model.RateCoefficient, len(rows))
	for i := range rows {
		c, err := toEngineCoefficient(&rows[i])
		if err != nil {
			s.logger.Warn("rate coefficient skipped",
				zap.String("rate_coefficient_id", rows[i].RateCoefficientID),
				zap.Error(err),
			)
			continue
		}
		result = append(result, c)
		byID[c.ID] = &rows[i]
	}
	return result, byID, nil
}

func toEngineCoefficient(row *model.RateCoefficient) (pricing.Coefficient, error) {
	c := pricing.Coefficient{
		ID:       row.RateCoefficientID,
		Name:     row.Name,
		Priority: row.Priority,
		Rules:    make([]pricing.RankedRule, 0, len(row.Rules)),
	}
	for _, r := range row.Rules {
		rule, err := toEngineRule(r)
		if err != nil {
			return pricing.Coefficient{}, fmt.Errorf("rule %s: %w", r.RuleID, err)
		}
		c.Rules = append(c.Rules, pricing.Rank(rule, r.Priority))
	}
	return c, nil
}

func toEngineRule(r model.CoefficientRule) (pricing.Rule, error) {
	switch r.Kind {
	case model.RuleKindWeekday:
		days := make([]time.Weekday, 0, len(r.Weekdays))
		for _, d := range r.Weekdays {
			if d < 0 || d > 6 {
				return nil, fmt.Errorf("weekday %d out of range", d)
			}
			days = append(days, time.Weekday(d))
		}
		return pricing.WeekdayRule{Days: days}, nil
	case model.RuleKindOvertime:
		return pricing.OvertimeRule{
			From: time.Duration(r.OvertimeFromMin) * time.Minute,
			To:   time.Duration(r.OvertimeToMin) * time.Minute,
		}, nil
	case model.RuleKindTimeOfDay:
		start, err := worktime.ParseClock(r.WindowStart)
		if err != nil {
			return nil, err
		}
		end, err := worktime.ParseClock(r.WindowEnd)
		if err != nil {
			return nil, err
		}
		return pricing.TimeOfDayRule{Start: start, End: end}, nil
	case model.RuleKindAllowance:
		return pricing.AllowanceRule{Description: r.Description}, nil
	default:
		return nil, fmt.Errorf("unknown rule kind %q", r.Kind)
	}
}

func workFor(start, end time.Time, breakStart, breakEnd *time.Time) pricing.Work {
	w := pricing.Work{
		Start:     start,
		Remaining: worktime.WorkedDuration(start, end, breakStart, breakEnd),
	}
	if b, ok := worktime.BreakInterval(breakStart, breakEnd); ok {
		w.Break = &b
	}
	return w
}

func validScope(scope string) bool {
	return scope == model.ModifierScopeCompany || scope == model.ModifierScopeCandidate
}
