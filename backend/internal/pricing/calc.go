package pricing

import (
	"sort"
	"time"
)

// BaseName labels time no coefficient claimed
const BaseName = "base"

// RankedRule is a rule with its effective priority
type RankedRule struct {
	Rule     Rule
	Priority int
}

// Rank attaches priority to r, falling back to the kind default when priority is zero
func Rank(r Rule, priority int) RankedRule {
	if priority == 0 {
		priority = r.DefaultPriority()
	}
	return RankedRule{Rule: r, Priority: priority}
}

// Coefficient as seen by the engine
type Coefficient struct {
	ID       string
	Name     string
	Priority int
	Rules    []RankedRule
}

// Segment one priced piece of the worked time. CoefficientID is empty for base.
type Segment struct {
	CoefficientID string
	Name          string
	Duration      time.Duration
	Allowance     bool
}

func (s Segment) IsBase() bool { return s.CoefficientID == "" }

// Calc partitions work.Remaining across coefficients.
// Allowance segments are extra; every other segment plus base sums to work.Remaining.
// Inputs are not modified.
func Calc(coefficients []Coefficient, work Work) []Segment {
	ordered := make([]Coefficient, len(coefficients))
	copy(ordered, coefficients)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority > ordered[j].Priority })

	remaining := work.Remaining
	var segments []Segment

	for _, c := range ordered {
		used, allowance, ok := evaluate(c, Work{Start: work.Start, Remaining: remaining, Break: work.Break})
		if !ok {
			continue
		}

		if allowance {
			segments = append(segments, Segment{
				CoefficientID: c.ID, Name: c.Name, Duration: AllowanceDuration, Allowance: true,
			})
			continue
		}

		if used > 0 {
			segments = append(segments, Segment{CoefficientID: c.ID, Name: c.Name, Duration: used})
			remaining -= used
		}
	}

	if remaining > 0 {
		segments = append(segments, Segment{Name: BaseName, Duration: remaining})
	}
	return segments
}

// evaluate runs one coefficient's rules from the highest priority down.
// ok is false when a rule is not applicable or the coefficient has no rules.
func evaluate(c Coefficient, w Work) (used time.Duration, allowance bool, ok bool) {
	if len(c.Rules) == 0 {
		return 0, false, false
	}

	rules := make([]RankedRule, len(c.Rules))
	copy(rules, c.Rules)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })

	// allowance coefficients evaluate every rule so a later weekday rule can still veto them
	for _, r := range rules {
		if _, isAllowance := r.Rule.(AllowanceRule); isAllowance {
			allowance = true
			break
		}
	}

	used = w.Remaining
	for _, r := range rules {
		out := r.Rule.ApplicableDuration(w)
		switch out.Verdict {
		case NotApplicable:
			return 0, false, false
		case FlatAllowance:
			continue
		}

		if out.Duration < used {
			used = out.Duration
		}
		if used <= 0 && !allowance {
			return 0, false, true
		}
	}

	return used, allowance, true
}
