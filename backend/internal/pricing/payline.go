package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

var secondsPerHour = decimal.NewFromInt(3600)

// Hours converts a duration to decimal hours, rounded to 6 places
func Hours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d / time.Second)).DivRound(secondsPerHour, 6)
}

// PayLine one priced row of a payslip or invoice
type PayLine struct {
	Notes     string          `json:"notes"`
	Units     decimal.Decimal `json:"units"`
	Rate      decimal.Decimal `json:"rate"`
	Amount    decimal.Decimal `json:"amount"`
	Allowance bool            `json:"allowance"`
}

// NewPayLine prices d at rate; the amount is rounded to cents
func NewPayLine(notes string, d time.Duration, rate decimal.Decimal, allowance bool) PayLine {
	units := Hours(d)
	return PayLine{
		Notes:     notes,
		Units:     units,
		Rate:      rate,
		Amount:    rate.Mul(units).Round(2),
		Allowance: allowance,
	}
}

// Aggregate merges lines with the same notes and rate, keeping first-seen order
func Aggregate(lines []PayLine) []PayLine {
	type key struct {
		notes string
		rate  string
	}
	index := make(map[key]int, len(lines))
	out := make([]PayLine, 0, len(lines))

	for _, l := range lines {
		k := key{notes: l.Notes, rate: l.Rate.String()}
		if i, ok := index[k]; ok {
			out[i].Units = out[i].Units.Add(l.Units)
			out[i].Amount = out[i].Amount.Add(l.Amount)
			continue
		}
		index[k] = len(out)
		out = append(out, l)
	}
	return out
}

// Total sums line amounts
func Total(lines []PayLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}
