package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/ruiqi-w/portfolio-engine/internal/domain"
)

// Series holds parallel time series of total portfolio value and total cost
// basis, aligned by index with their observation dates.
type Series struct {
	Dates      []domain.Date
	TotalValue []decimal.Decimal
	TotalCost  []decimal.Decimal
}

// Len returns the number of observation points.
func (s *Series) Len() int { return len(s.Dates) }

// Profit returns total value minus total cost at index i.
func (s *Series) Profit(i int) decimal.Decimal {
	return s.TotalValue[i].Sub(s.TotalCost[i])
}

// Window returns the view of the series from the first point with
// date >= start. Dates are ascending, so a window is a suffix of the backing
// series, not a recomputation. A start past the last point yields an empty
// series.
func (s *Series) Window(start domain.Date) *Series {
	i := 0
	for i < s.Len() && s.Dates[i].Before(start) {
		i++
	}
	return &Series{
		Dates:      s.Dates[i:],
		TotalValue: s.TotalValue[i:],
		TotalCost:  s.TotalCost[i:],
	}
}

// ProfitSummary describes how profit moved across a series.
type ProfitSummary struct {
	StartProfit decimal.Decimal
	EndProfit   decimal.Decimal
	// ChangePct is the percentage change of profit from the first to the
	// last point. Zero when the series is empty or the starting profit is
	// zero, never a division error.
	ChangePct decimal.Decimal
}

// Summarize computes the profit summary over the whole series.
func (s *Series) Summarize() ProfitSummary {
	if s.Len() == 0 {
		return ProfitSummary{StartProfit: decimal.Zero, EndProfit: decimal.Zero, ChangePct: decimal.Zero}
	}

	start := s.Profit(0)
	end := s.Profit(s.Len() - 1)

	changePct := decimal.Zero
	if !start.IsZero() {
		changePct = end.Sub(start).Div(start).Mul(decimal.NewFromInt(100))
	}

	return ProfitSummary{StartProfit: start, EndProfit: end, ChangePct: changePct}
}

// EvenlySpacedDates picks n dates spread evenly across [start, end], always
// including both endpoints and never repeating a date. Fewer than n dates
// come back when the range has fewer days than requested points.
func EvenlySpacedDates(start, end domain.Date, n int) []domain.Date {
	if end.Before(start) {
		return nil
	}
	if n < 2 || start == end {
		return []domain.Date{end}
	}

	span := int(end.Time().Sub(start.Time()).Hours() / 24)
	step := float64(span) / float64(n-1)

	dates := make([]domain.Date, 0, n)
	for i := 0; i < n; i++ {
		d := start.AddDays(int(float64(i)*step + 0.5))
		if len(dates) > 0 && dates[len(dates)-1] == d {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}
