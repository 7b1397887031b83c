// Package valuation reconstructs historical portfolio value and cost-basis
// series from the sparse append-only snapshot tables and the price cache.
package valuation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ruiqi-w/portfolio-engine/internal/domain"
)

// CashLabel is the pseudo-ticker the cash balance appears under in the
// snapshot view.
const CashLabel = "Cash"

// Standard reporting windows.
type WindowName string

const (
	WindowYTD WindowName = "YTD"
	Window1M  WindowName = "1M"
	Window3M  WindowName = "3M"
	Window6M  WindowName = "6M"
)

// PriceSource is the part of the price cache the valuation engine consumes.
type PriceSource interface {
	GetPrice(ctx context.Context, ticker string, on domain.Date) (decimal.Decimal, bool)
	GetLatestPrice(ctx context.Context, ticker string) (decimal.Decimal, bool)
}

// Service composes the price cache and the point-in-time snapshot queries
// into portfolio-level series and summaries.
type Service struct {
	holdings domain.HoldingRepository
	cash     domain.CashRepository
	gains    domain.RealizedGainRepository
	prices   PriceSource
	loc      *time.Location
	now      func() time.Time
	log      *logrus.Logger
}

// Config holds the valuation clock settings.
type Config struct {
	// Location is the reference time zone defining "today" for windowing
	// and the latest-snapshot views.
	Location *time.Location

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// NewService creates a new valuation service.
func NewService(
	holdings domain.HoldingRepository,
	cash domain.CashRepository,
	gains domain.RealizedGainRepository,
	prices PriceSource,
	cfg Config,
	log *logrus.Logger,
) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		holdings: holdings,
		cash:     cash,
		gains:    gains,
		prices:   prices,
		loc:      loc,
		now:      now,
		log:      log,
	}
}

// Today returns the current date in the configured reference time zone.
func (s *Service) Today() domain.Date {
	return domain.DateOf(s.now().In(s.loc))
}

// BuildSeries computes total portfolio value and total cost basis for each
// of the given observation dates (ascending, distinct). Cash joins the value
// side per date; it has no cost basis. A ticker with a missing price
// contributes its cost but no value on that date: missing price is a logged
// gap, not a zero holding.
func (s *Service) BuildSeries(ctx context.Context, dates []domain.Date) (*Series, error) {
	tickers, err := s.holdings.DistinctTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolio tickers: %w", err)
	}

	series := &Series{
		Dates:      make([]domain.Date, 0, len(dates)),
		TotalValue: make([]decimal.Decimal, 0, len(dates)),
		TotalCost:  make([]decimal.Decimal, 0, len(dates)),
	}

	for _, on := range dates {
		totalValue := decimal.Zero
		totalCost := decimal.Zero

		for _, ticker := range tickers {
			value, cost := s.tickerContribution(ctx, ticker, on)
			totalValue = totalValue.Add(value)
			totalCost = totalCost.Add(cost)
		}

		totalValue = totalValue.Add(s.cashBalanceAt(ctx, on))

		series.Dates = append(series.Dates, on)
		series.TotalValue = append(series.TotalValue, totalValue)
		series.TotalCost = append(series.TotalCost, totalCost)
	}

	return series, nil
}

// tickerContribution returns the (value, cost) a ticker adds on one date.
func (s *Service) tickerContribution(ctx context.Context, ticker string, on domain.Date) (decimal.Decimal, decimal.Decimal) {
	snapshot, err := s.holdings.LatestAtOrBefore(ctx, ticker, on)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"ticker": ticker,
			"date":   on,
		}).Warn("Holding lookup failed, ticker contributes nothing on this date")
		return decimal.Zero, decimal.Zero
	}
	if snapshot == nil || snapshot.Quantity.IsZero() {
		return decimal.Zero, decimal.Zero
	}

	cost := snapshot.CostBasis.Mul(snapshot.Quantity)

	price, ok := s.prices.GetPrice(ctx, ticker, on)
	if !ok {
		s.log.WithFields(logrus.Fields{
			"ticker": ticker,
			"date":   on,
		}).Warn("Missing price, ticker contributes no value on this date")
		return decimal.Zero, cost
	}

	return price.Mul(snapshot.Quantity), cost
}

func (s *Service) cashBalanceAt(ctx context.Context, on domain.Date) decimal.Decimal {
	snapshot, err := s.cash.LatestAtOrBefore(ctx, on)
	if err != nil {
		s.log.WithError(err).WithField("date", on).Warn("Cash lookup failed, treating balance as zero")
		return decimal.Zero
	}
	if snapshot == nil {
		return decimal.Zero
	}
	return snapshot.Balance
}

// StandardWindows returns the four standard trailing views over one series:
// year-to-date and trailing 1, 3 and 6 months, each a filtered view of the
// same underlying points. An empty window is reported, not fatal.
func (s *Service) StandardWindows(series *Series) map[WindowName]*Series {
	today := s.Today()
	starts := map[WindowName]domain.Date{
		WindowYTD: today.StartOfYear(),
		Window1M:  today.AddDays(-30),
		Window3M:  today.AddDays(-90),
		Window6M:  today.AddDays(-180),
	}

	windows := make(map[WindowName]*Series, len(starts))
	for name, start := range starts {
		window := series.Window(start)
		if window.Len() == 0 {
			s.log.WithFields(logrus.Fields{
				"window": name,
				"start":  start,
			}).Info("No data points in window")
		}
		windows[name] = window
	}
	return windows
}

// PieSlice is one entry of the latest-data snapshot view.
type PieSlice struct {
	Label string
	Value decimal.Decimal
}

// PieSnapshot computes the one-date degenerate view of the portfolio: the
// current value of every ticker with a strictly positive value, plus cash as
// a pseudo-ticker when positive, sorted ascending by value.
func (s *Service) PieSnapshot(ctx context.Context) ([]PieSlice, error) {
	tickers, err := s.holdings.DistinctTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolio tickers: %w", err)
	}

	today := s.Today()
	var slices []PieSlice

	for _, ticker := range tickers {
		snapshot, err := s.holdings.LatestAtOrBefore(ctx, ticker, today)
		if err != nil {
			s.log.WithError(err).WithField("ticker", ticker).Warn("Holding lookup failed, skipping slice")
			continue
		}
		if snapshot == nil || snapshot.Quantity.IsZero() {
			continue
		}

		price, ok := s.prices.GetLatestPrice(ctx, ticker)
		if !ok {
			s.log.WithField("ticker", ticker).Warn("No latest price, skipping slice")
			continue
		}

		value := price.Mul(snapshot.Quantity)
		if value.IsPositive() {
			slices = append(slices, PieSlice{Label: ticker, Value: value})
		}
	}

	if balance := s.cashBalanceAt(ctx, today); balance.IsPositive() {
		slices = append(slices, PieSlice{Label: CashLabel, Value: balance})
	}

	sort.Slice(slices, func(i, j int) bool {
		return slices[i].Value.LessThan(slices[j].Value)
	})

	return slices, nil
}

// TickerReturn is one row of the per-ticker rate-of-return table as of a
// date: what the position is worth, what it cost, and how much profit is
// unrealized versus locked in.
type TickerReturn struct {
	Ticker         string
	Quantity       decimal.Decimal
	Value          decimal.Decimal
	Cost           decimal.Decimal
	UnrealizedGain decimal.Decimal
	RealizedGain   decimal.Decimal
	TotalReturn    decimal.Decimal
	// ReturnPct is TotalReturn relative to Cost, zero when Cost is zero.
	ReturnPct decimal.Decimal
}

// TickerReturns computes the rate-of-return row for every ticker as of the
// given date. Tickers with neither a holding nor any realized gain by that
// date are omitted.
func (s *Service) TickerReturns(ctx context.Context, asOf domain.Date) ([]TickerReturn, error) {
	tickers, err := s.holdings.DistinctTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolio tickers: %w", err)
	}

	var rows []TickerReturn
	for _, ticker := range tickers {
		snapshot, err := s.holdings.LatestAtOrBefore(ctx, ticker, asOf)
		if err != nil {
			s.log.WithError(err).WithField("ticker", ticker).Warn("Holding lookup failed, skipping ticker")
			continue
		}

		realized, err := s.gains.CumulativeGain(ctx, ticker, asOf)
		if err != nil {
			s.log.WithError(err).WithField("ticker", ticker).Warn("Realized gain lookup failed, treating as zero")
			realized = decimal.Zero
		}

		row := TickerReturn{
			Ticker:         ticker,
			Quantity:       decimal.Zero,
			Value:          decimal.Zero,
			Cost:           decimal.Zero,
			UnrealizedGain: decimal.Zero,
			RealizedGain:   realized,
		}

		if snapshot != nil && !snapshot.Quantity.IsZero() {
			row.Quantity = snapshot.Quantity
			row.Cost = snapshot.CostBasis.Mul(snapshot.Quantity)
			if price, ok := s.prices.GetPrice(ctx, ticker, asOf); ok {
				row.Value = price.Mul(snapshot.Quantity)
				row.UnrealizedGain = row.Value.Sub(row.Cost)
			} else {
				s.log.WithFields(logrus.Fields{
					"ticker": ticker,
					"date":   asOf,
				}).Warn("Missing price, unrealized gain unavailable")
			}
		} else if realized.IsZero() {
			// Never held by this date and nothing realized: no row
			continue
		}

		row.TotalReturn = row.UnrealizedGain.Add(row.RealizedGain)
		if !row.Cost.IsZero() {
			row.ReturnPct = row.TotalReturn.Div(row.Cost).Mul(decimal.NewFromInt(100))
		} else {
			row.ReturnPct = decimal.Zero
		}

		rows = append(rows, row)
	}

	return rows, nil
}
