package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// PriceRepository defines the interface for the durable price cache store.
// It is the only mutable store owned by this engine.
type PriceRepository interface {
	// GetAt retrieves the cached price exactly at (ticker, date).
	// Returns (nil, nil) when no row exists: absence is a cache miss,
	// not an error.
	GetAt(ctx context.Context, ticker string, on Date) (*PricePoint, error)

	// Upsert writes a price point, replacing any existing row for the same
	// (ticker, date) key. Atomic per key.
	Upsert(ctx context.Context, point *PricePoint) error
}

// HoldingRepository defines the read-only interface over the append-only
// holdings snapshot table.
type HoldingRepository interface {
	// LatestAtOrBefore retrieves the most recent holding snapshot for the
	// ticker with snapshot date <= on. Returns (nil, nil) when nothing had
	// happened by that date.
	LatestAtOrBefore(ctx context.Context, ticker string, on Date) (*HoldingSnapshot, error)

	// DistinctTickers returns every ticker that ever appears in the holdings
	// table, the universe of assets considered in valuation.
	DistinctTickers(ctx context.Context) ([]string, error)

	// DateRange returns the first and last observed snapshot dates across
	// all tickers. ok is false when the table is empty.
	DateRange(ctx context.Context) (first, last Date, ok bool, err error)

	// TickerDateRange returns the first and last observed snapshot dates for
	// one ticker. ok is false when the ticker has no snapshots.
	TickerDateRange(ctx context.Context, ticker string) (first, last Date, ok bool, err error)
}

// CashRepository defines the read-only interface over the append-only cash
// balance table.
type CashRepository interface {
	// LatestAtOrBefore retrieves the most recent cash snapshot with
	// date <= on, or (nil, nil) when none exists.
	LatestAtOrBefore(ctx context.Context, on Date) (*CashSnapshot, error)
}

// RealizedGainRepository defines the read-only interface over the append-only
// realized-gain event log.
type RealizedGainRepository interface {
	// CumulativeGain sums the gain of every event for the ticker with
	// date <= through. A ticker with no events yields zero.
	CumulativeGain(ctx context.Context, ticker string, through Date) (decimal.Decimal, error)
}

// MarketDataProvider is the external price source. It is treated as
// unreliable: it may return an empty history, fail, or lag real time by its
// own settlement delay.
type MarketDataProvider interface {
	// History returns daily closes for the ticker ordered by date, covering
	// the half-open range [start, end) per the provider convention.
	History(ctx context.Context, ticker string, start, end Date) ([]Candle, error)
}

// TradingCalendar answers whether a date was a regular trading day on the
// configured exchange. Implementations treat any schedule failure as "not a
// trading day", which is the conservative branch for price attribution.
type TradingCalendar interface {
	IsTradingDay(on Date) bool
}
