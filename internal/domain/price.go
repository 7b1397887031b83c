package domain

import (
	"github.com/shopspring/decimal"
)

// PricePoint represents one cached closing price in the domain layer.
// At most one row exists per (ticker, date) at any time: a later write for
// the same key replaces the earlier one. Rows are created only by the price
// cache, never by ingestion.
type PricePoint struct {
	Ticker string
	Date   Date
	Price  decimal.Decimal
}

// Candle is one daily observation returned by the external market-data
// provider: the closing price attributed by the provider to a trading date.
type Candle struct {
	Date  Date
	Close decimal.Decimal
}
