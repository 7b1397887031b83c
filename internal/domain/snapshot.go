package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HoldingSnapshot represents the state of one holding as observed on a date
// when it changed. The holdings table is append-only: one row per
// (ticker, date), written by the ingestion path and read-only to this engine.
type HoldingSnapshot struct {
	ID        uuid.UUID
	Ticker    string
	Date      Date
	Quantity  decimal.Decimal
	CostBasis decimal.Decimal // per-unit acquisition cost
}

// CashSnapshot represents the cash balance as of a date it changed.
// Append-only, read-only to this engine.
type CashSnapshot struct {
	ID      uuid.UUID
	Date    Date
	Balance decimal.Decimal
}

// RealizedGainEvent is one realized profit/loss event (e.g. from a sell).
// Gains accumulate rather than supersede, so consumers sum events up to a
// date instead of taking the latest row.
type RealizedGainEvent struct {
	ID     uuid.UUID
	Ticker string
	Date   Date
	Gain   decimal.Decimal
}
