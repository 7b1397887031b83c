// Package seeder loads a small demo portfolio into an empty database, so a
// fresh sqlite setup produces meaningful series on the first run.
package seeder

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ruiqi-w/portfolio-engine/internal/domain"
)

// Fixed UUIDs so re-running the seeder against a seeded database conflicts
// instead of duplicating rows.
var (
	seedHoldingVOO1 = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	seedHoldingVOO2 = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	seedHoldingBTC  = uuid.MustParse("00000000-0000-0000-0000-000000000003")
	seedCash1       = uuid.MustParse("00000000-0000-0000-0000-000000000011")
	seedCash2       = uuid.MustParse("00000000-0000-0000-0000-000000000012")
	seedGainVOO     = uuid.MustParse("00000000-0000-0000-0000-000000000021")
)

// HoldingStore is the holdings surface the seeder needs.
type HoldingStore interface {
	DistinctTickers(ctx context.Context) ([]string, error)
	Insert(ctx context.Context, snapshot *domain.HoldingSnapshot) error
}

// CashStore is the cash surface the seeder needs.
type CashStore interface {
	Insert(ctx context.Context, snapshot *domain.CashSnapshot) error
}

// GainStore is the realized-gain surface the seeder needs.
type GainStore interface {
	Insert(ctx context.Context, event *domain.RealizedGainEvent) error
}

// Seeder writes the demo portfolio.
type Seeder struct {
	holdings HoldingStore
	cash     CashStore
	gains    GainStore
}

// NewSeeder creates a new demo-portfolio seeder.
func NewSeeder(holdings HoldingStore, cash CashStore, gains GainStore) *Seeder {
	return &Seeder{
		holdings: holdings,
		cash:     cash,
		gains:    gains,
	}
}

// Seed inserts the demo snapshots. A database that already has any holdings
// is left untouched.
func (s *Seeder) Seed(ctx context.Context) error {
	tickers, err := s.holdings.DistinctTickers(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for existing holdings: %w", err)
	}
	if len(tickers) > 0 {
		return nil
	}

	holdings := []*domain.HoldingSnapshot{
		{
			ID:        seedHoldingVOO1,
			Ticker:    "VOO",
			Date:      domain.MustDate("2024-01-02"),
			Quantity:  decimal.NewFromInt(10),
			CostBasis: decimal.RequireFromString("435.50"),
		},
		{
			ID:        seedHoldingVOO2,
			Ticker:    "VOO",
			Date:      domain.MustDate("2024-06-03"),
			Quantity:  decimal.NewFromInt(16),
			CostBasis: decimal.RequireFromString("458.20"),
		},
		{
			ID:        seedHoldingBTC,
			Ticker:    "BTC-USD",
			Date:      domain.MustDate("2024-03-01"),
			Quantity:  decimal.RequireFromString("0.25"),
			CostBasis: decimal.RequireFromString("62000"),
		},
	}
	for _, snapshot := range holdings {
		if err := s.holdings.Insert(ctx, snapshot); err != nil {
			return err
		}
	}

	cash := []*domain.CashSnapshot{
		{ID: seedCash1, Date: domain.MustDate("2024-01-02"), Balance: decimal.NewFromInt(5000)},
		{ID: seedCash2, Date: domain.MustDate("2024-06-03"), Balance: decimal.NewFromInt(2500)},
	}
	for _, snapshot := range cash {
		if err := s.cash.Insert(ctx, snapshot); err != nil {
			return err
		}
	}

	gain := &domain.RealizedGainEvent{
		ID:     seedGainVOO,
		Ticker: "VOO",
		Date:   domain.MustDate("2024-05-20"),
		Gain:   decimal.RequireFromString("182.40"),
	}
	return s.gains.Insert(ctx, gain)
}
