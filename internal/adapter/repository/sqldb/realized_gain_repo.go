package sqldb

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ruiqi-w/portfolio-engine/internal/domain"
)

// RealizedGainRepository implements domain.RealizedGainRepository over the
// append-only realized_gains event log.
type RealizedGainRepository struct {
	db *DB
}

// NewRealizedGainRepository creates a new realized-gain repository.
func NewRealizedGainRepository(db *DB) *RealizedGainRepository {
	return &RealizedGainRepository{db: db}
}

// CumulativeGain sums the gain of every event for the ticker with
// date <= through. Gains accumulate rather than supersede, so this is a sum,
// not a latest-row lookup. A ticker with no events yields zero.
func (r *RealizedGainRepository) CumulativeGain(ctx context.Context, ticker string, through domain.Date) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(gain), 0)
		FROM realized_gains
		WHERE ticker = $1 AND date <= $2
	`

	var sumStr string
	if err := r.db.QueryRowContext(ctx, query, ticker, through).Scan(&sumStr); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum realized gains for %s: %w", ticker, err)
	}

	sum, err := decimal.NewFromString(sumStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse realized gain sum: %w", err)
	}

	return sum, nil
}

// Insert appends a realized-gain event row.
func (r *RealizedGainRepository) Insert(ctx context.Context, event *domain.RealizedGainEvent) error {
	query := `
		INSERT INTO realized_gains (id, ticker, date, gain)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Ticker,
		event.Date,
		event.Gain.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert realized gain for %s on %s: %w", event.Ticker, event.Date, err)
	}

	return nil
}
