package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ruiqi-w/portfolio-engine/internal/domain"
)

// PriceRepository implements domain.PriceRepository over the daily_prices
// table, keyed (date, ticker) with upsert semantics.
type PriceRepository struct {
	db *DB
}

// NewPriceRepository creates a new price repository.
func NewPriceRepository(db *DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// GetAt retrieves the cached price exactly at (ticker, date).
func (r *PriceRepository) GetAt(ctx context.Context, ticker string, on domain.Date) (*domain.PricePoint, error) {
	query := `
		SELECT date, ticker, price
		FROM daily_prices
		WHERE ticker = $1 AND date = $2
	`

	var (
		point    domain.PricePoint
		priceStr string
	)
	err := r.db.QueryRowContext(ctx, query, ticker, on).Scan(
		&point.Date,
		&point.Ticker,
		&priceStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Cache miss, not an error
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get price for %s on %s: %w", ticker, on, err)
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}
	point.Price = price

	return &point, nil
}

// Upsert writes a price point, replacing any existing row for the same
// (date, ticker) key.
func (r *PriceRepository) Upsert(ctx context.Context, point *domain.PricePoint) error {
	query := `
		INSERT INTO daily_prices (date, ticker, price)
		VALUES ($1, $2, $3)
		ON CONFLICT (date, ticker) DO UPDATE SET price = excluded.price
	`

	_, err := r.db.ExecContext(ctx, query,
		point.Date,
		point.Ticker,
		point.Price.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert price for %s on %s: %w", point.Ticker, point.Date, err)
	}

	return nil
}
