package sqldb

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ruiqi-w/portfolio-engine/internal/domain"
)

// CashRepository implements domain.CashRepository over the append-only
// daily_cash table.
type CashRepository struct {
	db *DB
}

// NewCashRepository creates a new cash repository.
func NewCashRepository(db *DB) *CashRepository {
	return &CashRepository{db: db}
}

var cashQuery = pointInTimeQuery{
	table:   "daily_cash",
	columns: "id, date, balance",
}

func scanCash(row rowScanner) (*domain.CashSnapshot, error) {
	var (
		snapshot   domain.CashSnapshot
		balanceStr string
	)
	if err := row.Scan(&snapshot.ID, &snapshot.Date, &balanceStr); err != nil {
		return nil, err
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}
	snapshot.Balance = balance

	return &snapshot, nil
}

// LatestAtOrBefore retrieves the most recent cash snapshot with date <= on,
// or (nil, nil) when no cash had been recorded by then.
func (r *CashRepository) LatestAtOrBefore(ctx context.Context, on domain.Date) (*domain.CashSnapshot, error) {
	return latestAtOrBefore(ctx, r.db, cashQuery, "", on, scanCash)
}

// Insert appends a cash snapshot row.
func (r *CashRepository) Insert(ctx context.Context, snapshot *domain.CashSnapshot) error {
	query := `
		INSERT INTO daily_cash (id, date, balance)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.ExecContext(ctx, query,
		snapshot.ID,
		snapshot.Date,
		snapshot.Balance.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert cash snapshot on %s: %w", snapshot.Date, err)
	}

	return nil
}
