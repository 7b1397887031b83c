package sqldb

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ruiqi-w/portfolio-engine/internal/domain"
)

// HoldingRepository implements domain.HoldingRepository over the append-only
// holdings snapshot table. Valuation only reads it; Insert exists for the
// demo seeder and the ingestion path.
type HoldingRepository struct {
	db *DB
}

// NewHoldingRepository creates a new holding repository.
func NewHoldingRepository(db *DB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

var holdingQuery = pointInTimeQuery{
	table:        "holdings",
	columns:      "id, ticker, date, quantity, cost_basis",
	entityColumn: "ticker",
}

func scanHolding(row rowScanner) (*domain.HoldingSnapshot, error) {
	var (
		snapshot     domain.HoldingSnapshot
		quantityStr  string
		costBasisStr string
	)
	if err := row.Scan(&snapshot.ID, &snapshot.Ticker, &snapshot.Date, &quantityStr, &costBasisStr); err != nil {
		return nil, err
	}

	quantity, err := decimal.NewFromString(quantityStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quantity: %w", err)
	}
	costBasis, err := decimal.NewFromString(costBasisStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cost_basis: %w", err)
	}
	snapshot.Quantity = quantity
	snapshot.CostBasis = costBasis

	return &snapshot, nil
}

// LatestAtOrBefore retrieves the most recent holding snapshot for the ticker
// with date <= on, or (nil, nil) when the ticker had no holdings by then.
func (r *HoldingRepository) LatestAtOrBefore(ctx context.Context, ticker string, on domain.Date) (*domain.HoldingSnapshot, error) {
	return latestAtOrBefore(ctx, r.db, holdingQuery, ticker, on, scanHolding)
}

// DistinctTickers returns every ticker that ever appears in the holdings
// table, ordered for deterministic iteration.
func (r *HoldingRepository) DistinctTickers(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT ticker FROM holdings ORDER BY ticker`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, ticker)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickers: %w", err)
	}

	return tickers, nil
}

// DateRange returns the first and last snapshot dates across all tickers.
func (r *HoldingRepository) DateRange(ctx context.Context) (domain.Date, domain.Date, bool, error) {
	query := `SELECT MIN(date), MAX(date) FROM holdings`

	first, last, ok, err := dateRange(r.db.QueryRowContext(ctx, query))
	if err != nil {
		return domain.Date{}, domain.Date{}, false, fmt.Errorf("failed to get holdings date range: %w", err)
	}
	return first, last, ok, nil
}

// TickerDateRange returns the first and last snapshot dates for one ticker.
func (r *HoldingRepository) TickerDateRange(ctx context.Context, ticker string) (domain.Date, domain.Date, bool, error) {
	query := `SELECT MIN(date), MAX(date) FROM holdings WHERE ticker = $1`

	first, last, ok, err := dateRange(r.db.QueryRowContext(ctx, query, ticker))
	if err != nil {
		return domain.Date{}, domain.Date{}, false, fmt.Errorf("failed to get date range for %s: %w", ticker, err)
	}
	return first, last, ok, nil
}

// Insert appends a holding snapshot row.
func (r *HoldingRepository) Insert(ctx context.Context, snapshot *domain.HoldingSnapshot) error {
	query := `
		INSERT INTO holdings (id, ticker, date, quantity, cost_basis)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		snapshot.ID,
		snapshot.Ticker,
		snapshot.Date,
		snapshot.Quantity.String(),
		snapshot.CostBasis.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert holding for %s on %s: %w", snapshot.Ticker, snapshot.Date, err)
	}

	return nil
}
