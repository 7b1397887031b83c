package sqldb

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruiqi-w/portfolio-engine/internal/config"
	"github.com/ruiqi-w/portfolio-engine/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(config.DatabaseConfig{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(context.Background()))

	return db
}

func insertHolding(t *testing.T, db *DB, ticker, date, quantity, costBasis string) {
	t.Helper()
	err := NewHoldingRepository(db).Insert(context.Background(), &domain.HoldingSnapshot{
		ID:        uuid.New(),
		Ticker:    ticker,
		Date:      domain.MustDate(date),
		Quantity:  decimal.RequireFromString(quantity),
		CostBasis: decimal.RequireFromString(costBasis),
	})
	require.NoError(t, err)
}

func insertCash(t *testing.T, db *DB, date, balance string) {
	t.Helper()
	err := NewCashRepository(db).Insert(context.Background(), &domain.CashSnapshot{
		ID:      uuid.New(),
		Date:    domain.MustDate(date),
		Balance: decimal.RequireFromString(balance),
	})
	require.NoError(t, err)
}

func insertGain(t *testing.T, db *DB, ticker, date, gain string) {
	t.Helper()
	err := NewRealizedGainRepository(db).Insert(context.Background(), &domain.RealizedGainEvent{
		ID:     uuid.New(),
		Ticker: ticker,
		Date:   domain.MustDate(date),
		Gain:   decimal.RequireFromString(gain),
	})
	require.NoError(t, err)
}

func TestPriceRepository_GetAt_Miss(t *testing.T) {
	ctx := context.Background()
	repo := NewPriceRepository(newTestDB(t))

	point, err := repo.GetAt(ctx, "VOO", domain.MustDate("2024-11-15"))
	require.NoError(t, err)
	assert.Nil(t, point)
}

func TestPriceRepository_UpsertAndGetAt(t *testing.T) {
	ctx := context.Background()
	repo := NewPriceRepository(newTestDB(t))
	on := domain.MustDate("2024-11-15")

	err := repo.Upsert(ctx, &domain.PricePoint{
		Ticker: "VOO",
		Date:   on,
		Price:  decimal.RequireFromString("101.5"),
	})
	require.NoError(t, err)

	point, err := repo.GetAt(ctx, "VOO", on)
	require.NoError(t, err)
	require.NotNil(t, point)
	assert.Equal(t, "VOO", point.Ticker)
	assert.Equal(t, on, point.Date)
	assert.True(t, point.Price.Equal(decimal.RequireFromString("101.5")))
}

func TestPriceRepository_Upsert_ReplacesExistingRow(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewPriceRepository(db)
	on := domain.MustDate("2024-11-15")

	require.NoError(t, repo.Upsert(ctx, &domain.PricePoint{Ticker: "VOO", Date: on, Price: decimal.NewFromInt(100)}))
	require.NoError(t, repo.Upsert(ctx, &domain.PricePoint{Ticker: "VOO", Date: on, Price: decimal.NewFromInt(105)}))

	point, err := repo.GetAt(ctx, "VOO", on)
	require.NoError(t, err)
	require.NotNil(t, point)
	assert.True(t, point.Price.Equal(decimal.NewFromInt(105)))

	// Cache semantics, not history: exactly one row per key
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM daily_prices`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestHoldingRepository_LatestAtOrBefore(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewHoldingRepository(db)

	insertHolding(t, db, "VOO", "2024-01-01", "10", "5")
	insertHolding(t, db, "VOO", "2024-03-01", "20", "5.5")
	insertHolding(t, db, "QQQ", "2024-02-01", "3", "400")

	// Between the two snapshots: the January row applies
	snapshot, err := repo.LatestAtOrBefore(ctx, "VOO", domain.MustDate("2024-02-01"))
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, domain.MustDate("2024-01-01"), snapshot.Date)
	assert.True(t, snapshot.Quantity.Equal(decimal.NewFromInt(10)))

	// At or after the latest snapshot: the March row applies
	snapshot, err = repo.LatestAtOrBefore(ctx, "VOO", domain.MustDate("2024-06-01"))
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.True(t, snapshot.Quantity.Equal(decimal.NewFromInt(20)))

	// Before anything happened: zero value, not an error
	snapshot, err = repo.LatestAtOrBefore(ctx, "VOO", domain.MustDate("2023-12-01"))
	require.NoError(t, err)
	assert.Nil(t, snapshot)

	// Other tickers never bleed through the filter
	snapshot, err = repo.LatestAtOrBefore(ctx, "QQQ", domain.MustDate("2024-06-01"))
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.True(t, snapshot.Quantity.Equal(decimal.NewFromInt(3)))
}

func TestHoldingRepository_DistinctTickers(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewHoldingRepository(db)

	tickers, err := repo.DistinctTickers(ctx)
	require.NoError(t, err)
	assert.Empty(t, tickers)

	insertHolding(t, db, "VOO", "2024-01-01", "10", "5")
	insertHolding(t, db, "VOO", "2024-03-01", "20", "5.5")
	insertHolding(t, db, "BTC-USD", "2024-02-01", "0.5", "40000")

	tickers, err = repo.DistinctTickers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC-USD", "VOO"}, tickers)
}

func TestHoldingRepository_DateRanges(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewHoldingRepository(db)

	_, _, ok, err := repo.DateRange(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	insertHolding(t, db, "VOO", "2024-01-01", "10", "5")
	insertHolding(t, db, "VOO", "2024-03-01", "20", "5.5")
	insertHolding(t, db, "QQQ", "2024-02-01", "3", "400")

	first, last, ok, err := repo.DateRange(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.MustDate("2024-01-01"), first)
	assert.Equal(t, domain.MustDate("2024-03-01"), last)

	first, last, ok, err = repo.TickerDateRange(ctx, "QQQ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.MustDate("2024-02-01"), first)
	assert.Equal(t, domain.MustDate("2024-02-01"), last)

	_, _, ok, err = repo.TickerDateRange(ctx, "MISSING")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCashRepository_LatestAtOrBefore(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewCashRepository(db)

	snapshot, err := repo.LatestAtOrBefore(ctx, domain.MustDate("2024-01-01"))
	require.NoError(t, err)
	assert.Nil(t, snapshot)

	insertCash(t, db, "2024-01-10", "1000")
	insertCash(t, db, "2024-02-10", "1500")

	snapshot, err = repo.LatestAtOrBefore(ctx, domain.MustDate("2024-02-01"))
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, domain.MustDate("2024-01-10"), snapshot.Date)
	assert.True(t, snapshot.Balance.Equal(decimal.NewFromInt(1000)))

	snapshot, err = repo.LatestAtOrBefore(ctx, domain.MustDate("2024-03-01"))
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.True(t, snapshot.Balance.Equal(decimal.NewFromInt(1500)))
}

func TestRealizedGainRepository_CumulativeGain(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRealizedGainRepository(db)

	// No events at all: zero, not an error
	sum, err := repo.CumulativeGain(ctx, "VOO", domain.MustDate("2024-12-31"))
	require.NoError(t, err)
	assert.True(t, sum.IsZero())

	insertGain(t, db, "VOO", "2024-01-15", "50")
	insertGain(t, db, "VOO", "2024-03-15", "-20")
	insertGain(t, db, "VOO", "2024-06-15", "30")
	insertGain(t, db, "QQQ", "2024-02-15", "999")

	// Gains accumulate through the cutoff date
	sum, err = repo.CumulativeGain(ctx, "VOO", domain.MustDate("2024-04-01"))
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(30)), "got %s", sum)

	sum, err = repo.CumulativeGain(ctx, "VOO", domain.MustDate("2024-12-31"))
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(60)), "got %s", sum)
}
