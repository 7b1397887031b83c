package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ruiqi-w/portfolio-engine/internal/domain"
)

// rowScanner is the part of *sql.Row the scan callbacks need.
type rowScanner interface {
	Scan(dest ...any) error
}

// pointInTimeQuery describes one "most recent row at or before a date"
// lookup: a table, the columns to return, and an optional entity column
// (ticker) to filter by. The same primitive backs the holdings, cash and
// realized-gain access patterns instead of per-table query duplication.
type pointInTimeQuery struct {
	table        string
	columns      string
	entityColumn string // empty for tables without an entity key (cash)
}

// latestAtOrBefore runs a pointInTimeQuery and scans the single resulting
// row. Absence is returned as (nil, nil): nothing had happened by that date.
func latestAtOrBefore[T any](ctx context.Context, db *DB, q pointInTimeQuery, entity string, on domain.Date, scan func(rowScanner) (*T, error)) (*T, error) {
	var (
		query string
		args  []any
	)
	if q.entityColumn != "" {
		query = fmt.Sprintf(
			"SELECT %s FROM %s WHERE %s = $1 AND date <= $2 ORDER BY date DESC LIMIT 1",
			q.columns, q.table, q.entityColumn,
		)
		args = []any{entity, on}
	} else {
		query = fmt.Sprintf(
			"SELECT %s FROM %s WHERE date <= $1 ORDER BY date DESC LIMIT 1",
			q.columns, q.table,
		)
		args = []any{on}
	}

	entityRow, err := scan(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("point-in-time lookup on %s failed: %w", q.table, err)
	}
	return entityRow, nil
}

// dateRange scans a MIN(date)/MAX(date) row. ok is false when the filtered
// table is empty.
func dateRange(row rowScanner) (first, last domain.Date, ok bool, err error) {
	var minDate, maxDate sql.NullString
	if err := row.Scan(&minDate, &maxDate); err != nil {
		return domain.Date{}, domain.Date{}, false, err
	}
	if !minDate.Valid || !maxDate.Valid {
		return domain.Date{}, domain.Date{}, false, nil
	}

	if err := first.Scan(minDate.String); err != nil {
		return domain.Date{}, domain.Date{}, false, err
	}
	if err := last.Scan(maxDate.String); err != nil {
		return domain.Date{}, domain.Date{}, false, err
	}
	return first, last, true, nil
}
