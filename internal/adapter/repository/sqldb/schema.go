package sqldb

import "context"

// The DDL sticks to TEXT and NUMERIC so the same statements run on both
// postgres and sqlite. Dates are ISO-8601 TEXT, so lexicographic order is
// chronological order.
const schema = `
CREATE TABLE IF NOT EXISTS daily_prices (
	date   TEXT    NOT NULL,
	ticker TEXT    NOT NULL,
	price  NUMERIC NOT NULL,
	PRIMARY KEY (date, ticker)
);
CREATE TABLE IF NOT EXISTS holdings (
	id         TEXT    PRIMARY KEY,
	ticker     TEXT    NOT NULL,
	date       TEXT    NOT NULL,
	quantity   NUMERIC NOT NULL,
	cost_basis NUMERIC NOT NULL
);
CREATE TABLE IF NOT EXISTS daily_cash (
	id      TEXT    PRIMARY KEY,
	date    TEXT    NOT NULL,
	balance NUMERIC NOT NULL
);
CREATE TABLE IF NOT EXISTS realized_gains (
	id     TEXT    PRIMARY KEY,
	ticker TEXT    NOT NULL,
	date   TEXT    NOT NULL,
	gain   NUMERIC NOT NULL
);
`

// Migrate creates the engine tables if they do not exist yet. Safe to run on
// every startup.
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
