package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// DateFormat is the ISO-8601 layout used to represent dates as strings,
// both in logs and in the database. Lexicographic order of formatted dates
// equals chronological order, which the point-in-time queries rely on.
const DateFormat = "2006-01-02"

// Date represents a calendar date with day-level granularity and no time zone.
// Prices, holdings, cash balances and realized gains are all keyed by Date.
type Date struct {
	y int
	m time.Month
	d int
}

// NewDate returns a normalized Date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// DateOf returns the calendar date of the given instant, in the instant's
// location. Callers decide the location (e.g. the configured reference zone)
// before converting.
func DateOf(t time.Time) Date {
	return NewDate(t.Date())
}

// ParseDate parses a "YYYY-MM-DD" string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (want %q): %w", s, DateFormat, err)
	}
	return DateOf(t), nil
}

// MustDate is like ParseDate but panics on error. Intended for tests and
// static configuration.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// time returns the canonical representation of the date: midnight UTC.
func (d Date) time() time.Time {
	return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC)
}

// Time returns the date as a time.Time at midnight UTC.
func (d Date) Time() time.Time { return d.time() }

// Year returns the calendar year.
func (d Date) Year() int { return d.y }

// Month returns the month of the date.
func (d Date) Month() time.Month { return d.m }

// Day returns the day of the month.
func (d Date) Day() int { return d.d }

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday { return d.time().Weekday() }

// AddDays returns a new Date the given number of days later (or earlier when
// negative).
func (d Date) AddDays(n int) Date { return NewDate(d.y, d.m, d.d+n) }

// Before reports whether d is strictly before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether d is strictly after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// Equal reports whether d and x are the same calendar date.
func (d Date) Equal(x Date) bool { return d == x }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

// StartOfYear returns January 1 of the date's year.
func (d Date) StartOfYear() Date { return NewDate(d.y, time.January, 1) }

// String formats the date as "YYYY-MM-DD".
func (d Date) String() string { return d.time().Format(DateFormat) }

// Value implements driver.Valuer, storing the date as ISO-8601 TEXT.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner. It accepts TEXT dates and, for drivers that
// surface date columns as time.Time, the native form. Longer strings such as
// "2024-11-15 00:00:00" are truncated to the date part.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case string:
		if len(v) > len(DateFormat) {
			v = v[:len(DateFormat)]
		}
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	case time.Time:
		*d = DateOf(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}
