// Package calendar answers whether a calendar date was a regular trading day
// on an exchange. The schedule is derived per calendar year and cached, so
// repeated lookups against the same year never rebuild it.
package calendar

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ruiqi-w/portfolio-engine/internal/domain"
)

// ExchangeNYSE is the only exchange with a built-in schedule.
const ExchangeNYSE = "NYSE"

// Oracle implements domain.TradingCalendar for one configured exchange.
type Oracle struct {
	exchange string
	log      *logrus.Logger

	mu       sync.Mutex
	holidays map[int]map[domain.Date]struct{}
}

// New creates an Oracle for the given exchange identifier.
func New(exchange string, log *logrus.Logger) *Oracle {
	return &Oracle{
		exchange: exchange,
		log:      log,
		holidays: make(map[int]map[domain.Date]struct{}),
	}
}

// IsTradingDay reports whether the exchange conducted regular trading on the
// given date. Any failure to resolve a schedule answers false: callers treat
// "not a trading day" as the conservative branch, so a price gets attributed
// to the requested date rather than rolled forward.
func (o *Oracle) IsTradingDay(on domain.Date) bool {
	if o.exchange != ExchangeNYSE {
		o.log.WithField("exchange", o.exchange).
			Warn("No trading schedule for exchange, treating date as non-trading day")
		return false
	}

	switch on.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	_, holiday := o.holidaysFor(on.Year())[on]
	return !holiday
}

func (o *Oracle) holidaysFor(year int) map[domain.Date]struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()

	if set, ok := o.holidays[year]; ok {
		return set
	}
	set := nyseHolidays(year)
	o.holidays[year] = set
	return set
}

// nyseHolidays derives the NYSE full-closure days for one calendar year.
func nyseHolidays(year int) map[domain.Date]struct{} {
	set := make(map[domain.Date]struct{})
	add := func(d domain.Date, ok bool) {
		if ok {
			set[d] = struct{}{}
		}
	}

	add(observed(domain.NewDate(year, time.January, 1)))
	add(nthWeekday(year, time.January, time.Monday, 3), true)   // Martin Luther King Jr. Day
	add(nthWeekday(year, time.February, time.Monday, 3), true)  // Washington's Birthday
	add(easterSunday(year).AddDays(-2), true)                   // Good Friday
	add(lastWeekday(year, time.May, time.Monday), true)         // Memorial Day
	if year >= 2022 {                                           // Juneteenth, observed since 2022
		add(observed(domain.NewDate(year, time.June, 19)))
	}
	add(observed(domain.NewDate(year, time.July, 4)))           // Independence Day
	add(nthWeekday(year, time.September, time.Monday, 1), true) // Labor Day
	add(nthWeekday(year, time.November, time.Thursday, 4), true) // Thanksgiving
	add(observed(domain.NewDate(year, time.December, 25)))      // Christmas

	return set
}

// observed applies the weekend observance shift: Saturday holidays move to
// the preceding Friday, Sunday holidays to the following Monday. ok is false
// when the shift leaves the holiday's own calendar year, since each year's
// set is built independently.
func observed(d domain.Date) (domain.Date, bool) {
	year := d.Year()
	switch d.Weekday() {
	case time.Saturday:
		d = d.AddDays(-1)
	case time.Sunday:
		d = d.AddDays(1)
	}
	return d, d.Year() == year
}

// nthWeekday returns the n-th given weekday of the month (n starting at 1).
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) domain.Date {
	d := domain.NewDate(year, month, 1)
	offset := (int(weekday) - int(d.Weekday()) + 7) % 7
	return d.AddDays(offset + (n-1)*7)
}

// lastWeekday returns the last given weekday of the month.
func lastWeekday(year int, month time.Month, weekday time.Weekday) domain.Date {
	d := domain.NewDate(year, month+1, 1).AddDays(-1) // last day of month
	offset := (int(d.Weekday()) - int(weekday) + 7) % 7
	return d.AddDays(-offset)
}

// easterSunday computes Gregorian Easter with the anonymous computus.
func easterSunday(year int) domain.Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return domain.NewDate(year, time.Month(month), day)
}
