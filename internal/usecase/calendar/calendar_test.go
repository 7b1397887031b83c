package calendar

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/ruiqi-w/portfolio-engine/internal/domain"
)

func newOracle(exchange string) *Oracle {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return New(exchange, log)
}

func TestIsTradingDay(t *testing.T) {
	oracle := newOracle(ExchangeNYSE)

	cases := []struct {
		date string
		want bool
		name string
	}{
		{"2024-11-15", true, "regular Friday"},
		{"2024-11-16", false, "Saturday"},
		{"2024-11-17", false, "Sunday"},
		{"2024-01-01", false, "New Year's Day"},
		{"2024-01-15", false, "MLK Day (3rd Monday of January)"},
		{"2024-02-19", false, "Washington's Birthday"},
		{"2024-03-29", false, "Good Friday"},
		{"2024-03-28", true, "Maundy Thursday trades"},
		{"2024-05-27", false, "Memorial Day"},
		{"2024-06-19", false, "Juneteenth"},
		{"2024-07-04", false, "Independence Day"},
		{"2024-07-03", true, "day before Independence Day"},
		{"2024-09-02", false, "Labor Day"},
		{"2024-11-28", false, "Thanksgiving"},
		{"2024-12-25", false, "Christmas"},
		{"2024-12-24", true, "Christmas Eve trades (early close, still a session)"},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.want, oracle.IsTradingDay(domain.MustDate(tc.date)), "%s (%s)", tc.name, tc.date)
	}
}

func TestIsTradingDay_ObservedHolidays(t *testing.T) {
	oracle := newOracle(ExchangeNYSE)

	// 2023-01-01 fell on a Sunday, observed Monday 2023-01-02
	assert.False(t, oracle.IsTradingDay(domain.MustDate("2023-01-02")))

	// 2021-07-04 fell on a Sunday, observed Monday 2021-07-05
	assert.False(t, oracle.IsTradingDay(domain.MustDate("2021-07-05")))

	// 2021-12-25 fell on a Saturday, observed Friday 2021-12-24
	assert.False(t, oracle.IsTradingDay(domain.MustDate("2021-12-24")))

	// 2022-06-19 fell on a Sunday, observed Monday 2022-06-20
	assert.False(t, oracle.IsTradingDay(domain.MustDate("2022-06-20")))
}

func TestIsTradingDay_JuneteenthNotObservedBefore2022(t *testing.T) {
	oracle := newOracle(ExchangeNYSE)

	// The NYSE first closed for Juneteenth in 2022
	assert.True(t, oracle.IsTradingDay(domain.MustDate("2021-06-18")))
}

func TestIsTradingDay_UnknownExchange(t *testing.T) {
	oracle := newOracle("LSE")

	// No schedule: conservative answer is "not a trading day"
	assert.False(t, oracle.IsTradingDay(domain.MustDate("2024-11-15")))
}

func TestEasterSunday(t *testing.T) {
	assert.Equal(t, domain.MustDate("2024-03-31"), easterSunday(2024))
	assert.Equal(t, domain.MustDate("2025-04-20"), easterSunday(2025))
	assert.Equal(t, domain.MustDate("2016-03-27"), easterSunday(2016))
}
