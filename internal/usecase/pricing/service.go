// Package pricing implements the durable per-ticker price cache: the
// (ticker, date) -> last-known-close map backing every valuation.
//
// The cache is a permanent store, not a TTL cache, so the attribution rule
// decides carefully which date a fetched close is pinned under: a date that
// has fully settled gets its close stored forever, a date that is still live
// is served but never persisted.
package pricing

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ruiqi-w/portfolio-engine/internal/domain"
)

// The provider window is 7 days back through 1 day forward of the requested
// date, half-open on the end. Wide enough to cover long weekends and
// holidays, narrow enough to keep responses small.
const fetchWindowDays = 7

const retryBaseDelay = 500 * time.Millisecond

// Config holds the static classification and fetch-behavior inputs.
type Config struct {
	// CryptoTickers partitions the universe into calendar-free
	// (continuously traded) and calendar-bound assets.
	CryptoTickers []string

	// Location is the reference time zone defining "today" for the crypto
	// settlement rule.
	Location *time.Location

	// MaxRetries bounds additional attempts after a failed provider call.
	MaxRetries uint64

	// FetchConcurrency bounds parallel provider fetches during warm-up.
	FetchConcurrency int

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Service implements the price cache over a PriceRepository and an external
// MarketDataProvider.
type Service struct {
	prices   domain.PriceRepository
	provider domain.MarketDataProvider
	calendar domain.TradingCalendar
	crypto   map[string]struct{}
	loc      *time.Location
	now      func() time.Time
	log      *logrus.Logger

	maxRetries  uint64
	concurrency int

	// group coalesces concurrent fetches for the same (ticker, date) key so
	// the read-modify-write against the cache never races with itself.
	group singleflight.Group
}

// NewService creates a new price cache service.
func NewService(
	prices domain.PriceRepository,
	provider domain.MarketDataProvider,
	calendar domain.TradingCalendar,
	cfg Config,
	log *logrus.Logger,
) *Service {
	crypto := make(map[string]struct{}, len(cfg.CryptoTickers))
	for _, ticker := range cfg.CryptoTickers {
		crypto[ticker] = struct{}{}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	concurrency := cfg.FetchConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Service{
		prices:      prices,
		provider:    provider,
		calendar:    calendar,
		crypto:      crypto,
		loc:         loc,
		now:         now,
		log:         log,
		maxRetries:  cfg.MaxRetries,
		concurrency: concurrency,
	}
}

// IsCrypto reports whether the ticker is classified as continuously traded.
func (s *Service) IsCrypto(ticker string) bool {
	_, ok := s.crypto[ticker]
	return ok
}

// Today returns the current date in the configured reference time zone.
func (s *Service) Today() domain.Date {
	return domain.DateOf(s.now().In(s.loc))
}

// GetPrice returns the price of the ticker as of the given date.
//
// A cached row is returned without any external call, so repeated calls for
// the same key never re-fetch. On a miss, a trailing window is fetched from
// the provider, the freshest in-window close is attributed to a date per the
// attribution rule, and exactly one row is persisted. A true miss (no
// observations) is not cached, so a later retry can succeed once the
// provider catches up. Every failure is logged and surfaced as absent,
// never as an error.
func (s *Service) GetPrice(ctx context.Context, ticker string, on domain.Date) (decimal.Decimal, bool) {
	if point, err := s.prices.GetAt(ctx, ticker, on); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"ticker": ticker,
			"date":   on,
		}).Warn("Price cache read failed, attempting fetch")
	} else if point != nil {
		return point.Price, true
	}

	key := ticker + "|" + on.String()
	v, _, _ := s.group.Do(key, func() (any, error) {
		// Re-check under the flight: a coalesced caller may have just
		// persisted this key.
		if point, err := s.prices.GetAt(ctx, ticker, on); err == nil && point != nil {
			return fetchResult{price: point.Price, ok: true}, nil
		}
		return s.fetchAndStore(ctx, ticker, on), nil
	})

	result := v.(fetchResult)
	return result.price, result.ok
}

// GetLatestPrice returns the ticker's price for today in the reference time
// zone, short-circuited by the cache when already warmed.
func (s *Service) GetLatestPrice(ctx context.Context, ticker string) (decimal.Decimal, bool) {
	return s.GetPrice(ctx, ticker, s.Today())
}

// WarmPrices fetches and caches prices for every (ticker, date) pair with
// bounded parallelism. Fetch failures are absorbed as absent prices, so
// warming never fails a caller.
func (s *Service) WarmPrices(ctx context.Context, tickers []string, dates []domain.Date) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, ticker := range tickers {
		for _, on := range dates {
			ticker, on := ticker, on
			g.Go(func() error {
				s.GetPrice(ctx, ticker, on)
				return nil
			})
		}
	}
	_ = g.Wait()
}

type fetchResult struct {
	price decimal.Decimal
	ok    bool
}

// fetchAndStore requests the trailing provider window for the requested
// date, applies the attribution rule to the freshest in-window close, and
// persists at most one row.
func (s *Service) fetchAndStore(ctx context.Context, ticker string, on domain.Date) fetchResult {
	fields := logrus.Fields{"ticker": ticker, "date": on}
	s.log.WithFields(fields).Debug("Fetching price from provider")

	start := on.AddDays(-fetchWindowDays)
	end := on.AddDays(1)

	var candles []domain.Candle
	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(retryBaseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		candles, err = s.provider.History(ctx, ticker, start, end)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		s.log.WithError(err).WithFields(fields).Warn("Price fetch failed, treating as absent")
		return fetchResult{}
	}
	if len(candles) == 0 {
		s.log.WithFields(fields).Info("No price data found in window")
		return fetchResult{}
	}

	// The freshest close in the window
	last := candles[len(candles)-1]

	if s.IsCrypto(ticker) {
		return s.storeCrypto(ctx, ticker, on, last, fields)
	}
	return s.storeEquity(ctx, ticker, on, last, fields)
}

// storeCrypto applies the calendar-free rule: a continuously traded asset
// has no settled close until the day is over, so the price is persisted only
// once today is strictly past the requested date.
func (s *Service) storeCrypto(ctx context.Context, ticker string, on domain.Date, last domain.Candle, fields logrus.Fields) fetchResult {
	if !s.Today().After(on) {
		s.log.WithFields(fields).Debug("Requested date not fully elapsed, returning price without caching")
		return fetchResult{price: last.Close, ok: true}
	}

	point := &domain.PricePoint{Ticker: ticker, Date: on, Price: last.Close}
	if err := s.prices.Upsert(ctx, point); err != nil {
		s.log.WithError(err).WithFields(fields).Warn("Price cache write failed")
		return fetchResult{}
	}
	s.log.WithFields(fields).WithField("price", last.Close).Debug("Stored crypto price at requested date")
	return fetchResult{price: last.Close, ok: true}
}

// storeEquity applies the calendar-bound rule. On a closed day (weekend,
// holiday) the last valid close is the correct value for the requested date
// itself. On an open trading day the true close is only knowable after the
// session, so the freshest close is attributed to its own trading date,
// which may lag the requested date.
func (s *Service) storeEquity(ctx context.Context, ticker string, on domain.Date, last domain.Candle, fields logrus.Fields) fetchResult {
	storeDate := on
	if s.calendar.IsTradingDay(on) {
		storeDate = last.Date
	}

	point := &domain.PricePoint{Ticker: ticker, Date: storeDate, Price: last.Close}
	if err := s.prices.Upsert(ctx, point); err != nil {
		s.log.WithError(err).WithFields(fields).Warn("Price cache write failed")
		return fetchResult{}
	}
	s.log.WithFields(fields).WithFields(logrus.Fields{
		"stored_date": storeDate,
		"price":       last.Close,
	}).Debug("Stored equity price")
	return fetchResult{price: last.Close, ok: true}
}
