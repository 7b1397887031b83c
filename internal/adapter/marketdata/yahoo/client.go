package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ruiqi-w/portfolio-engine/internal/config"
	"github.com/ruiqi-w/portfolio-engine/internal/domain"
)

// Daily closes carry at most this many meaningful decimal places.
const closePrecision = 8

// Client fetches daily close history from the Yahoo Finance chart API.
// It implements domain.MarketDataProvider.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Logger
}

// NewClient creates a new Yahoo Finance client.
func NewClient(cfg config.ProviderConfig, log *logrus.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		log:        log,
	}
}

// History returns daily closes for the ticker covering [start, end), ordered
// by date. Candle dates are resolved in the exchange's own time zone, the
// same way the provider attributes a close to its trading day.
func (c *Client) History(ctx context.Context, ticker string, start, end domain.Date) ([]domain.Candle, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(ticker))

	params := url.Values{}
	params.Add("period1", fmt.Sprintf("%d", start.Time().Unix()))
	params.Add("period2", fmt.Sprintf("%d", end.Time().Unix()))
	params.Add("interval", "1d")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build history request: %w", err)
	}
	// The chart API rejects requests without a browser-like agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; portfolio-engine)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history request for %s failed: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("history request for %s returned status %d: %s", ticker, resp.StatusCode, body)
	}

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read history response: %w", err)
	}

	var chart chartResponse
	if err := json.Unmarshal(responseBody, &chart); err != nil {
		return nil, fmt.Errorf("failed to parse history response: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("provider error for %s: %s (%s)",
			ticker, chart.Chart.Error.Description, chart.Chart.Error.Code)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, nil
	}

	return c.candles(ticker, chart.Chart.Result[0], start, end), nil
}

// candles converts one chart result into dated closes, dropping null
// observations and anything the provider returned outside [start, end).
func (c *Client) candles(ticker string, result chartResult, start, end domain.Date) []domain.Candle {
	loc := c.exchangeLocation(ticker, result.Meta.ExchangeTimezoneName)

	var closes []*float64
	if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}

	var candles []domain.Candle
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		on := domain.DateOf(time.Unix(ts, 0).In(loc))
		if on.Before(start) || !on.Before(end) {
			continue
		}
		candles = append(candles, domain.Candle{
			Date:  on,
			Close: decimal.NewFromFloat(*closes[i]).Round(closePrecision),
		})
	}

	sort.Slice(candles, func(i, j int) bool { return candles[i].Date.Before(candles[j].Date) })
	return candles
}

func (c *Client) exchangeLocation(ticker, name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"ticker":   ticker,
			"timezone": name,
		}).Warn("Unknown exchange timezone, falling back to UTC")
		return time.UTC
	}
	return loc
}
