package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruiqi-w/portfolio-engine/internal/config"
	"github.com/ruiqi-w/portfolio-engine/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return NewClient(config.ProviderConfig{BaseURL: server.URL, TimeoutSeconds: 5}, log)
}

func unixAtNoonUTC(date string) int64 {
	d := domain.MustDate(date)
	return d.Time().Add(12 * time.Hour).Unix()
}

func TestHistory(t *testing.T) {
	ctx := context.Background()

	payload := fmt.Sprintf(`{
		"chart": {
			"result": [{
				"meta": {"symbol": "VOO", "exchangeTimezoneName": "UTC"},
				"timestamp": [%d, %d, %d, %d],
				"indicators": {"quote": [{"close": [549.25, null, 551.0, 560.0]}]}
			}],
			"error": null
		}
	}`,
		unixAtNoonUTC("2024-11-13"),
		unixAtNoonUTC("2024-11-14"), // null close, dropped
		unixAtNoonUTC("2024-11-15"),
		unixAtNoonUTC("2024-11-16"), // outside [start, end), dropped
	)

	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.NotEmpty(t, r.URL.Query().Get("period1"))
		assert.NotEmpty(t, r.URL.Query().Get("period2"))
		fmt.Fprint(w, payload)
	})

	candles, err := client.History(ctx, "VOO", domain.MustDate("2024-11-08"), domain.MustDate("2024-11-16"))
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/VOO", gotPath)

	require.Len(t, candles, 2)
	assert.Equal(t, domain.MustDate("2024-11-13"), candles[0].Date)
	assert.True(t, candles[0].Close.Equal(decimal.RequireFromString("549.25")))
	assert.Equal(t, domain.MustDate("2024-11-15"), candles[1].Date)
	assert.True(t, candles[1].Close.Equal(decimal.RequireFromString("551")))
}

func TestHistory_ProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}}}`)
	})

	_, err := client.History(context.Background(), "NOPE", domain.MustDate("2024-11-08"), domain.MustDate("2024-11-16"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}

func TestHistory_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})

	_, err := client.History(context.Background(), "VOO", domain.MustDate("2024-11-08"), domain.MustDate("2024-11-16"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestHistory_EmptyResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart": {"result": [], "error": null}}`)
	})

	candles, err := client.History(context.Background(), "VOO", domain.MustDate("2024-11-08"), domain.MustDate("2024-11-16"))
	require.NoError(t, err)
	assert.Empty(t, candles)
}

func TestHistory_MalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	})

	_, err := client.History(context.Background(), "VOO", domain.MustDate("2024-11-08"), domain.MustDate("2024-11-16"))
	assert.Error(t, err)
}
