package normalize

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/internal/jsondoc"
)

func marshal(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestNormalize_ValuesSeriesReversedAndTyped(t *testing.T) {
	raw := jsondoc.MustDecode(`{"meta": {"symbol": "AAPL"}, "values": [
		{"datetime":"2024-01-02","open":"10","high":"12","low":"9","close":"11","volume":"100"},
		{"datetime":"2024-01-01","open":"8","high":"9","low":"7","close":"8","volume":"50"}
	]}`)

	resp, err := New().Normalize(raw, "https://api.twelvedata.com/time_series")
	require.NoError(t, err)
	assert.Equal(t, ShapeValuesSeries, resp.Shape)
	assert.True(t, resp.Shape.IsCandles())

	rows := resp.Data.([]any)
	require.Len(t, rows, 2)
	first := rows[0].(*jsondoc.Object)
	open, _ := first.Get("open")
	vol, _ := first.Get("volume")
	assert.Equal(t, 8.0, open)
	assert.Equal(t, int64(50), vol)

	assert.JSONEq(t, `[
		{"time":"2024-01-01","open":8,"high":9,"low":7,"close":8,"volume":50},
		{"time":"2024-01-02","open":10,"high":12,"low":9,"close":11,"volume":100}
	]`, marshal(t, resp.Data))
}

func TestNormalize_ValuesSeriesUnparseableBecomesNull(t *testing.T) {
	raw := jsondoc.MustDecode(`{"values": [{"datetime":"d","open":"n/a","high":"1","low":"1","close":"1"}]}`)
	resp, err := New().Normalize(raw, "")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"time":"d","open":null,"high":1,"low":1,"close":1,"volume":null}]`, marshal(t, resp.Data))
}

func TestNormalize_ProviderErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"note", `{"Note": "rate limited"}`, "rate limited"},
		{"information", `{"Information": "premium endpoint"}`, "premium endpoint"},
		{"error message", `{"Error Message": "Invalid API call"}`, "Invalid API call"},
		{"status error", `{"status": "error", "message": "symbol not found"}`, "symbol not found"},
		{"status error without message", `{"status": "error"}`, "API request failed"},
		{"code 429", `{"code": 429, "message": "too many requests"}`, "too many requests"},
		{"code 429 without message", `{"code": 429}`, "API request failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New().Normalize(jsondoc.MustDecode(tc.body), "https://x.test")
			require.Error(t, err)
			assert.Equal(t, tc.want, err.Error())

			var fe *errs.FetchError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, errs.FetchProvider, fe.Kind)
			assert.Equal(t, "https://x.test", fe.URL)
		})
	}
}

func TestNormalize_NotAnErrorSignal(t *testing.T) {
	for _, body := range []string{`{"code": 200, "price": 1}`, `{"code": "429"}`, `{"status": "ok"}`, `{"Note": ""}`} {
		resp, err := New().Normalize(jsondoc.MustDecode(body), "")
		require.NoError(t, err, body)
		assert.Equal(t, ShapeUnrecognized, resp.Shape, body)
	}
}

func TestNormalize_ExchangeRates(t *testing.T) {
	raw := jsondoc.MustDecode(`{"data": {"currency": "USD", "rates": {"EUR": "0.91", "currency": "bogus", "GBP": "0.79"}}}`)

	resp, err := New().Normalize(raw, "https://api.coinbase.com/v2/exchange-rates")
	require.NoError(t, err)
	assert.Equal(t, ShapeExchangeRates, resp.Shape)
	assert.Equal(t, `{"currency":"USD","EUR":"0.91","GBP":"0.79"}`, marshal(t, resp.Data))
}

func TestNormalize_ExchangeRatesOptOut(t *testing.T) {
	raw := jsondoc.MustDecode(`{"data": {"currency": "USD", "rates": {"EUR": "0.91"}}}`)
	resp, err := New(WithRateFlattening(false)).Normalize(raw, "")
	require.NoError(t, err)
	assert.Equal(t, ShapeUnrecognized, resp.Shape)
	assert.Same(t, raw, resp.Data)
}

func TestNormalize_News(t *testing.T) {
	items := make([]any, 0, 20)
	for i := 0; i < 20; i++ {
		items = append(items, jsondoc.MustDecode(`{"headline": "Fed holds", "source": "Reuters", "datetime": 1704153600, "summary": "s", "url": "https://n.test/1"}`))
	}
	items[1] = jsondoc.MustDecode(`{"headline": "", "datetime": 0}`)

	resp, err := New(WithLocation(time.UTC)).Normalize(items, "https://finnhub.io/api/v1/news")
	require.NoError(t, err)
	assert.Equal(t, ShapeNews, resp.Shape)

	out := resp.Data.([]any)
	require.Len(t, out, 15)
	assert.Equal(t, `{"headline":"Fed holds","source":"Reuters","date":"1/2/2024","summary":"s","url":"https://n.test/1"}`, marshal(t, out[0]))
	assert.Equal(t, `{"headline":"No Headline","source":"Unknown","date":"N/A","summary":"","url":"#"}`, marshal(t, out[1]))
}

func TestNormalize_DailySeries(t *testing.T) {
	raw := jsondoc.MustDecode(`{
		"Meta Data": {"2. Symbol": "IBM"},
		"Time Series (Daily)": {
			"2024-01-03": {"1. open": "3", "2. high": "4", "3. low": "2", "4. close": "3.5", "5. volume": "300"},
			"2024-01-02": {"1. open": "2", "2. high": "3", "3. low": "1", "4. close": "2.5", "5. volume": "200"},
			"2024-01-01": {"1. open": "1", "2. high": "2", "3. low": "0.5", "4. close": "1.5", "5. volume": "100"}
		}
	}`)

	resp, err := New().Normalize(raw, "https://www.alphavantage.co/query")
	require.NoError(t, err)
	assert.Equal(t, ShapeDailySeries, resp.Shape)
	assert.JSONEq(t, `[
		{"time":"2024-01-01","open":1,"high":2,"low":0.5,"close":1.5,"volume":100},
		{"time":"2024-01-02","open":2,"high":3,"low":1,"close":2.5,"volume":200},
		{"time":"2024-01-03","open":3,"high":4,"low":2,"close":3.5,"volume":300}
	]`, marshal(t, resp.Data))
}

func TestNormalize_ParallelCandles(t *testing.T) {
	raw := jsondoc.MustDecode(`{"s": "ok", "t": [1704067200, 1704153600], "o": [1, 2], "h": [2, 3], "l": [0.5, 1], "c": [1.5, 2.5], "v": [100, 200]}`)

	resp, err := New().Normalize(raw, "https://finnhub.io/api/v1/stock/candle")
	require.NoError(t, err)
	assert.Equal(t, ShapeParallelCandles, resp.Shape)
	assert.JSONEq(t, `[
		{"time":"2024-01-01","open":1,"high":2,"low":0.5,"close":1.5,"volume":100},
		{"time":"2024-01-02","open":2,"high":3,"low":1,"close":2.5,"volume":200}
	]`, marshal(t, resp.Data))
}

func TestNormalize_ParallelCandlesWithoutVolume(t *testing.T) {
	raw := jsondoc.MustDecode(`{"t": [1704067200], "o": [1], "h": [2], "l": [0.5], "c": [1.5]}`)
	resp, err := New().Normalize(raw, "")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"time":"2024-01-01","open":1,"high":2,"low":0.5,"close":1.5,"volume":null}]`, marshal(t, resp.Data))
}

func TestNormalize_UnrecognizedPassesThrough(t *testing.T) {
	raw := jsondoc.MustDecode(`{"c": 190.5, "d": 1.2, "dp": 0.63}`)
	resp, err := New().Normalize(raw, "")
	require.NoError(t, err)
	assert.Equal(t, ShapeUnrecognized, resp.Shape)
	assert.Same(t, raw, resp.Data)

	resp, err = New().Normalize("plain", "")
	require.NoError(t, err)
	assert.Equal(t, "plain", resp.Data)
}
