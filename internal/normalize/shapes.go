package normalize

import (
	"time"

	"github.com/GregMSThompson/finance-dashboard/internal/jsondoc"
)

// --- Exchange rates: {"data": {"currency": "USD", "rates": {...}}} ---

func (n *Normalizer) isExchangeRates(raw any) bool {
	if !n.flattenRates {
		return false
	}
	obj, ok := raw.(*jsondoc.Object)
	if !ok {
		return false
	}
	data, ok := field(obj, "data").(*jsondoc.Object)
	if !ok {
		return false
	}
	_, hasRates := field(data, "rates").(*jsondoc.Object)
	return hasRates && data.Has("currency")
}

// flattenRates spreads the rates next to currency. currency is written first
// and a rate code named "currency" never replaces it.
func flattenRates(raw any) any {
	data := object(field(object(raw), "data"))
	out := jsondoc.NewObject()
	out.Set("currency", field(data, "currency"))
	for _, m := range object(field(data, "rates")).Members() {
		if m.Key == "currency" {
			continue
		}
		out.Set(m.Key, m.Value)
	}
	return out
}

// --- News: [{"headline": ..., "datetime": <unix seconds>, ...}] ---

func isNews(raw any) bool {
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return false
	}
	first, ok := items[0].(*jsondoc.Object)
	return ok && first.Has("headline")
}

func (n *Normalizer) news(raw any) any {
	items := raw.([]any)
	if len(items) > maxNewsItems {
		items = items[:maxNewsItems]
	}
	out := make([]any, 0, len(items))
	for _, it := range items {
		item := object(it)
		article := jsondoc.NewObject()
		article.Set("headline", orDefault(field(item, "headline"), "No Headline"))
		article.Set("source", orDefault(field(item, "source"), "Unknown"))
		article.Set("date", n.newsDate(field(item, "datetime")))
		article.Set("summary", orDefault(field(item, "summary"), ""))
		article.Set("url", orDefault(field(item, "url"), "#"))
		out = append(out, article)
	}
	return out
}

func (n *Normalizer) newsDate(v any) string {
	if !jsondoc.IsTruthy(v) {
		return "N/A"
	}
	secs, ok := jsondoc.ParseFloat(v)
	if !ok {
		return "N/A"
	}
	return time.Unix(int64(secs), 0).In(n.loc).Format(newsDateLayout)
}

func orDefault(v any, fallback string) any {
	if jsondoc.IsTruthy(v) {
		return v
	}
	return fallback
}

// --- Values series: {"values": [{"datetime": ..., "open": "1.0", ...}]}, newest first ---

func isValuesSeries(raw any) bool {
	obj, ok := raw.(*jsondoc.Object)
	if !ok {
		return false
	}
	_, ok = field(obj, "values").([]any)
	return ok
}

func valuesSeries(raw any) any {
	values := field(object(raw), "values").([]any)
	out := make([]any, 0, len(values))
	for _, v := range values {
		row := object(v)
		t := field(row, "datetime")
		if t == nil {
			t = field(row, "time")
		}
		out = append(out, candle(t,
			field(row, "open"), field(row, "high"), field(row, "low"), field(row, "close"),
			field(row, "volume")))
	}
	reverse(out)
	return out
}

// --- Daily series: {"Time Series (Daily)": {"2024-01-02": {"1. open": ...}}}, newest first ---

func isDailySeries(raw any) bool {
	obj, ok := raw.(*jsondoc.Object)
	if !ok {
		return false
	}
	_, ok = field(obj, dailySeriesKey).(*jsondoc.Object)
	return ok
}

func dailySeries(raw any) any {
	series := field(object(raw), dailySeriesKey).(*jsondoc.Object)
	out := make([]any, 0, series.Len())
	for _, m := range series.Members() {
		day := object(m.Value)
		out = append(out, candle(m.Key,
			field(day, "1. open"), field(day, "2. high"), field(day, "3. low"), field(day, "4. close"),
			field(day, "5. volume")))
	}
	reverse(out)
	return out
}

// --- Parallel arrays: {"t": [...], "o": [...], "h": [...], "l": [...], "c": [...], "v": [...]} ---

func isParallelCandles(raw any) bool {
	obj, ok := raw.(*jsondoc.Object)
	if !ok {
		return false
	}
	for _, key := range []string{"t", "o", "h", "l", "c"} {
		if _, ok := field(obj, key).([]any); !ok {
			return false
		}
	}
	return true
}

func parallelCandles(raw any) any {
	obj := object(raw)
	col := func(key string) []any {
		arr, _ := field(obj, key).([]any)
		return arr
	}
	ts, o, h, l, c, v := col("t"), col("o"), col("h"), col("l"), col("c"), col("v")
	out := make([]any, 0, len(ts))
	for i := range ts {
		var day any
		if secs, ok := jsondoc.ParseFloat(ts[i]); ok {
			day = time.Unix(int64(secs), 0).UTC().Format(candleDateLayout)
		}
		out = append(out, candle(day, at(o, i), at(h, i), at(l, i), at(c, i), at(v, i)))
	}
	return out
}

func at(arr []any, i int) any {
	if i < len(arr) {
		return arr[i]
	}
	return nil
}

// candle builds the canonical {time, open, high, low, close, volume} record.
// Unparseable prices and volumes become null.
func candle(t, open, high, low, closePrice, volume any) *jsondoc.Object {
	out := jsondoc.NewObject()
	out.Set("time", t)
	out.Set("open", floatOrNil(open))
	out.Set("high", floatOrNil(high))
	out.Set("low", floatOrNil(low))
	out.Set("close", floatOrNil(closePrice))
	if vol, ok := jsondoc.ParseInt(volume); ok {
		out.Set("volume", vol)
	} else {
		out.Set("volume", nil)
	}
	return out
}

func floatOrNil(v any) any {
	if f, ok := jsondoc.ParseFloat(v); ok {
		return f
	}
	return nil
}
