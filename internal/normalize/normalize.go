// Package normalize converts provider-specific JSON payloads into the small
// set of canonical shapes the renderers are written against.
package normalize

import (
	"time"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/internal/jsondoc"
)

// Shape names the recognizer that produced a Response.
type Shape string

const (
	ShapeExchangeRates   Shape = "exchangeRates"
	ShapeNews            Shape = "news"
	ShapeValuesSeries    Shape = "valuesSeries"
	ShapeDailySeries     Shape = "dailySeries"
	ShapeParallelCandles Shape = "parallelCandles"
	ShapeUnrecognized    Shape = "unrecognized"
)

// IsCandles reports whether the data is a chronological candle array.
func (s Shape) IsCandles() bool {
	return s == ShapeValuesSeries || s == ShapeDailySeries || s == ShapeParallelCandles
}

// Response is a normalized payload. Data is a jsondoc value.
type Response struct {
	Shape Shape `json:"shape"`
	Data  any   `json:"data"`
}

const (
	maxNewsItems     = 15
	dailySeriesKey   = "Time Series (Daily)"
	newsDateLayout   = "1/2/2006"
	candleDateLayout = "2006-01-02"
	genericFailure   = "API request failed"
)

type recognizer struct {
	shape Shape
	match func(raw any) bool
	apply func(raw any) any
}

type Normalizer struct {
	loc          *time.Location
	flattenRates bool
	recognizers  []recognizer
}

type Option func(*Normalizer)

// WithLocation sets the zone used to render news dates.
func WithLocation(loc *time.Location) Option {
	return func(n *Normalizer) { n.loc = loc }
}

// WithRateFlattening toggles spreading data.rates into a single-level object.
func WithRateFlattening(on bool) Option {
	return func(n *Normalizer) { n.flattenRates = on }
}

func New(opts ...Option) *Normalizer {
	n := &Normalizer{loc: time.Local, flattenRates: true}
	for _, opt := range opts {
		opt(n)
	}
	n.recognizers = []recognizer{
		{shape: ShapeExchangeRates, match: n.isExchangeRates, apply: flattenRates},
		{shape: ShapeNews, match: isNews, apply: n.news},
		{shape: ShapeValuesSeries, match: isValuesSeries, apply: valuesSeries},
		{shape: ShapeDailySeries, match: isDailySeries, apply: dailySeries},
		{shape: ShapeParallelCandles, match: isParallelCandles, apply: parallelCandles},
	}
	return n
}

// Normalize must run on every successfully fetched payload before it is
// cached or displayed. A payload carrying a provider error marker yields a
// *errs.FetchError with the provider's message.
func (n *Normalizer) Normalize(raw any, sourceURL string) (Response, error) {
	if msg, failed := providerFailure(raw); failed {
		err := errs.NewProviderError(msg)
		err.URL = sourceURL
		return Response{}, err
	}
	for _, r := range n.recognizers {
		if r.match(raw) {
			return Response{Shape: r.shape, Data: r.apply(raw)}, nil
		}
	}
	return Response{Shape: ShapeUnrecognized, Data: raw}, nil
}

func providerFailure(raw any) (string, bool) {
	obj, ok := raw.(*jsondoc.Object)
	if !ok {
		return "", false
	}
	for _, key := range []string{"Note", "Information", "Error Message"} {
		if v, ok := obj.Get(key); ok && jsondoc.IsTruthy(v) {
			return jsondoc.String(v), true
		}
	}
	status, _ := obj.Get("status")
	code, _ := obj.Get("code")
	codeNum, numeric := jsondoc.ToNumber(code)
	if _, isString := code.(string); isString {
		numeric = false
	}
	if status == "error" || (numeric && codeNum == 429) {
		if msg, ok := obj.Get("message"); ok && jsondoc.IsTruthy(msg) {
			return jsondoc.String(msg), true
		}
		return genericFailure, true
	}
	return "", false
}

func object(v any) *jsondoc.Object {
	if obj, ok := v.(*jsondoc.Object); ok {
		return obj
	}
	return jsondoc.NewObject()
}

func field(obj *jsondoc.Object, key string) any {
	v, _ := obj.Get(key)
	return v
}

func reverse(items []any) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
