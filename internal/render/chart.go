package render

import (
	"slices"
	"strings"
	"time"

	"github.com/GregMSThompson/finance-dashboard/internal/jsondoc"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
	"github.com/GregMSThompson/finance-dashboard/pkg/helpers"
)

const (
	MaxChartPoints = 100
	MaxCandles     = 50

	epochSecondsThreshold = 1e9
	epochMillisThreshold  = 1e12
	timeOfDayLayout       = "3:04:05 PM"
)

// keyRule reports whether key (with its value in the sample record) is a
// candidate for a role.
type keyRule func(key string, sample any) bool

func exactKey(names ...string) keyRule {
	return func(key string, _ any) bool {
		return slices.Contains(names, strings.ToLower(key))
	}
}

func keyContains(parts ...string) keyRule {
	return func(key string, _ any) bool {
		lower := strings.ToLower(key)
		for _, p := range parts {
			if strings.Contains(lower, p) {
				return true
			}
		}
		return false
	}
}

func numericKeyContains(parts ...string) keyRule {
	contains := keyContains(parts...)
	return func(key string, sample any) bool {
		if !contains(key, sample) {
			return false
		}
		_, ok := jsondoc.ToNumber(sample)
		return ok
	}
}

var (
	timeKeyRules  = []keyRule{exactKey("time", "datetime"), keyContains("time", "date", "timestamp")}
	valueKeyRules = []keyRule{exactKey("close"), numericKeyContains("price", "close")}
)

// pickKey returns the first key matched by the highest ranked rule, or the key
// at position fallback. It returns "" when neither exists.
func pickKey(rec *jsondoc.Object, rules []keyRule, fallback int) string {
	members := rec.Members()
	for _, rule := range rules {
		for _, m := range members {
			if rule(m.Key, m.Value) {
				return m.Key
			}
		}
	}
	if fallback >= 0 && fallback < len(members) {
		return members[fallback].Key
	}
	return ""
}

type ChartPoint struct {
	Label string  `json:"label"`
	Time  any     `json:"time"`
	Value float64 `json:"value"`
}

type ChartView struct {
	TimeKey  string       `json:"timeKey"`
	ValueKey string       `json:"valueKey"`
	Points   []ChartPoint `json:"points"`
}

// Chart plots one value per row against a time-like key. Rows whose value
// does not parse are skipped; at most MaxChartPoints of the sorted points are
// kept.
func Chart(data any, selected []models.SelectedField, descending bool, loc *time.Location) ChartView {
	ds := Extract(data, selected)
	rec := ds.firstRecord()
	if rec == nil {
		return ChartView{Points: []ChartPoint{}}
	}
	view := ChartView{
		TimeKey:  pickKey(rec, timeKeyRules, 0),
		ValueKey: pickKey(rec, valueKeyRules, 1),
	}

	var rows []timedRow
	for i, r := range ds.Rows {
		obj, ok := r.(*jsondoc.Object)
		if !ok {
			continue
		}
		raw, _ := obj.Get(view.ValueKey)
		v, ok := jsondoc.ParseFloat(raw)
		if !ok {
			continue
		}
		t, _ := obj.Get(view.TimeKey)
		rows = append(rows, timedRow{index: i, time: t, row: obj, value: v})
	}
	rows = keepLast(sortByTime(rows, descending), MaxChartPoints)

	view.Points = make([]ChartPoint, len(rows))
	for i, r := range rows {
		view.Points[i] = ChartPoint{Label: timeLabel(r.time, loc), Time: r.time, Value: r.value}
	}
	return view
}

type Candle struct {
	Label string   `json:"label"`
	Time  any      `json:"time"`
	Open  float64  `json:"open"`
	High  *float64 `json:"high"`
	Low   *float64 `json:"low"`
	Close *float64 `json:"close"`
}

type CandlestickView struct {
	TimeKey  string   `json:"timeKey"`
	OpenKey  string   `json:"openKey"`
	HighKey  string   `json:"highKey"`
	LowKey   string   `json:"lowKey"`
	CloseKey string   `json:"closeKey"`
	Candles  []Candle `json:"candles"`
}

// Candlestick builds OHLC candles. Keys named open/high/low/close are used
// when present, otherwise the keys at positions one to four.
func Candlestick(data any, selected []models.SelectedField, descending bool, loc *time.Location) CandlestickView {
	ds := Extract(data, selected)
	rec := ds.firstRecord()
	if rec == nil {
		return CandlestickView{Candles: []Candle{}}
	}
	view := CandlestickView{
		TimeKey:  pickKey(rec, timeKeyRules, 0),
		OpenKey:  pickKey(rec, []keyRule{exactKey("open")}, 1),
		HighKey:  pickKey(rec, []keyRule{exactKey("high")}, 2),
		LowKey:   pickKey(rec, []keyRule{exactKey("low")}, 3),
		CloseKey: pickKey(rec, []keyRule{exactKey("close")}, 4),
	}

	var rows []timedRow
	for i, r := range ds.Rows {
		obj, ok := r.(*jsondoc.Object)
		if !ok {
			continue
		}
		raw, _ := obj.Get(view.OpenKey)
		open, ok := jsondoc.ParseFloat(raw)
		if !ok {
			continue
		}
		t, _ := obj.Get(view.TimeKey)
		rows = append(rows, timedRow{index: i, time: t, row: obj, value: open})
	}
	rows = keepLast(sortByTime(rows, descending), MaxCandles)

	view.Candles = make([]Candle, len(rows))
	for i, r := range rows {
		view.Candles[i] = Candle{
			Label: timeLabel(r.time, loc),
			Time:  r.time,
			Open:  r.value,
			High:  optionalFloat(r.row, view.HighKey),
			Low:   optionalFloat(r.row, view.LowKey),
			Close: optionalFloat(r.row, view.CloseKey),
		}
	}
	return view
}

type timedRow struct {
	index int
	time  any
	row   *jsondoc.Object
	value float64
}

// sortByTime orders rows by their numeric time when every row has one, and
// by original position otherwise.
func sortByTime(rows []timedRow, descending bool) []timedRow {
	numeric := true
	for _, r := range rows {
		if _, ok := jsondoc.ToNumber(r.time); !ok {
			numeric = false
			break
		}
	}
	slices.SortStableFunc(rows, func(a, b timedRow) int {
		var c int
		if numeric {
			at, _ := jsondoc.ToNumber(a.time)
			bt, _ := jsondoc.ToNumber(b.time)
			switch {
			case at < bt:
				c = -1
			case at > bt:
				c = 1
			}
		} else {
			c = a.index - b.index
		}
		if descending {
			return -c
		}
		return c
	})
	return rows
}

func keepLast(rows []timedRow, n int) []timedRow {
	if len(rows) > n {
		return rows[len(rows)-n:]
	}
	return rows
}

// timeLabel renders epoch timestamps (seconds or milliseconds) as a local time
// of day and anything else as-is.
func timeLabel(t any, loc *time.Location) string {
	f, ok := jsondoc.ToNumber(t)
	if !ok || f <= epochSecondsThreshold {
		if t == nil {
			return ""
		}
		return jsondoc.String(t)
	}
	if loc == nil {
		loc = time.Local
	}
	var ts time.Time
	if f > epochMillisThreshold {
		ts = time.UnixMilli(int64(f))
	} else {
		ts = time.Unix(int64(f), 0)
	}
	return ts.In(loc).Format(timeOfDayLayout)
}

func optionalFloat(obj *jsondoc.Object, key string) *float64 {
	raw, _ := obj.Get(key)
	v, ok := jsondoc.ParseFloat(raw)
	if !ok {
		return nil
	}
	return helpers.Ptr(v)
}
