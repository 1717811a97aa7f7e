package render

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GregMSThompson/finance-dashboard/internal/jsondoc"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
)

func sel(paths ...string) []models.SelectedField {
	out := make([]models.SelectedField, len(paths))
	for i, p := range paths {
		out[i] = models.SelectedField{Path: p, Label: p, Format: "text"}
	}
	return out
}

func rowsDoc(n int) any {
	var b strings.Builder
	b.WriteString(`{"meta": {"symbol": "X"}, "items": [`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"id": %d, "name": "row%d"}`, i, i)
	}
	b.WriteString("]}")
	return jsondoc.MustDecode(b.String())
}

func TestExtract(t *testing.T) {
	arr := jsondoc.MustDecode(`[{"a": 1}]`)
	ds := Extract(arr, sel("a"))
	assert.Len(t, ds.Rows, 1)
	assert.Equal(t, "", ds.Anchor)
	assert.Len(t, ds.Scalars, 1)

	doc := jsondoc.MustDecode(`{"first": [1], "data": {"list": [{"x": 1}, {"x": 2}]}, "name": "n"}`)
	ds = Extract(doc, sel("name", "data.list"))
	assert.Len(t, ds.Rows, 2)
	assert.Equal(t, "data.list", ds.Anchor)
	assert.Equal(t, sel("name"), ds.Scalars)

	ds = Extract(doc, sel("name"))
	assert.Equal(t, "first", ds.Anchor)
	assert.Len(t, ds.Rows, 1)

	ds = Extract(jsondoc.MustDecode(`{"price": 1}`), sel("price"))
	assert.Empty(t, ds.Rows)
	assert.Equal(t, "", ds.Anchor)
}

func TestCard(t *testing.T) {
	doc := jsondoc.MustDecode(`{"05. price": "182.5", "quote": {"change": -1.2}, "symbol": "IBM"}`)
	view := Card(doc, []models.SelectedField{
		{Path: "05. price", Label: "Price", Format: "currency"},
		{Path: "quote.change", Label: "Change", Format: "number"},
		{Path: "symbol", Label: "Symbol", Format: "text"},
		{Path: "missing", Label: "Missing", Format: "text"},
	})
	require.Len(t, view.Items, 4)
	assert.Equal(t, "$182.50", view.Items[0].Value)
	assert.Equal(t, "-1.2", view.Items[1].Value)
	assert.Equal(t, "IBM", view.Items[2].Value)
	assert.Equal(t, "N/A", view.Items[3].Value)
}

func TestCard_RepresentativeRecord(t *testing.T) {
	values := jsondoc.MustDecode(`{"values": [{"close": "11"}, {"close": "8"}], "meta": {"symbol": "AAPL"}}`)
	view := Card(values, sel("close", "meta.symbol"))
	assert.Equal(t, "11", view.Items[0].Value)
	assert.Equal(t, "AAPL", view.Items[1].Value, "falls back to the whole response")

	arr := jsondoc.MustDecode(`[{"price": 5}, {"price": 6}]`)
	assert.Equal(t, "5", Card(arr, sel("price")).Items[0].Value)
}

func TestTable_Pagination(t *testing.T) {
	doc := rowsDoc(25)

	page1 := Table(doc, nil, TableQuery{Page: 1})
	assert.Equal(t, 3, page1.TotalPages)
	assert.Equal(t, 25, page1.TotalRows)
	require.Len(t, page1.Rows, 10)
	assert.Equal(t, "0", page1.Rows[0][0])
	assert.Equal(t, "9", page1.Rows[9][0])

	page3 := Table(doc, nil, TableQuery{Page: 3})
	require.Len(t, page3.Rows, 5)
	assert.Equal(t, "20", page3.Rows[0][0])
	assert.Equal(t, "24", page3.Rows[4][0])

	clamped := Table(doc, nil, TableQuery{Page: 9})
	assert.Equal(t, 3, clamped.Page)
	assert.Equal(t, 1, Table(doc, nil, TableQuery{}).Page)
}

func TestTable_DefaultColumnsAreFirstFiveKeys(t *testing.T) {
	doc := jsondoc.MustDecode(`[{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5, "f": 6}]`)
	view := Table(doc, nil, TableQuery{Page: 1})
	var paths []string
	for _, c := range view.Columns {
		paths = append(paths, c.Path)
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, paths)
}

func TestTable_AnchorPrefixStripped(t *testing.T) {
	doc := jsondoc.MustDecode(`{"data": {"rows": [{"sym": "A", "px": 1.5}, {"sym": "B", "px": 2}]}}`)
	selected := []models.SelectedField{
		{Path: "data.rows", Label: "rows", Format: "text"},
		{Path: "data.rows.sym", Label: "Symbol", Format: "text"},
		{Path: "data.rows.px", Label: "Price", Format: "currency"},
	}
	view := Table(doc, selected, TableQuery{Page: 1})
	require.Len(t, view.Columns, 2)
	assert.Equal(t, [][]string{{"A", "$1.50"}, {"B", "$2.00"}}, view.Rows)
}

func TestTable_SearchAndStableSort(t *testing.T) {
	doc := jsondoc.MustDecode(`[
		{"sym": "AAPL", "sector": "tech", "px": 10},
		{"sym": "MSFT", "sector": "tech", "px": 30},
		{"sym": "XOM", "sector": "energy", "px": 20},
		{"sym": "GOOG", "sector": "Tech", "px": 10}
	]`)

	found := Table(doc, nil, TableQuery{Search: "TECH", Page: 1})
	assert.Equal(t, 3, found.TotalRows)

	var sort SortState
	sort = sort.Click("px")
	asc := Table(doc, nil, TableQuery{Sort: sort, Page: 1})
	assert.Equal(t, []string{"AAPL", "GOOG", "XOM", "MSFT"}, column(asc, 0))

	sort = sort.Click("px")
	assert.True(t, sort.Desc)
	desc := Table(doc, nil, TableQuery{Sort: sort, Page: 1})
	assert.Equal(t, []string{"MSFT", "XOM", "AAPL", "GOOG"}, column(desc, 0))

	assert.Equal(t, SortState{Column: "sym"}, sort.Click("sym"))
}

func TestTable_Empty(t *testing.T) {
	view := Table(jsondoc.MustDecode(`{"price": 1}`), sel("price"), TableQuery{Page: 2})
	assert.Empty(t, view.Rows)
	assert.Equal(t, 0, view.TotalPages)
	assert.Equal(t, 1, view.Page)
}

func column(v TableView, i int) []string {
	out := make([]string, len(v.Rows))
	for r, row := range v.Rows {
		out[r] = row[i]
	}
	return out
}

func TestChart_KeyHeuristics(t *testing.T) {
	doc := jsondoc.MustDecode(`[
		{"time": "2024-01-01", "open": 8, "close": 8},
		{"time": "2024-01-02", "open": 10, "close": "oops"},
		{"time": "2024-01-03", "open": 11, "close": "11.5"}
	]`)
	view := Chart(doc, nil, false, time.UTC)
	assert.Equal(t, "time", view.TimeKey)
	assert.Equal(t, "close", view.ValueKey)
	require.Len(t, view.Points, 2)
	assert.Equal(t, "2024-01-01", view.Points[0].Label)
	assert.Equal(t, 11.5, view.Points[1].Value)

	desc := Chart(doc, nil, true, time.UTC)
	assert.Equal(t, "2024-01-03", desc.Points[0].Label)
}

func TestChart_Fallbacks(t *testing.T) {
	doc := jsondoc.MustDecode(`[{"trade_date": "d1", "lastPrice": "1.5", "x": 3}]`)
	view := Chart(doc, nil, false, time.UTC)
	assert.Equal(t, "trade_date", view.TimeKey)
	assert.Equal(t, "lastPrice", view.ValueKey)

	positional := Chart(jsondoc.MustDecode(`[{"k": "a", "v": 2}]`), nil, false, time.UTC)
	assert.Equal(t, "k", positional.TimeKey)
	assert.Equal(t, "v", positional.ValueKey)
}

func TestChart_EpochLabelsAndLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < 120; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		// descending input; sorted numerically before truncation
		fmt.Fprintf(&b, `{"t": %d, "price": %d}`, 1704153600+(119-i)*60, i)
	}
	b.WriteString("]")
	view := Chart(jsondoc.MustDecode(b.String()), nil, false, time.UTC)
	require.Len(t, view.Points, MaxChartPoints)
	assert.Equal(t, "1:59:00 AM", view.Points[len(view.Points)-1].Label)
	assert.Equal(t, float64(0), view.Points[len(view.Points)-1].Value)

	ms := Chart(jsondoc.MustDecode(`[{"t": 1704153600000, "close": 1}]`), nil, false, time.UTC)
	assert.Equal(t, "12:00:00 AM", ms.Points[0].Label)
}

func TestCandlestick(t *testing.T) {
	doc := jsondoc.MustDecode(`{"candles": [
		{"time": "2024-01-01", "open": 8, "high": 9, "low": 7, "close": 8},
		{"time": "2024-01-02", "open": null, "high": 12, "low": 9, "close": 11},
		{"time": "2024-01-03", "open": "10", "high": "n/a", "low": 9, "close": 11}
	]}`)
	view := Candlestick(doc, nil, false, time.UTC)
	assert.Equal(t, "time", view.TimeKey)
	assert.Equal(t, "open", view.OpenKey)
	require.Len(t, view.Candles, 2)
	assert.Equal(t, 8.0, view.Candles[0].Open)
	require.NotNil(t, view.Candles[0].High)
	assert.Equal(t, 9.0, *view.Candles[0].High)
	assert.Nil(t, view.Candles[1].High)
	assert.Equal(t, 11.0, *view.Candles[1].Close)

	positional := Candlestick(jsondoc.MustDecode(`[{"d": "x", "o": 1, "h": 2, "l": 0.5, "c": 1.5}]`), nil, false, time.UTC)
	assert.Equal(t, []string{"d", "o", "h", "l", "c"}, []string{positional.TimeKey, positional.OpenKey, positional.HighKey, positional.LowKey, positional.CloseKey})
}

func TestRender_Dispatch(t *testing.T) {
	doc := rowsDoc(3)
	assert.NotNil(t, Render(models.Widget{DisplayMode: models.DisplayTable}, doc, Query{}).Table)
	assert.NotNil(t, Render(models.Widget{DisplayMode: models.DisplayChart}, doc, Query{}).Chart)
	assert.NotNil(t, Render(models.Widget{DisplayMode: models.DisplayCandlestick}, doc, Query{}).Candlestick)
	card := Render(models.Widget{DisplayMode: "weird"}, doc, Query{})
	assert.Equal(t, models.DisplayCard, card.Mode)
	assert.NotNil(t, card.Card)

	empty := Render(models.Widget{DisplayMode: models.DisplayChart}, nil, Query{})
	assert.Empty(t, empty.Chart.Points)
}
