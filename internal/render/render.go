package render

import (
	"time"

	"github.com/GregMSThompson/finance-dashboard/internal/models"
)

// Query carries the viewer's interactive state for one widget.
type Query struct {
	Table      TableQuery
	Descending bool
	Location   *time.Location // time-of-day labels; nil means time.Local
}

// View is the display projection of one widget. Exactly one of the mode
// specific views is set.
type View struct {
	Mode        string           `json:"mode"`
	Card        *CardView        `json:"card,omitempty"`
	Table       *TableView       `json:"table,omitempty"`
	Chart       *ChartView       `json:"chart,omitempty"`
	Candlestick *CandlestickView `json:"candlestick,omitempty"`
}

// Render projects normalized data for w's display mode. Unknown modes are
// shown as cards.
func Render(w models.Widget, data any, q Query) View {
	switch w.DisplayMode {
	case models.DisplayTable:
		v := Table(data, w.SelectedFields, q.Table)
		return View{Mode: models.DisplayTable, Table: &v}
	case models.DisplayChart:
		v := Chart(data, w.SelectedFields, q.Descending, q.Location)
		return View{Mode: models.DisplayChart, Chart: &v}
	case models.DisplayCandlestick:
		v := Candlestick(data, w.SelectedFields, q.Descending, q.Location)
		return View{Mode: models.DisplayCandlestick, Candlestick: &v}
	default:
		v := Card(data, w.SelectedFields)
		return View{Mode: models.DisplayCard, Card: &v}
	}
}
