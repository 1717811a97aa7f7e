package models

import "time"

const (
	DisplayCard        = "CARD"
	DisplayTable       = "TABLE"
	DisplayChart       = "CHART"
	DisplayCandlestick = "CANDLESTICK"

	DefaultRefreshIntervalSeconds = 60
)

// DisplayModes lists the supported display modes in catalog order.
var DisplayModes = []string{DisplayCard, DisplayTable, DisplayChart, DisplayCandlestick}

// ChartIntervals are the accepted chart interval hints. Empty means unset.
var ChartIntervals = []string{"", "1D", "1W", "1M", "1Y"}

// Widget is a user's dashboard widget configuration stored in Firestore.
type Widget struct {
	WidgetID               string          `firestore:"widgetId" json:"widgetId"`
	Name                   string          `firestore:"name" json:"name"`
	SourceURL              string          `firestore:"sourceUrl" json:"sourceUrl"`
	RefreshIntervalSeconds int             `firestore:"refreshIntervalSeconds" json:"refreshIntervalSeconds"`
	DisplayMode            string          `firestore:"displayMode" json:"displayMode"`
	SelectedFields         []SelectedField `firestore:"selectedFields" json:"selectedFields"`
	ChartInterval          string          `firestore:"chartInterval,omitempty" json:"chartInterval,omitempty"` // hint only
	Position               int             `firestore:"position" json:"position"`
	CreatedAt              time.Time       `firestore:"createdAt" json:"createdAt"`
	UpdatedAt              time.Time       `firestore:"updatedAt" json:"updatedAt"`
}

// SelectedField is one field path the widget displays.
type SelectedField struct {
	Path   string `firestore:"path" json:"path"`
	Label  string `firestore:"label" json:"label"`
	Format string `firestore:"format" json:"format"` // text, currency, percentage, number
}

// RefreshInterval returns the polling interval, falling back to the default.
func (w Widget) RefreshInterval() time.Duration {
	secs := w.RefreshIntervalSeconds
	if secs <= 0 {
		secs = DefaultRefreshIntervalSeconds
	}
	return time.Duration(secs) * time.Second
}

// FieldPaths returns the selected paths in order.
func (w Widget) FieldPaths() []string {
	out := make([]string, len(w.SelectedFields))
	for i, f := range w.SelectedFields {
		out[i] = f.Path
	}
	return out
}
