package dto

import (
	"time"

	"github.com/GregMSThompson/finance-dashboard/internal/fields"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
	"github.com/GregMSThompson/finance-dashboard/internal/render"
)

// --- Request types ---

// WidgetRequest creates a widget or replaces an existing widget's settings.
type WidgetRequest struct {
	Name                   string                 `json:"name"`
	SourceURL              string                 `json:"sourceUrl"`
	RefreshIntervalSeconds int                    `json:"refreshIntervalSeconds"`
	DisplayMode            string                 `json:"displayMode"`
	SelectedFields         []models.SelectedField `json:"selectedFields"`
	ChartInterval          string                 `json:"chartInterval"`
}

type ReorderWidgetItem struct {
	WidgetID string `json:"widgetId"`
	Position int    `json:"position"`
}

type ReorderWidgetsRequest struct {
	WidgetOrder []ReorderWidgetItem `json:"widgetOrder"`
}

// WidgetDataQuery is the viewer state for a widget projection.
type WidgetDataQuery struct {
	Search     string
	SortColumn string
	SortDesc   bool
	Page       int
	Descending bool // chart and candlestick order
}

type DiscoverFieldsRequest struct {
	URL        string `json:"url"`
	Search     string `json:"search"`
	ArraysOnly bool   `json:"arraysOnly"`
}

// --- Response types ---

type WidgetDataResponse struct {
	WidgetID    string      `json:"widgetId"`
	Name        string      `json:"name"`
	View        render.View `json:"view"`
	Error       string      `json:"error,omitempty"`
	LastUpdated time.Time   `json:"lastUpdated"`
}

type RefreshResult struct {
	WidgetID string `json:"widgetId"`
	OK       bool   `json:"ok"`
	HasData  bool   `json:"hasData"`
	Error    string `json:"error,omitempty"`
}

type DiscoverFieldsResponse struct {
	URL    string         `json:"url"`
	Fields []fields.Field `json:"fields"`
	Count  int            `json:"count"`
}

type DisplayModeEntry struct {
	Mode        string `json:"mode"`
	Description string `json:"description"`
}

type DisplayCatalog struct {
	Modes          []DisplayModeEntry `json:"modes"`
	Formats        []string           `json:"formats"`
	ChartIntervals []string           `json:"chartIntervals"`
}
