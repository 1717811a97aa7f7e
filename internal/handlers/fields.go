package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/format"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
	"github.com/GregMSThompson/finance-dashboard/internal/response"
)

type fieldsService interface {
	DiscoverFields(ctx context.Context, req dto.DiscoverFieldsRequest) (dto.DiscoverFieldsResponse, error)
}

type fieldsHandlers struct {
	ResponseHandler response.ResponseHandler
	FieldsSvc       fieldsService
}

func NewFieldsHandlers(deps *Deps) *fieldsHandlers {
	return &fieldsHandlers{
		ResponseHandler: deps.ResponseHandler,
		FieldsSvc:       deps.FieldsSvc,
	}
}

func (h *fieldsHandlers) FieldsRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/discover", h.DiscoverFields)
	return r
}

// DiscoverFields test-fetches a URL and returns its selectable field paths.
func (h *fieldsHandlers) DiscoverFields(w http.ResponseWriter, r *http.Request) {
	var req dto.DiscoverFieldsRequest
	if err := decodeBody(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	resp, err := h.FieldsSvc.DiscoverFields(r.Context(), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, resp)
}

// GetDisplayModes returns the static catalog of display modes, field formats
// and chart intervals.
func (h *fieldsHandlers) GetDisplayModes(w http.ResponseWriter, r *http.Request) {
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, displayCatalog)
}

var displayCatalog = dto.DisplayCatalog{
	Modes: []dto.DisplayModeEntry{
		{Mode: models.DisplayCard, Description: "Labeled values from a single record"},
		{Mode: models.DisplayTable, Description: "Searchable, sortable rows, 10 per page"},
		{Mode: models.DisplayChart, Description: "Line chart of a value over time"},
		{Mode: models.DisplayCandlestick, Description: "Open/high/low/close candles over time"},
	},
	Formats: []string{
		string(format.Text),
		string(format.Currency),
		string(format.Percentage),
		string(format.Number),
	},
	ChartIntervals: models.ChartIntervals[1:],
}
