package handlers

import (
	"net/http"

	"github.com/GregMSThompson/finance-dashboard/internal/response"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

// responseCache is the shared fetch cache.
type responseCache interface {
	Clear()
	Size() int
}

type adminHandlers struct {
	ResponseHandler response.ResponseHandler
	Cache           responseCache
}

func NewAdminHandlers(deps *Deps) *adminHandlers {
	return &adminHandlers{
		ResponseHandler: deps.ResponseHandler,
		Cache:           deps.Cache,
	}
}

type cacheStatus struct {
	Cleared int `json:"cleared"`
}

// ClearCache drops every cached response so the next fetches go upstream.
func (h *adminHandlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	n := h.Cache.Size()
	h.Cache.Clear()
	logger.FromContext(r.Context()).Info("response cache cleared", "entries", n)
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, cacheStatus{Cleared: n})
}

func (h *adminHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
