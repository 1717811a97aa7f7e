package router

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GregMSThompson/finance-dashboard/internal/handlers"
	"github.com/GregMSThompson/finance-dashboard/internal/middleware"
)

func NewRouter(deps *handlers.Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.NewLoggerMiddleware(deps.Log).LoggerMiddleware)
	r.Use(chimiddleware.Recoverer)

	dh := handlers.NewDashboardHandlers(deps)
	fh := handlers.NewFieldsHandlers(deps)
	ah := handlers.NewAdminHandlers(deps)

	r.Get("/healthz", ah.Healthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/display-modes", fh.GetDisplayModes)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewMiddleware(deps.Firebase).FirebaseAuth)
		r.Mount("/dashboard", dh.DashboardRoutes())
		r.Mount("/fields", fh.FieldsRoutes())
		r.Delete("/cache", ah.ClearCache)
	})
	return r
}
