package handler

import (
	"net/http"

	"rescue-coordination/internal/middleware"
	"rescue-coordination/internal/model"
)

// Routes wires the API. Health and metrics are served without a token.
func (h *Handler) Routes(auth *middleware.Authenticator, metrics http.Handler) http.Handler {
	authed := func(f http.HandlerFunc) http.Handler {
		return auth.Middleware(f)
	}
	dashboards := middleware.RequireRole(model.RoleVolunteer, model.RoleAdmin)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/reports", authed(h.ReportsHandler))
	mux.Handle("/api/v1/reports/", authed(h.ReportByIDHandler))
	mux.Handle("/api/v1/stats", auth.Middleware(dashboards(http.HandlerFunc(h.StatsHandler))))
	mux.Handle("/api/v1/map", authed(h.MapHandler))
	mux.Handle("/api/v1/lifecycle", authed(h.LifecycleHandler))
	mux.HandleFunc("/api/v1/system/health", h.HealthHandler)
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	return middleware.Trace(middleware.Metrics(middleware.Logger(h.logger)(mux)))
}
