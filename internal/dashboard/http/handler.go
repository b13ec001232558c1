// Package dashboardhttp exposes the dashboard aggregates over HTTP.
package dashboardhttp

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fixflow-rms/fixflow/internal/dashboard"
	"github.com/fixflow-rms/fixflow/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *dashboard.Service
}

func NewHandler(logger *slog.Logger, service *dashboard.Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/summary", h.Summary)
		r.Get("/chart-data", h.ChartData)
	})
}

// Summary serves the KPI payload for an optional date range. Malformed dates
// are rejected; a missing bound means unbounded.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	var dateRange dashboard.DateRange

	if raw := r.URL.Query().Get("date_from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date_from must be YYYY-MM-DD")
			return
		}
		dateRange.From = from
	}
	if raw := r.URL.Query().Get("date_to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date_to must be YYYY-MM-DD")
			return
		}
		dateRange.To = to.Add(24*time.Hour - time.Nanosecond)
	}
	if !dateRange.From.IsZero() && !dateRange.To.IsZero() && dateRange.To.Before(dateRange.From) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date_to precedes date_from")
		return
	}

	summary, err := h.service.Summary(r.Context(), dateRange)
	if err != nil {
		h.logger.Error("dashboard summary failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) ChartData(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ChartData(r.Context())
	if err != nil {
		h.logger.Error("dashboard chart data failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, data)
}
