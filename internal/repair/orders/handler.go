package orders

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fixflow-rms/fixflow/internal/platform/httpx"
	"github.com/fixflow-rms/fixflow/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/reference/{reference}", h.ShowByReference)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Show)
			r.Put("/", h.Update)
			r.Post("/start", h.transition(h.service.Start))
			r.Post("/ready", h.transition(h.service.MarkReady))
			r.Post("/deliver", h.transition(h.service.Deliver))
			r.Post("/cancel", h.transition(h.service.Cancel))
			r.Post("/reset", h.transition(h.service.ResetToDraft))
			r.Post("/invoice", h.transition(h.service.CreateInvoice))
			r.Post("/sale-order", h.transition(h.service.CreateSaleOrder))
			r.Post("/stock-transfer", h.transition(h.service.CreateStockTransfer))
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := parseListFilters(r)
	items, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list orders failed", "error", err)
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      items,
		"pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order ID")
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) ShowByReference(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetByReference(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	order, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create order failed", "error", err)
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order ID")
		return
	}
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	order, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update order failed", "error", err, "id", id)
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

// transition adapts the shared shape of every workflow action: path ID plus
// a version-carrying body.
func (h *Handler) transition(op func(ctx context.Context, id int64, req TransitionRequest) (*RepairOrder, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order ID")
			return
		}
		var req TransitionRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
			return
		}
		if req.Version <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "the order version must be provided")
			return
		}
		order, err := op(r.Context(), id, req)
		if err != nil {
			h.logger.Error("order transition failed", "error", err, "id", id, "path", r.URL.Path)
			respondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, order)
	}
}

func parseListFilters(r *http.Request) ListFilters {
	q := r.URL.Query()
	filters := ListFilters{Page: 1, Limit: 20, Search: q.Get("search")}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		filters.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 && limit <= 100 {
		filters.Limit = limit
	}
	if raw := q.Get("status"); raw != "" {
		status := Status(raw)
		if status.Valid() {
			filters.Status = &status
		}
	}
	if customerID, err := strconv.ParseInt(q.Get("customer_id"), 10, 64); err == nil && customerID > 0 {
		filters.CustomerID = &customerID
	}
	if technicianID, err := strconv.ParseInt(q.Get("technician_id"), 10, 64); err == nil && technicianID > 0 {
		filters.TechnicianID = &technicianID
	}
	if from, err := time.Parse("2006-01-02", q.Get("date_from")); err == nil {
		filters.DateFrom = &from
	}
	if to, err := time.Parse("2006-01-02", q.Get("date_to")); err == nil {
		end := to.Add(24*time.Hour - time.Nanosecond)
		filters.DateTo = &end
	}
	return filters
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "repair order not found")
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrAlreadyInvoiced),
		errors.Is(err, ErrSaleOrderExists),
		errors.Is(err, ErrAlreadyTransferred),
		errors.Is(err, ErrNotEditable):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrTechnicianRequired),
		errors.Is(err, ErrLinesRequired),
		errors.Is(err, ErrFaultRequired),
		errors.Is(err, ErrNoBillableAmount),
		errors.Is(err, ErrNoStorableLines):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Precondition Failed", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
