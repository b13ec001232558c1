package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fixflow-rms/fixflow/internal/catalog/accessories"
	"github.com/fixflow-rms/fixflow/internal/catalog/brands"
	"github.com/fixflow-rms/fixflow/internal/catalog/faults"
	"github.com/fixflow-rms/fixflow/internal/catalog/models"
	"github.com/fixflow-rms/fixflow/internal/catalog/solutions"
	"github.com/fixflow-rms/fixflow/internal/customers"
	dashboardhttp "github.com/fixflow-rms/fixflow/internal/dashboard/http"
	"github.com/fixflow-rms/fixflow/internal/devices"
	"github.com/fixflow-rms/fixflow/internal/repair/orders"
	"github.com/fixflow-rms/fixflow/internal/technicians"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Config            *Config
	BrandHandler      *brands.Handler
	ModelHandler      *models.Handler
	FaultHandler      *faults.Handler
	AccessoryHandler  *accessories.Handler
	SolutionHandler   *solutions.Handler
	CustomerHandler   *customers.Handler
	TechnicianHandler *technicians.Handler
	DeviceHandler     *devices.Handler
	OrderHandler      *orders.Handler
	DashboardHandler  *dashboardhttp.Handler
	Middlewares       []func(http.Handler) http.Handler
}

// NewRouter constructs the chi.Router with FixFlow defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range params.Middlewares {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			params.BrandHandler.MountRoutes(r)
			params.ModelHandler.MountRoutes(r)
			params.FaultHandler.MountRoutes(r)
			params.AccessoryHandler.MountRoutes(r)
			params.SolutionHandler.MountRoutes(r)
		})
		params.CustomerHandler.MountRoutes(r)
		params.TechnicianHandler.MountRoutes(r)
		params.DeviceHandler.MountRoutes(r)
		params.OrderHandler.MountRoutes(r)
		params.DashboardHandler.MountRoutes(r)
	})

	return r
}
