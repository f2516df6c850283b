package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/paintworks/paintworks/internal/clients"
	"github.com/paintworks/paintworks/internal/formulations"
	"github.com/paintworks/paintworks/internal/items"
	"github.com/paintworks/paintworks/internal/observability"
	"github.com/paintworks/paintworks/internal/platform/httpx"
	"github.com/paintworks/paintworks/internal/supplieritems"
	"github.com/paintworks/paintworks/internal/suppliers"
	"github.com/paintworks/paintworks/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	ItemsHandler        *items.Handler
	FormulationsHandler *formulations.Handler
	ClientsHandler      *clients.Handler
	SuppliersHandler    *suppliers.Handler
	SupplierItemHandler *supplieritems.Handler
	JobHandler          *jobs.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with Paintworks defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusNotFound, "Recurso no encontrado", r.URL.Path)
	})

	if params.ItemsHandler != nil {
		r.Route("/items", params.ItemsHandler.MountRoutes)
	}
	if params.FormulationsHandler != nil {
		r.Route("/formulaciones", params.FormulationsHandler.MountRoutes)
	}
	if params.ClientsHandler != nil {
		r.Route("/clientes", params.ClientsHandler.MountRoutes)
	}
	if params.SuppliersHandler != nil {
		r.Route("/proveedores", params.SuppliersHandler.MountRoutes)
	}
	if params.SupplierItemHandler != nil {
		r.Route("/item-proveedor", params.SupplierItemHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
