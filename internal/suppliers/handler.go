package suppliers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/paintworks/paintworks/internal/platform/httpx"
)

// Handler wires HTTP endpoints for suppliers.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the suppliers handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers supplier routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/search/{term}", h.search)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
		r.Get("/productos", h.products)
		r.Get("/estadisticas", h.stats)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	h.respond(w, "list suppliers", http.StatusOK, list, err)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Search(r.Context(), chi.URLParam(r, "term"))
	h.respond(w, "search suppliers", http.StatusOK, list, err)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sup, err := h.service.Get(r.Context(), id)
	h.respond(w, "get supplier", http.StatusOK, sup, err)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req SupplierRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sup, err := h.service.Create(r.Context(), req)
	h.respond(w, "create supplier", http.StatusCreated, sup, err)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req SupplierRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sup, err := h.service.Update(r.Context(), id, req)
	h.respond(w, "update supplier", http.StatusOK, sup, err)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	err = h.service.Delete(r.Context(), id)
	h.respond(w, "delete supplier", http.StatusOK, map[string]string{"message": "Proveedor eliminado correctamente"}, err)
}

func (h *Handler) products(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	products, err := h.service.Products(r.Context(), id)
	h.respond(w, "supplier products", http.StatusOK, products, err)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	stats, err := h.service.Stats(r.Context(), id)
	h.respond(w, "supplier stats", http.StatusOK, stats, err)
}

func (h *Handler) respond(w http.ResponseWriter, op string, status int, data any, err error) {
	if err != nil {
		if httpx.StatusFor(err) >= http.StatusInternalServerError {
			h.logger.Error(op, slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, status, data)
}
