package supplieritems

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/paintworks/paintworks/internal/platform/httpx"
)

// Handler wires HTTP endpoints for supplier catalogues.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the supplier catalogue handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers supplier catalogue routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/search/{term}", h.search)
	r.Get("/proveedor/{proveedorId}", h.bySupplier)
	r.Get("/proveedores-disponibles", h.availableSuppliers)
	r.Post("/transferir-productos", h.transfer)
	r.Get("/estadisticas/general", h.stats)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
		r.Get("/verificar-inventario", h.verifyInventory)
		r.Post("/agregar-inventario", h.addToInventory)
		r.Put("/cambiar-proveedor", h.changeSupplier)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	h.respond(w, "list supplier items", http.StatusOK, list, err)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Search(r.Context(), chi.URLParam(r, "term"))
	h.respond(w, "search supplier items", http.StatusOK, list, err)
}

func (h *Handler) bySupplier(w http.ResponseWriter, r *http.Request) {
	supplierID, err := httpx.IDParam(r, "proveedorId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.BySupplier(r.Context(), supplierID)
	h.respond(w, "supplier catalogue", http.StatusOK, list, err)
}

func (h *Handler) availableSuppliers(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.AvailableSuppliers(r.Context())
	h.respond(w, "available suppliers", http.StatusOK, list, err)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	si, err := h.service.Get(r.Context(), id)
	h.respond(w, "get supplier item", http.StatusOK, si, err)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	si, err := h.service.Create(r.Context(), req)
	h.respond(w, "create supplier item", http.StatusCreated, si, err)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	si, err := h.service.Update(r.Context(), id, req)
	h.respond(w, "update supplier item", http.StatusOK, si, err)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	err = h.service.Delete(r.Context(), id)
	h.respond(w, "delete supplier item", http.StatusOK, map[string]string{"message": "Producto de proveedor eliminado correctamente"}, err)
}

func (h *Handler) verifyInventory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	check, err := h.service.VerifyInventory(r.Context(), id)
	h.respond(w, "verify inventory", http.StatusOK, check, err)
}

func (h *Handler) addToInventory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req AddInventoryRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	req.IdempotencyKey = r.Header.Get("Idempotency-Key")
	result, err := h.service.AddToInventory(r.Context(), id, req)
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	h.respond(w, "add to inventory", status, result, err)
}

func (h *Handler) changeSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req ChangeSupplierRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	si, err := h.service.ChangeSupplier(r.Context(), id, req)
	h.respond(w, "change supplier", http.StatusOK, si, err)
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Transfer(r.Context(), req)
	h.respond(w, "transfer supplier items", http.StatusOK, result, err)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GeneralStats(r.Context())
	h.respond(w, "supplier catalogue stats", http.StatusOK, stats, err)
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
