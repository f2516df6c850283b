package clients

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/paintworks/paintworks/internal/platform/httpx"
)

// Handler wires HTTP endpoints for clients.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the clients handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers client routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/search", h.search)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
		r.Get("/facturas", h.invoices)
		r.Post("/facturas", h.createInvoice)
		r.Get("/pagos", h.payments)
		r.Post("/pagos", h.createPayment)
		r.Get("/estadisticas", h.stats)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.List(r.Context())
	h.respond(w, "list clients", http.StatusOK, clients, err)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	h.respond(w, "search clients", http.StatusOK, clients, err)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Get(r.Context(), id)
	h.respond(w, "get client", http.StatusOK, c, err)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Create(r.Context(), req)
	h.respond(w, "create client", http.StatusCreated, c, err)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req ClientRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Update(r.Context(), id, req)
	h.respond(w, "update client", http.StatusOK, c, err)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	err = h.service.Delete(r.Context(), id)
	h.respond(w, "delete client", http.StatusOK, map[string]string{"message": "Cliente eliminado correctamente"}, err)
}

func (h *Handler) invoices(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	invoices, err := h.service.Invoices(r.Context(), id)
	h.respond(w, "list invoices", http.StatusOK, invoices, err)
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req InvoiceRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.CreateInvoice(r.Context(), id, req)
	h.respond(w, "create invoice", http.StatusCreated, inv, err)
}

func (h *Handler) payments(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	payments, err := h.service.Payments(r.Context(), id)
	h.respond(w, "list payments", http.StatusOK, payments, err)
}

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req PaymentRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.CreatePayment(r.Context(), id, req)
	h.respond(w, "create payment", http.StatusCreated, p, err)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	stats, err := h.service.Stats(r.Context(), id)
	h.respond(w, "client stats", http.StatusOK, stats, err)
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
