package formulations

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/paintworks/paintworks/internal/platform/httpx"
	"github.com/paintworks/paintworks/internal/platform/xlsx"
	"github.com/paintworks/paintworks/internal/shared"
)

// Handler wires HTTP endpoints for formulations and cost scaling.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the formulations handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers formulation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/export", h.export)
	r.Get("/producto/{itemId}", h.productSheet)
	r.Post("/calculate-costs/{itemId}", h.calculate)
	r.Put("/update-costs/{itemId}", h.commit)
	r.Post("/refresh-costs", h.refresh)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sheets, err := h.service.Sheets(r.Context())
	if err != nil {
		h.fail(w, "list formulations", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sheets)
}

func (h *Handler) productSheet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "itemId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sheet, err := h.service.ProductSheet(r.Context(), id)
	if err != nil {
		h.fail(w, "get formulation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sheet)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	line, err := h.service.GetLine(r.Context(), id)
	if err != nil {
		h.fail(w, "get formulation line", err)
		return
	}
	httpx.JSON(w, http.StatusOK, line)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateLineRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	line, err := h.service.CreateLine(r.Context(), req)
	if err != nil {
		h.fail(w, "create formulation line", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, line)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateLineRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	line, err := h.service.UpdateLine(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update formulation line", err)
		return
	}
	httpx.JSON(w, http.StatusOK, line)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteLine(r.Context(), id); err != nil {
		h.fail(w, "delete formulation line", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Formulación eliminada correctamente"})
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "itemId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req CalculateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.NewVolume == nil {
		httpx.RespondError(w, shared.InvalidArgument("newVolume is required"))
		return
	}
	cmp, err := h.service.Calculate(r.Context(), id, *req.NewVolume)
	if err != nil {
		h.fail(w, "calculate costs", err)
		return
	}
	httpx.JSON(w, http.StatusOK, cmp)
}

func (h *Handler) commit(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "itemId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req CommitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.NewCosts == nil {
		httpx.RespondError(w, shared.InvalidArgument("costos_nuevos is required"))
		return
	}
	rec, err := h.service.CommitScaledCosts(r.Context(), id, *req.NewCosts)
	if err != nil {
		h.fail(w, "commit costs", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Costos actualizados correctamente", "costos": rec})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	taskID, result, err := h.service.ScheduleRefresh(r.Context())
	if err != nil {
		h.fail(w, "refresh costs", err)
		return
	}
	if taskID != "" {
		httpx.JSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	sheets, err := h.service.Sheets(r.Context())
	if err != nil {
		h.fail(w, "export formulations", err)
		return
	}
	if err := xlsx.Respond(w, "formulaciones.xlsx", ExportTable(sheets)); err != nil {
		h.logger.Error("write formulations export", slog.Any("error", err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
