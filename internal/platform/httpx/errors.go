package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/paintworks/paintworks/internal/shared"
)

// StatusFor maps a domain error kind to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as a JSON error body with the mapped status.
// Details of persistence and internal failures are not exposed.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	switch status {
	case http.StatusBadRequest:
		Error(w, status, "Solicitud inválida", detail(err, shared.ErrInvalidArgument))
	case http.StatusNotFound:
		Error(w, status, "Recurso no encontrado", detail(err, shared.ErrNotFound))
	case http.StatusConflict:
		Error(w, status, "Conflicto", detail(err, shared.ErrConflict))
	default:
		if errors.Is(err, shared.ErrPersistence) {
			Error(w, status, "Error de base de datos", "")
			return
		}
		Error(w, status, "Error interno del servidor", "")
	}
}

// detail strips the leading "<kind>: " prefix so clients see only the reason.
func detail(err error, kind error) string {
	msg := err.Error()
	if idx := strings.Index(msg, kind.Error()+": "); idx >= 0 {
		return msg[idx+len(kind.Error())+2:]
	}
	return msg
}
