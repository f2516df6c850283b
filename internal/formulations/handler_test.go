package formulations

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/paintworks/paintworks/internal/items"
)

func newTestRouter(svc *Service) http.Handler {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	r.Route("/formulaciones", h.MountRoutes)
	return r
}

func send(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCalculateEndpoint(t *testing.T) {
	svc, catalog, _ := newFixture(t)
	router := newTestRouter(svc)

	rec := send(router, http.MethodPost, "/formulaciones/calculate-costs/1", `{"newVolume": 20}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, MethodProportional, payload["metodo"])
	volumes := payload["volumenes"].(map[string]any)
	require.Equal(t, 2.0, volumes["factor_escala"])
	require.Contains(t, payload, "costos_originales")
	require.Contains(t, payload, "formulacion_escalada")
	require.Zero(t, catalog.commits)
}

func TestCalculateEndpointErrors(t *testing.T) {
	svc, _, _ := newFixture(t)
	router := newTestRouter(svc)

	require.Equal(t, http.StatusBadRequest, send(router, http.MethodPost, "/formulaciones/calculate-costs/1", `{"newVolume": 0}`).Code)
	require.Equal(t, http.StatusBadRequest, send(router, http.MethodPost, "/formulaciones/calculate-costs/1", `{}`).Code)
	require.Equal(t, http.StatusBadRequest, send(router, http.MethodPost, "/formulaciones/calculate-costs/1", `{"newVolume": "x"}`).Code)
	require.Equal(t, http.StatusNotFound, send(router, http.MethodPost, "/formulaciones/calculate-costs/404", `{"newVolume": 3}`).Code)
}

func TestUpdateCostsEndpointRoundTrip(t *testing.T) {
	svc, catalog, _ := newFixture(t)
	router := newTestRouter(svc)

	rec := send(router, http.MethodPost, "/formulaciones/calculate-costs/1", `{"newVolume": 20}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var cmp Comparison
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmp))

	body, err := json.Marshal(map[string]any{"costos_nuevos": cmp.New})
	require.NoError(t, err)
	rec = send(router, http.MethodPut, "/formulaciones/update-costs/1", string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, cmp.New.TotalCost, catalog.costs[1].TotalCost)
	require.Equal(t, 20.0, catalog.costs[1].Volume)

	require.Equal(t, http.StatusBadRequest, send(router, http.MethodPut, "/formulaciones/update-costs/1", `{"costos_nuevos": {}}`).Code)
	require.Equal(t, http.StatusBadRequest, send(router, http.MethodPut, "/formulaciones/update-costs/1", `{}`).Code)
}

func TestLineEndpoints(t *testing.T) {
	svc, _, _ := newFixture(t)
	router := newTestRouter(svc)

	rec := send(router, http.MethodPost, "/formulaciones", `{"producto_id":1,"materia_prima_id":2,"cantidad":2.5}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = send(router, http.MethodGet, "/formulaciones/producto/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sheet Sheet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sheet))
	require.Len(t, sheet.Lines, 2)
	require.Equal(t, items.KindProduct, sheet.Item.Kind)

	require.Equal(t, http.StatusOK, send(router, http.MethodGet, "/formulaciones", "").Code)
	require.Equal(t, http.StatusOK, send(router, http.MethodDelete, "/formulaciones/2", "").Code)
	require.Equal(t, http.StatusNotFound, send(router, http.MethodGet, "/formulaciones/2", "").Code)
}

func TestRefreshEndpointRunsInlineWithoutQueue(t *testing.T) {
	svc, _, _ := newFixture(t)
	router := newTestRouter(svc)

	rec := send(router, http.MethodPost, "/formulaciones/refresh-costs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var result RefreshResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, 1, result.Updated)

	svc.SetEnqueuer(&fakeEnqueuer{})
	rec = send(router, http.MethodPost, "/formulaciones/refresh-costs", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
}
