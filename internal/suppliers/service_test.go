package suppliers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/paintworks/paintworks/internal/shared"
)

type memoryRepo struct {
	suppliers map[int64]Supplier
	products  map[int64][]Product
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{suppliers: map[int64]Supplier{}, products: map[int64][]Product{}}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) List(ctx context.Context) ([]Supplier, error) {
	result := []Supplier{}
	for _, s := range r.suppliers {
		result = append(result, r.withCounts(s))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *memoryRepo) Search(ctx context.Context, term string) ([]Supplier, error) {
	all, _ := r.List(ctx)
	result := []Supplier{}
	for _, s := range all {
		if strings.Contains(strings.ToLower(s.CompanyName), strings.ToLower(term)) {
			result = append(result, s)
		}
	}
	return result, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return Supplier{}, shared.NotFound("proveedor", id)
	}
	return r.withCounts(s), nil
}

func (r *memoryRepo) withCounts(s Supplier) Supplier {
	c, _ := r.Counts(context.Background(), s.ID)
	s.ProductCount = c.Products
	s.AvailableCount = c.Available
	return s
}

func (r *memoryRepo) Create(ctx context.Context, s Supplier) (int64, error) {
	r.nextID++
	s.ID = r.nextID
	r.suppliers[s.ID] = s
	return s.ID, nil
}

func (r *memoryRepo) Update(ctx context.Context, s Supplier) error {
	if _, ok := r.suppliers[s.ID]; !ok {
		return shared.NotFound("proveedor", s.ID)
	}
	r.suppliers[s.ID] = s
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	delete(r.suppliers, id)
	return nil
}

func (r *memoryRepo) CountProducts(ctx context.Context, supplierID int64) (int, error) {
	return len(r.products[supplierID]), nil
}

func (r *memoryRepo) Products(ctx context.Context, supplierID int64) ([]Product, error) {
	return append([]Product{}, r.products[supplierID]...), nil
}

func (r *memoryRepo) Counts(ctx context.Context, supplierID int64) (Counts, error) {
	var c Counts
	for _, p := range r.products[supplierID] {
		c.Products++
		if p.Available {
			c.Available++
		}
		if p.ItemID != nil {
			c.Linked++
		}
	}
	return c, nil
}

func (r *memoryRepo) Prices(ctx context.Context, supplierID int64) (Prices, error) {
	var p Prices
	list := r.products[supplierID]
	for i, prod := range list {
		if i == 0 || prod.UnitPrice < p.Min {
			p.Min = prod.UnitPrice
		}
		if prod.UnitPrice > p.Max {
			p.Max = prod.UnitPrice
		}
		p.Average += prod.UnitPrice
		p.CatalogValue += prod.PriceWithVAT
	}
	if len(list) > 0 {
		p.Average /= float64(len(list))
	}
	return p, nil
}

func TestCreateDefaultsToActive(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, ServiceConfig{})
	sup, err := svc.Create(context.Background(), SupplierRequest{CompanyName: "Químicos Andinos", TaxID: "860"})
	require.NoError(t, err)
	require.True(t, sup.Active)

	off := false
	sup, err = svc.Update(context.Background(), sup.ID, SupplierRequest{CompanyName: "Químicos Andinos", TaxID: "860", Active: &off})
	require.NoError(t, err)
	require.False(t, sup.Active)

	sup, err = svc.Update(context.Background(), sup.ID, SupplierRequest{CompanyName: "Químicos Andinos SAS", TaxID: "860"})
	require.NoError(t, err)
	require.False(t, sup.Active)
}

func TestDeleteBlockedByProducts(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, ServiceConfig{})
	sup, err := svc.Create(context.Background(), SupplierRequest{CompanyName: "Resinas", TaxID: "1"})
	require.NoError(t, err)
	repo.products[sup.ID] = []Product{{ID: 1, Name: "Resina alquídica"}}

	err = svc.Delete(context.Background(), sup.ID)
	require.ErrorIs(t, err, shared.ErrConflict)
	require.Contains(t, err.Error(), "productos")

	repo.products[sup.ID] = nil
	require.NoError(t, svc.Delete(context.Background(), sup.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), sup.ID), shared.ErrNotFound)
}

func TestReadsCarryProductCounts(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, ServiceConfig{})
	ctx := context.Background()
	sup, err := svc.Create(ctx, SupplierRequest{CompanyName: "Pigmentos", TaxID: "3"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, SupplierRequest{CompanyName: "Solventes", TaxID: "4"})
	require.NoError(t, err)
	repo.products[sup.ID] = []Product{{ID: 1, Available: true}, {ID: 2}, {ID: 3, Available: true}}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, 3, list[0].ProductCount)
	require.Equal(t, 2, list[0].AvailableCount)
	require.Zero(t, list[1].ProductCount)

	got, err := svc.Get(ctx, sup.ID)
	require.NoError(t, err)
	require.Equal(t, 3, got.ProductCount)

	found, err := svc.Search(ctx, "pigm")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, 2, found[0].AvailableCount)
}

func TestStatsAggregatesCatalogue(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, ServiceConfig{})
	sup, err := svc.Create(context.Background(), SupplierRequest{CompanyName: "Envases", TaxID: "2"})
	require.NoError(t, err)
	linked := int64(7)
	repo.products[sup.ID] = []Product{
		{ID: 1, UnitPrice: 1000, PriceWithVAT: 1190, Available: true, ItemID: &linked},
		{ID: 2, UnitPrice: 2000, PriceWithVAT: 2380, Available: false},
	}

	stats, err := svc.Stats(context.Background(), sup.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Products)
	require.Equal(t, 1, stats.Available)
	require.Equal(t, 1, stats.Linked)
	require.Equal(t, 1500.0, stats.Average)
	require.Equal(t, 1000.0, stats.Min)
	require.Equal(t, 2000.0, stats.Max)
	require.Equal(t, 3570.0, stats.CatalogValue)

	_, err = svc.Stats(context.Background(), 99)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSupplierRoutes(t *testing.T) {
	repo := newMemoryRepo()
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(repo, nil, ServiceConfig{}))
	r := chi.NewRouter()
	r.Route("/proveedores", h.MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/proveedores", strings.NewReader(`{"nombre_empresa":"Pigmentos SA","nit":"900"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proveedores/search/pigm", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var found []Supplier
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	require.Len(t, found, 1)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proveedores/1/productos", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proveedores/2/estadisticas", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
