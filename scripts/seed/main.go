package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/paintworks/paintworks/internal/app"
	"github.com/paintworks/paintworks/internal/clients"
	"github.com/paintworks/paintworks/internal/formulations"
	"github.com/paintworks/paintworks/internal/items"
	"github.com/paintworks/paintworks/internal/platform/db"
	"github.com/paintworks/paintworks/internal/shared"
	"github.com/paintworks/paintworks/internal/supplieritems"
	"github.com/paintworks/paintworks/internal/suppliers"
)

type services struct {
	items         *items.Service
	formulations  *formulations.Service
	clients       *clients.Service
	suppliers     *suppliers.Service
	supplierItems *supplieritems.Service
}

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx := context.Background()
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	audit := shared.NewAuditLogger(pool)
	itemsService := items.NewService(items.NewRepository(pool), audit, nil, shared.NewFormatter(cfg.AppLocale))
	svc := services{
		items:         itemsService,
		formulations:  formulations.NewService(formulations.NewRepository(pool), itemsService, formulations.ServiceConfig{Audit: audit}),
		clients:       clients.NewService(clients.NewRepository(pool), audit, clients.ServiceConfig{PhoneRegion: cfg.AppPhoneRegion}),
		suppliers:     suppliers.NewService(suppliers.NewRepository(pool), audit, suppliers.ServiceConfig{PhoneRegion: cfg.AppPhoneRegion}),
		supplierItems: supplieritems.NewService(supplieritems.NewRepository(pool), itemsService, audit, nil),
	}

	fmt.Println("→ Seeding items...")
	ids, err := seedItems(ctx, svc)
	if err != nil {
		log.Fatalf("seed items: %v", err)
	}

	fmt.Println("→ Seeding formulations...")
	if err := seedFormulations(ctx, svc, ids); err != nil {
		log.Fatalf("seed formulations: %v", err)
	}

	fmt.Println("→ Seeding suppliers...")
	if err := seedSuppliers(ctx, svc); err != nil {
		log.Fatalf("seed suppliers: %v", err)
	}

	fmt.Println("→ Seeding clients...")
	if err := seedClients(ctx, svc); err != nil {
		log.Fatalf("seed clients: %v", err)
	}

	fmt.Println("→ Refreshing costs...")
	result, err := svc.formulations.RefreshCosts(ctx)
	if err != nil {
		log.Fatalf("refresh costs: %v", err)
	}
	fmt.Printf("  %d updated, %d failed\n", result.Updated, len(result.Failed))

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

// =============================================================================
// ITEMS
// =============================================================================

func seedItems(ctx context.Context, svc services) (map[string]int64, error) {
	catalogue := []items.CreateItemRequest{
		{Code: "MP-001", Name: "Dióxido de titanio", Kind: items.KindRawMaterial, Unit: "kg", Quantity: 500, UnitCost: 14500},
		{Code: "MP-002", Name: "Carbonato de calcio", Kind: items.KindRawMaterial, Unit: "kg", Quantity: 2000, UnitCost: 950},
		{Code: "MP-003", Name: "Resina acrílica", Kind: items.KindRawMaterial, Unit: "kg", Quantity: 800, UnitCost: 8200},
		{Code: "MP-004", Name: "Agua desionizada", Kind: items.KindRawMaterial, Unit: "L", Quantity: 5000, UnitCost: 40},
		{Code: "MP-005", Name: "Dispersante", Kind: items.KindRawMaterial, Unit: "kg", Quantity: 120, UnitCost: 11800},
		{
			Code: "PT-100", Name: "Vinilo tipo 1 blanco", Kind: items.KindProduct, Unit: "gal", Quantity: 40,
			Spec: &items.TechnicalSpec{Viscosity: "95-100 KU", PH: "8.5", Color: "Blanco", DryingTime: "30 min", Coverage: "35 m2/gal", Category: "Arquitectónica"},
		},
		{
			Code: "IN-200", Name: "Base pigmentada", Kind: items.KindSupply, Unit: "kg", Quantity: 15,
			Spec: &items.TechnicalSpec{Grind: "6 Hegman", TintingPower: "100%", Category: "Intermedio"},
		},
	}
	ids := make(map[string]int64, len(catalogue))
	for _, req := range catalogue {
		existing, err := svc.items.FindByCode(ctx, req.Code)
		if err == nil {
			ids[req.Code] = existing.ID
			continue
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		created, err := svc.items.Create(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", req.Code, err)
		}
		ids[req.Code] = created.ID
	}

	// Reference volumes and fixed costs of the formulated items.
	fixed := map[string]items.CostPatch{
		"PT-100": {Volume: ptr(100.0), Container: ptr(2200.0), Label: ptr(350.0), Labor: ptr(45000.0)},
		"IN-200": {Volume: ptr(50.0), Plastic: ptr(800.0), Labor: ptr(12000.0)},
	}
	for code, patch := range fixed {
		if _, err := svc.items.CommitCosts(ctx, ids[code], patch); err != nil {
			return nil, fmt.Errorf("%s costs: %w", code, err)
		}
	}
	return ids, nil
}

// =============================================================================
// FORMULATIONS
// =============================================================================

func seedFormulations(ctx context.Context, svc services, ids map[string]int64) error {
	lines := map[string][]struct {
		code string
		qty  float64
	}{
		"PT-100": {{"MP-001", 18}, {"MP-002", 35}, {"MP-003", 22}, {"MP-004", 40}, {"MP-005", 1.5}},
		"IN-200": {{"MP-001", 20}, {"MP-004", 25}, {"MP-005", 0.8}},
	}
	for product, recipe := range lines {
		existing, err := svc.formulations.ProductSheet(ctx, ids[product])
		if err != nil {
			return err
		}
		if len(existing.Lines) > 0 {
			continue
		}
		for _, l := range recipe {
			_, err := svc.formulations.CreateLine(ctx, formulations.CreateLineRequest{
				ProductID:     ids[product],
				RawMaterialID: ids[l.code],
				Quantity:      l.qty,
			})
			if err != nil {
				return fmt.Errorf("%s/%s: %w", product, l.code, err)
			}
		}
	}
	return nil
}

// =============================================================================
// SUPPLIERS
// =============================================================================

func seedSuppliers(ctx context.Context, svc services) error {
	seed := []struct {
		supplier suppliers.SupplierRequest
		products []supplieritems.CreateRequest
	}{
		{
			supplier: suppliers.SupplierRequest{CompanyName: "Químicos Andinos SAS", TaxID: "900123456-1", Contact: "Laura Gómez", Phone: "601 555 0101", City: "Bogotá"},
			products: []supplieritems.CreateRequest{
				{Name: "Dióxido de titanio rutilo", Code: "MP-001", Unit: "kg", UnitPrice: 14000},
				{Name: "Dispersante aniónico", Code: "MP-005", Unit: "kg", UnitPrice: 11500},
			},
		},
		{
			supplier: suppliers.SupplierRequest{CompanyName: "Minerales del Valle", TaxID: "800987654-2", Contact: "Andrés Ruiz", Phone: "602 555 0199", City: "Cali"},
			products: []supplieritems.CreateRequest{
				{Name: "Carbonato de calcio malla 325", Code: "MP-002", Unit: "kg", UnitPrice: 900},
				{Name: "Caolín lavado", Code: "MP-010", Unit: "kg", UnitPrice: 1200},
			},
		},
	}
	for _, s := range seed {
		found, err := svc.suppliers.Search(ctx, s.supplier.CompanyName)
		if err != nil {
			return err
		}
		if len(found) > 0 {
			continue
		}
		sup, err := svc.suppliers.Create(ctx, s.supplier)
		if err != nil {
			return fmt.Errorf("%s: %w", s.supplier.CompanyName, err)
		}
		for _, p := range s.products {
			p.SupplierID = sup.ID
			if _, err := svc.supplierItems.Create(ctx, p); err != nil {
				return fmt.Errorf("%s: %w", p.Name, err)
			}
		}
	}
	return nil
}

// =============================================================================
// CLIENTS
// =============================================================================

func seedClients(ctx context.Context, svc services) error {
	found, err := svc.clients.Search(ctx, "Constructora Horizonte")
	if err != nil {
		return err
	}
	if len(found) > 0 {
		return nil
	}
	client, err := svc.clients.Create(ctx, clients.ClientRequest{
		CompanyName: "Constructora Horizonte",
		TaxID:       "901555333-7",
		Contact:     "María Torres",
		Phone:       "310 555 0142",
		Email:       "compras@horizonte.example",
		City:        "Medellín",
	})
	if err != nil {
		return err
	}
	invoice, err := svc.clients.CreateInvoice(ctx, client.ID, clients.InvoiceRequest{Number: "FV-0001", Total: 2380000})
	if err != nil {
		return err
	}
	_, err = svc.clients.CreatePayment(ctx, client.ID, clients.PaymentRequest{InvoiceID: &invoice.ID, Amount: 1000000, Method: "transferencia"})
	return err
}

func ptr[T any](v T) *T { return &v }
