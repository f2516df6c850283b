package supplieritems

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/paintworks/paintworks/internal/items"
	"github.com/paintworks/paintworks/internal/shared"
)

// Inventory is the slice of the items service used to move catalogue items into stock.
type Inventory interface {
	Get(ctx context.Context, id int64) (items.Item, error)
	FindByCode(ctx context.Context, code string) (items.Item, error)
	Create(ctx context.Context, req items.CreateItemRequest) (items.Item, error)
	AddQuantity(ctx context.Context, id int64, delta float64, unitCost *float64) (items.Item, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort claims request keys so a retried receipt is applied once.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

const idempotencyModule = "item_proveedor.agregar_inventario"

// Service coordinates supplier catalogue use cases.
type Service struct {
	repo      Repository
	inventory Inventory
	audit     AuditPort
	idem      IdempotencyPort
	newID     func() string
}

// NewService builds Service. audit and idem may be nil.
func NewService(repo Repository, inventory Inventory, audit AuditPort, idem IdempotencyPort) *Service {
	return &Service{repo: repo, inventory: inventory, audit: audit, idem: idem, newID: uuid.NewString}
}

// List returns every catalogue item with its supplier name.
func (s *Service) List(ctx context.Context) ([]SupplierItem, error) {
	return s.repo.List(ctx)
}

// Search matches name, code, description and supplier name.
func (s *Service) Search(ctx context.Context, term string) ([]SupplierItem, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.repo.List(ctx)
	}
	return s.repo.Search(ctx, term)
}

// BySupplier lists one supplier's catalogue.
func (s *Service) BySupplier(ctx context.Context, supplierID int64) ([]SupplierItem, error) {
	if _, err := s.repo.SupplierActive(ctx, supplierID); err != nil {
		return nil, err
	}
	return s.repo.BySupplier(ctx, supplierID)
}

// AvailableSuppliers lists active suppliers that catalogue items can be assigned to.
func (s *Service) AvailableSuppliers(ctx context.Context) ([]SupplierOption, error) {
	return s.repo.ActiveSuppliers(ctx)
}

// Get returns one catalogue item.
func (s *Service) Get(ctx context.Context, id int64) (SupplierItem, error) {
	return s.repo.Get(ctx, id)
}

func checkPrice(v float64) error {
	if v < 0 || v != shared.Num(v) {
		return shared.InvalidArgument("precio_unitario must be a finite number >= 0")
	}
	return nil
}

// Create adds an item to a supplier's catalogue and derives its price with VAT.
func (s *Service) Create(ctx context.Context, req CreateRequest) (SupplierItem, error) {
	si := SupplierItem{
		SupplierID:  req.SupplierID,
		Name:        strings.TrimSpace(req.Name),
		Code:        strings.TrimSpace(req.Code),
		Description: strings.TrimSpace(req.Description),
		Unit:        strings.TrimSpace(req.Unit),
		UnitPrice:   req.UnitPrice,
		Available:   true,
	}
	if si.Name == "" {
		return SupplierItem{}, shared.InvalidArgument("nombre is required")
	}
	if err := checkPrice(si.UnitPrice); err != nil {
		return SupplierItem{}, err
	}
	if req.Available != nil {
		si.Available = *req.Available
	}
	si.PriceWithVAT = shared.PriceWithVAT(si.UnitPrice)
	if _, err := s.repo.SupplierActive(ctx, si.SupplierID); err != nil {
		return SupplierItem{}, err
	}
	id, err := s.repo.Create(ctx, si)
	if err != nil {
		return SupplierItem{}, fmt.Errorf("create supplier item: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Update applies the set fields and recomputes the price with VAT.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (SupplierItem, error) {
	if req.UnitPrice != nil {
		if err := checkPrice(*req.UnitPrice); err != nil {
			return SupplierItem{}, err
		}
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		si, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return shared.InvalidArgument("nombre cannot be empty")
			}
			si.Name = name
		}
		if req.Code != nil {
			si.Code = strings.TrimSpace(*req.Code)
		}
		if req.Description != nil {
			si.Description = strings.TrimSpace(*req.Description)
		}
		if req.Unit != nil {
			si.Unit = strings.TrimSpace(*req.Unit)
		}
		if req.UnitPrice != nil {
			si.UnitPrice = *req.UnitPrice
		}
		if req.Available != nil {
			si.Available = *req.Available
		}
		si.PriceWithVAT = shared.PriceWithVAT(si.UnitPrice)
		return repo.Update(ctx, si)
	})
	if err != nil {
		return SupplierItem{}, fmt.Errorf("update supplier item: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a catalogue item. A linked inventory item is kept.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete supplier item: %w", err)
	}
	s.record(ctx, shared.AuditLog{Action: shared.AuditActionDelete, Entity: "item_proveedor", EntityID: strconv.FormatInt(id, 10)})
	return nil
}

// findInventoryItem resolves the inventory item of a catalogue entry by its link, then by code.
func (s *Service) findInventoryItem(ctx context.Context, si SupplierItem) (*items.Item, error) {
	if si.ItemID != nil {
		it, err := s.inventory.Get(ctx, *si.ItemID)
		if err == nil {
			return &it, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	if si.Code == "" {
		return nil, nil
	}
	it, err := s.inventory.FindByCode(ctx, si.Code)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// VerifyInventory reports whether the catalogue item already exists in inventory.
func (s *Service) VerifyInventory(ctx context.Context, id int64) (InventoryCheck, error) {
	si, err := s.repo.Get(ctx, id)
	if err != nil {
		return InventoryCheck{}, err
	}
	it, err := s.findInventoryItem(ctx, si)
	if err != nil {
		return InventoryCheck{}, err
	}
	return InventoryCheck{SupplierItem: si, InInventory: it != nil, Item: it}, nil
}

// AddToInventory receives quantity of a catalogue item into stock at the supplier's unit price.
// The inventory item is created when it does not exist yet, and the catalogue entry is linked to it.
// A request carrying an idempotency key already applied fails with a conflict.
func (s *Service) AddToInventory(ctx context.Context, id int64, req AddInventoryRequest) (InventoryResult, error) {
	if req.Quantity <= 0 || req.Quantity != shared.Num(req.Quantity) {
		return InventoryResult{}, shared.InvalidArgument("cantidad must be a finite number greater than 0")
	}
	if req.IdempotencyKey == "" || s.idem == nil {
		return s.addToInventory(ctx, id, req)
	}
	if err := s.idem.CheckAndInsert(ctx, req.IdempotencyKey, idempotencyModule); err != nil {
		return InventoryResult{}, err
	}
	result, err := s.addToInventory(ctx, id, req)
	if err != nil {
		_ = s.idem.Delete(ctx, req.IdempotencyKey)
	}
	return result, err
}

func (s *Service) addToInventory(ctx context.Context, id int64, req AddInventoryRequest) (InventoryResult, error) {
	si, err := s.repo.Get(ctx, id)
	if err != nil {
		return InventoryResult{}, err
	}
	existing, err := s.findInventoryItem(ctx, si)
	if err != nil {
		return InventoryResult{}, err
	}

	var result InventoryResult
	if existing != nil {
		price := si.UnitPrice
		result.Item, err = s.inventory.AddQuantity(ctx, existing.ID, req.Quantity, &price)
	} else {
		kind := req.Kind
		if kind == "" {
			kind = items.KindRawMaterial
		}
		code := si.Code
		if code == "" {
			code = fmt.Sprintf("PROV-%d", si.ID)
		}
		result.Item, err = s.inventory.Create(ctx, items.CreateItemRequest{
			Code:     code,
			Name:     si.Name,
			Kind:     kind,
			Unit:     si.Unit,
			Quantity: req.Quantity,
			UnitCost: si.UnitPrice,
		})
		result.Created = true
	}
	if err != nil {
		return InventoryResult{}, fmt.Errorf("add to inventory: %w", err)
	}

	if si.ItemID == nil || *si.ItemID != result.Item.ID {
		if err := s.repo.LinkItem(ctx, si.ID, result.Item.ID); err != nil {
			return InventoryResult{}, fmt.Errorf("link inventory item: %w", err)
		}
	}
	result.SupplierItem, err = s.repo.Get(ctx, id)
	if err != nil {
		return InventoryResult{}, err
	}
	return result, nil
}

// ChangeSupplier reassigns one catalogue item to another active supplier.
func (s *Service) ChangeSupplier(ctx context.Context, id int64, req ChangeSupplierRequest) (SupplierItem, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		si, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if si.SupplierID == req.SupplierID {
			return shared.InvalidArgument("item_proveedor %d already belongs to proveedor %d", id, req.SupplierID)
		}
		if err := ensureActive(ctx, repo, req.SupplierID); err != nil {
			return err
		}
		_, err = repo.MoveToSupplier(ctx, []int64{id}, si.SupplierID, req.SupplierID)
		return err
	})
	if err != nil {
		return SupplierItem{}, fmt.Errorf("change supplier: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func ensureActive(ctx context.Context, repo Repository, supplierID int64) error {
	active, err := repo.SupplierActive(ctx, supplierID)
	if err != nil {
		return err
	}
	if !active {
		return shared.InvalidArgument("proveedor %d is inactive", supplierID)
	}
	return nil
}

// Transfer moves catalogue items between suppliers in one transaction.
// Either every requested item moves or none does.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
	if req.FromSupplierID == req.ToSupplierID {
		return TransferResult{}, shared.InvalidArgument("source and destination suppliers must differ")
	}
	ids := dedupe(req.ItemIDs)
	var moved int
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.SupplierActive(ctx, req.FromSupplierID); err != nil {
			return err
		}
		if err := ensureActive(ctx, repo, req.ToSupplierID); err != nil {
			return err
		}
		var err error
		if len(ids) == 0 {
			moved, err = repo.MoveAll(ctx, req.FromSupplierID, req.ToSupplierID)
			return err
		}
		moved, err = repo.MoveToSupplier(ctx, ids, req.FromSupplierID, req.ToSupplierID)
		if err != nil {
			return err
		}
		if moved != len(ids) {
			return shared.InvalidArgument("%d of %d items do not belong to proveedor %d", len(ids)-moved, len(ids), req.FromSupplierID)
		}
		return nil
	})
	if err != nil {
		return TransferResult{}, fmt.Errorf("transfer supplier items: %w", err)
	}
	result := TransferResult{BatchID: s.newID(), Transferred: moved}
	s.record(ctx, shared.AuditLog{
		Action:   shared.AuditActionTransfer,
		Entity:   "item_proveedor",
		EntityID: result.BatchID,
		Meta: map[string]any{
			"proveedor_origen_id":  req.FromSupplierID,
			"proveedor_destino_id": req.ToSupplierID,
			"item_ids":             ids,
			"transferidos":         moved,
		},
	})
	return result, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// GeneralStats summarises every supplier catalogue.
func (s *Service) GeneralStats(ctx context.Context) (GeneralStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return GeneralStats{}, err
	}
	stats.AveragePrice = shared.RoundCents(stats.AveragePrice)
	return stats, nil
}

func (s *Service) record(ctx context.Context, log shared.AuditLog) {
	if s.audit != nil {
		_ = s.audit.Record(ctx, log)
	}
}
