package items

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/paintworks/paintworks/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CachePort is the read cache shared by catalogue views.
type CachePort interface {
	FetchJSON(ctx context.Context, dest any, loader func(context.Context) (any, error), parts ...string) error
	Bump(ctx context.Context) error
}

// Service coordinates item use cases.
type Service struct {
	repo      Repository
	audit     AuditPort
	cache     CachePort
	formatter *shared.Formatter
}

// NewService builds Service. audit and cache may be nil.
func NewService(repo Repository, audit AuditPort, cache CachePort, formatter *shared.Formatter) *Service {
	if formatter == nil {
		formatter = shared.NewFormatter("es-CO")
	}
	return &Service{repo: repo, audit: audit, cache: cache, formatter: formatter}
}

// List returns items with their stock and unit cost, formatted for display.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Item, error) {
	load := func(ctx context.Context) (any, error) {
		return s.repo.List(ctx, filter)
	}
	var result []Item
	var err error
	if s.cache != nil {
		err = s.cache.FetchJSON(ctx, &result, load, "items", listCacheKey(filter))
	} else {
		var v any
		v, err = load(ctx)
		if err == nil {
			result = v.([]Item)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	for i := range result {
		s.decorate(&result[i])
	}
	return result, nil
}

func listCacheKey(filter ListFilter) string {
	kinds := make([]string, 0, len(filter.Kinds))
	for _, k := range filter.Kinds {
		kinds = append(kinds, string(k))
	}
	return strings.Join(kinds, ",") + "|" + strings.ToLower(strings.TrimSpace(filter.Search))
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, id int64) (Item, error) {
	if id <= 0 {
		return Item{}, shared.InvalidArgument("invalid item id %d", id)
	}
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	s.decorate(&it)
	return it, nil
}

// FindByCode returns the item with the given code.
func (s *Service) FindByCode(ctx context.Context, code string) (Item, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Item{}, shared.InvalidArgument("codigo is required")
	}
	it, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return Item{}, err
	}
	s.decorate(&it)
	return it, nil
}

// Create registers an item with its inventory and cost rows.
func (s *Service) Create(ctx context.Context, req CreateItemRequest) (Item, error) {
	item, err := s.buildItem(req)
	if err != nil {
		return Item{}, err
	}
	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		id, err = repo.Create(ctx, item)
		return err
	})
	if err != nil {
		return Item{}, fmt.Errorf("create item: %w", err)
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

func (s *Service) buildItem(req CreateItemRequest) (Item, error) {
	item := Item{
		Code:     strings.TrimSpace(req.Code),
		Name:     strings.TrimSpace(req.Name),
		Kind:     req.Kind,
		Unit:     strings.TrimSpace(req.Unit),
		Quantity: shared.Num(req.Quantity),
		UnitCost: shared.Num(req.UnitCost),
	}
	if item.Code == "" {
		return Item{}, shared.InvalidArgument("codigo is required")
	}
	if item.Name == "" {
		return Item{}, shared.InvalidArgument("nombre is required")
	}
	if !item.Kind.Valid() {
		return Item{}, shared.InvalidArgument("tipo %q is not supported", req.Kind)
	}
	if item.Quantity < 0 || item.UnitCost < 0 {
		return Item{}, shared.InvalidArgument("cantidad and costo_unitario must be >= 0")
	}
	if req.Spec != nil && item.Kind.HasFormulation() {
		spec := *req.Spec
		item.Spec = &spec
	}
	return item, nil
}

// Update applies the set fields of req.
func (s *Service) Update(ctx context.Context, id int64, req UpdateItemRequest) (Item, error) {
	if id <= 0 {
		return Item{}, shared.InvalidArgument("invalid item id %d", id)
	}
	if req.Code != nil {
		trimmed := strings.TrimSpace(*req.Code)
		if trimmed == "" {
			return Item{}, shared.InvalidArgument("codigo cannot be empty")
		}
		req.Code = &trimmed
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return Item{}, shared.InvalidArgument("nombre cannot be empty")
		}
		req.Name = &trimmed
	}
	if req.Kind != nil && !req.Kind.Valid() {
		return Item{}, shared.InvalidArgument("tipo %q is not supported", *req.Kind)
	}
	if (req.Quantity != nil && *req.Quantity < 0) || (req.UnitCost != nil && *req.UnitCost < 0) {
		return Item{}, shared.InvalidArgument("cantidad and costo_unitario must be >= 0")
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		current, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		kind := current.Kind
		if req.Kind != nil {
			kind = *req.Kind
		}
		if kind != current.Kind {
			if err := checkKindChange(ctx, repo, id, kind); err != nil {
				return err
			}
		}
		if !kind.HasFormulation() {
			req.Spec = nil
		}
		return repo.Update(ctx, id, req)
	})
	if err != nil {
		return Item{}, fmt.Errorf("update item: %w", err)
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// checkKindChange keeps formulations consistent: a producto is never an ingredient
// and only kinds with a formulation own lines.
func checkKindChange(ctx context.Context, repo Repository, id int64, kind Kind) error {
	if kind == KindProduct {
		usage, err := repo.CountRawMaterialUsage(ctx, id)
		if err != nil {
			return err
		}
		if usage > 0 {
			return shared.Conflict("item %d is used as raw material in %d formulaciones and cannot become %s", id, usage, kind)
		}
	}
	if !kind.HasFormulation() {
		lines, err := repo.CountFormulationLines(ctx, id)
		if err != nil {
			return err
		}
		if lines > 0 {
			return shared.Conflict("item %d owns %d formulaciones and cannot become %s", id, lines, kind)
		}
	}
	return nil
}

// SetQuantity upserts the on-hand quantity.
func (s *Service) SetQuantity(ctx context.Context, id int64, qty float64) (Item, error) {
	if qty < 0 || qty != shared.Num(qty) {
		return Item{}, shared.InvalidArgument("cantidad must be a finite number >= 0")
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.Get(ctx, id); err != nil {
			return err
		}
		return repo.SetQuantity(ctx, id, qty)
	})
	if err != nil {
		return Item{}, fmt.Errorf("set quantity: %w", err)
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// AddQuantity increases the on-hand quantity and optionally replaces the unit cost.
func (s *Service) AddQuantity(ctx context.Context, id int64, delta float64, unitCost *float64) (Item, error) {
	if delta < 0 || delta != shared.Num(delta) {
		return Item{}, shared.InvalidArgument("cantidad must be a finite number >= 0")
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		current, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.SetQuantity(ctx, id, current.Quantity+delta); err != nil {
			return err
		}
		if unitCost != nil {
			return repo.UpsertCosts(ctx, id, CostPatch{UnitCost: unitCost})
		}
		return nil
	})
	if err != nil {
		return Item{}, fmt.Errorf("add quantity: %w", err)
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// Costs returns the cost record of the item; a missing record reads as zero values.
func (s *Service) Costs(ctx context.Context, id int64) (CostRecord, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return CostRecord{}, err
	}
	rec, _, err := s.repo.GetCosts(ctx, id)
	return rec, err
}

// CommitCosts writes exactly the fields set in patch into the item's cost record.
func (s *Service) CommitCosts(ctx context.Context, id int64, patch CostPatch) (CostRecord, error) {
	if patch.Empty() {
		return CostRecord{}, shared.InvalidArgument("no cost fields to persist")
	}
	var rec CostRecord
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.Get(ctx, id); err != nil {
			return err
		}
		if err := repo.UpsertCosts(ctx, id, patch); err != nil {
			return err
		}
		var err error
		rec, _, err = repo.GetCosts(ctx, id)
		return err
	})
	if err != nil {
		return CostRecord{}, fmt.Errorf("commit costs: %w", err)
	}
	s.invalidate(ctx)
	cols, _ := patch.Columns()
	s.record(ctx, shared.AuditLog{
		Action:   shared.AuditActionCommit,
		Entity:   "costos_items",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"campos": cols},
	})
	return rec, nil
}

// Delete removes an item and its owned rows. Items still used as a raw material are kept.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.InvalidArgument("invalid item id %d", id)
	}
	var deleted Item
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		item, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		usage, err := repo.CountRawMaterialUsage(ctx, id)
		if err != nil {
			return err
		}
		if usage > 0 {
			return shared.Conflict("item %d is used as raw material in %d formulaciones", id, usage)
		}
		deleted = item
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	s.invalidate(ctx)
	s.record(ctx, shared.AuditLog{
		Action:   shared.AuditActionDelete,
		Entity:   "items",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"codigo": deleted.Code, "nombre": deleted.Name},
	})
	return nil
}

func (s *Service) decorate(it *Item) {
	it.QuantityDisplay = s.formatter.Quantity(it.Quantity)
	it.UnitCostDisplay = s.formatter.Currency(it.UnitCost)
	if !it.Kind.HasFormulation() {
		it.Spec = nil
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
}

func (s *Service) record(ctx context.Context, log shared.AuditLog) {
	if s.audit != nil {
		_ = s.audit.Record(ctx, log)
	}
}
