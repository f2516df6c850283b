package formulations

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/paintworks/paintworks/internal/items"
	"github.com/paintworks/paintworks/internal/shared"
)

const sheetsBuildTimeout = 30 * time.Second

// Catalog is the slice of the items service the formulation workflows depend on.
type Catalog interface {
	Get(ctx context.Context, id int64) (items.Item, error)
	Costs(ctx context.Context, id int64) (items.CostRecord, error)
	CommitCosts(ctx context.Context, id int64, patch items.CostPatch) (items.CostRecord, error)
}

// RefreshEnqueuer schedules a background cost refresh and returns the task id.
type RefreshEnqueuer interface {
	EnqueueRefreshCosts(ctx context.Context) (string, error)
}

// MetricsPort counts scaling calculations.
type MetricsPort interface {
	ObserveCostScaling(outcome string)
}

// ServiceConfig groups optional collaborators. Any of them may be nil.
type ServiceConfig struct {
	Cache    items.CachePort
	Audit    items.AuditPort
	Metrics  MetricsPort
	Enqueuer RefreshEnqueuer
}

// Service coordinates formulation editing and cost scaling.
type Service struct {
	repo     Repository
	catalog  Catalog
	cache    items.CachePort
	audit    items.AuditPort
	metrics  MetricsPort
	enqueuer RefreshEnqueuer
	group    singleflight.Group
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo Repository, catalog Catalog, cfg ServiceConfig) *Service {
	return &Service{
		repo:     repo,
		catalog:  catalog,
		cache:    cfg.Cache,
		audit:    cfg.Audit,
		metrics:  cfg.Metrics,
		enqueuer: cfg.Enqueuer,
		now:      time.Now,
	}
}

// SetEnqueuer attaches the background refresh scheduler.
func (s *Service) SetEnqueuer(e RefreshEnqueuer) {
	s.enqueuer = e
}

// Sheets returns every producto and insumo with its cost record and formulation.
// Concurrent callers share one build, which outlives any single caller's cancellation.
func (s *Service) Sheets(ctx context.Context) ([]Sheet, error) {
	ch := s.group.DoChan("sheets", func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sheetsBuildTimeout)
		defer cancel()
		load := func(ctx context.Context) (any, error) {
			return s.repo.ListSheets(ctx)
		}
		if s.cache == nil {
			return load(ctx)
		}
		var sheets []Sheet
		if err := s.cache.FetchJSON(ctx, &sheets, load, "formulaciones", "sheets"); err != nil {
			return nil, err
		}
		return sheets, nil
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list formulations: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("list formulations: %w", res.Err)
		}
		return res.Val.([]Sheet), nil
	}
}

// ProductSheet returns the cost record and formulation of one item.
func (s *Service) ProductSheet(ctx context.Context, itemID int64) (Sheet, error) {
	item, err := s.catalog.Get(ctx, itemID)
	if err != nil {
		return Sheet{}, err
	}
	costs, err := s.catalog.Costs(ctx, itemID)
	if err != nil {
		return Sheet{}, err
	}
	lines, err := s.repo.Lines(ctx, itemID)
	if err != nil {
		return Sheet{}, err
	}
	return Sheet{Item: refOf(item), Costs: costs, Lines: lines, FormulationCost: FormulationCost(lines)}, nil
}

func refOf(it items.Item) ItemRef {
	return ItemRef{ID: it.ID, Code: it.Code, Name: it.Name, Kind: it.Kind, Unit: it.Unit}
}

// GetLine returns one formulation line.
func (s *Service) GetLine(ctx context.Context, id int64) (Line, error) {
	return s.repo.GetLine(ctx, id)
}

// CreateLine adds a raw material to the formulation of a producto or insumo.
func (s *Service) CreateLine(ctx context.Context, req CreateLineRequest) (Line, error) {
	if req.Quantity <= 0 || math.IsInf(req.Quantity, 0) || math.IsNaN(req.Quantity) {
		return Line{}, shared.InvalidArgument("cantidad must be a finite number greater than 0")
	}
	if req.ProductID == req.RawMaterialID {
		return Line{}, shared.InvalidArgument("an item cannot be a raw material of itself")
	}
	product, err := s.catalog.Get(ctx, req.ProductID)
	if err != nil {
		return Line{}, err
	}
	if !product.Kind.HasFormulation() {
		return Line{}, shared.InvalidArgument("item %d of kind %s cannot own a formulation", product.ID, product.Kind)
	}
	raw, err := s.catalog.Get(ctx, req.RawMaterialID)
	if err != nil {
		return Line{}, err
	}
	if raw.Kind == items.KindProduct {
		return Line{}, shared.InvalidArgument("item %d is a finished product and cannot be an ingredient", raw.ID)
	}
	line := Line{ProductID: product.ID, RawMaterialID: raw.ID, Quantity: req.Quantity, Unit: req.Unit}
	if line.Unit == "" {
		line.Unit = raw.Unit
	}
	id, err := s.repo.CreateLine(ctx, line)
	if err != nil {
		return Line{}, fmt.Errorf("create formulation line: %w", err)
	}
	s.invalidate(ctx)
	return s.repo.GetLine(ctx, id)
}

// UpdateLine changes the ingredient, quantity or unit of a line.
func (s *Service) UpdateLine(ctx context.Context, id int64, req UpdateLineRequest) (Line, error) {
	if req.Quantity != nil && (*req.Quantity <= 0 || *req.Quantity != shared.Num(*req.Quantity)) {
		return Line{}, shared.InvalidArgument("cantidad must be a finite number greater than 0")
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		current, err := repo.GetLine(ctx, id)
		if err != nil {
			return err
		}
		if req.RawMaterialID != nil && *req.RawMaterialID != current.RawMaterialID {
			if *req.RawMaterialID == current.ProductID {
				return shared.InvalidArgument("an item cannot be a raw material of itself")
			}
			raw, err := s.catalog.Get(ctx, *req.RawMaterialID)
			if err != nil {
				return err
			}
			if raw.Kind == items.KindProduct {
				return shared.InvalidArgument("item %d is a finished product and cannot be an ingredient", raw.ID)
			}
		}
		return repo.UpdateLine(ctx, id, req)
	})
	if err != nil {
		return Line{}, fmt.Errorf("update formulation line: %w", err)
	}
	s.invalidate(ctx)
	return s.repo.GetLine(ctx, id)
}

// DeleteLine removes a line from its formulation.
func (s *Service) DeleteLine(ctx context.Context, id int64) error {
	if err := s.repo.DeleteLine(ctx, id); err != nil {
		return fmt.Errorf("delete formulation line: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// Calculate scales the cost sheet of an item to newVolume without persisting anything.
func (s *Service) Calculate(ctx context.Context, itemID int64, newVolume float64) (Comparison, error) {
	if err := ValidateVolume(newVolume); err != nil {
		s.observe("invalid")
		return Comparison{}, err
	}
	cmp, err := s.calculate(ctx, itemID, func(items.CostRecord) float64 { return newVolume })
	if err != nil {
		s.observe("error")
		return Comparison{}, err
	}
	s.observe("ok")
	return cmp, nil
}

func (s *Service) calculate(ctx context.Context, itemID int64, volume func(items.CostRecord) float64) (Comparison, error) {
	item, err := s.catalog.Get(ctx, itemID)
	if err != nil {
		return Comparison{}, err
	}
	rec, err := s.catalog.Costs(ctx, itemID)
	if err != nil {
		return Comparison{}, err
	}
	lines, err := s.repo.Lines(ctx, itemID)
	if err != nil {
		return Comparison{}, err
	}
	return Scale(refOf(item), rec, lines, volume(rec), s.now())
}

// CommitScaledCosts persists exactly the fields present in newCosts into the item's cost record.
func (s *Service) CommitScaledCosts(ctx context.Context, itemID int64, newCosts items.CostPatch) (items.CostRecord, error) {
	if newCosts.Empty() {
		return items.CostRecord{}, shared.InvalidArgument("costos_nuevos has no fields")
	}
	cols, vals := newCosts.Columns()
	for i, v := range vals {
		if f := v.(float64); f != shared.Num(f) {
			return items.CostRecord{}, shared.InvalidArgument("%s must be a finite number", cols[i])
		}
	}
	rec, err := s.catalog.CommitCosts(ctx, itemID, newCosts)
	if err != nil {
		return items.CostRecord{}, err
	}
	s.invalidate(ctx)
	return rec, nil
}

// RefreshResult summarises a cost refresh run.
type RefreshResult struct {
	Updated int      `json:"actualizados"`
	Failed  []string `json:"fallidos,omitempty"`
}

// RefreshCosts recomputes every formulated item's cost sheet at its own reference volume
// using current raw material prices, and commits the result.
func (s *Service) RefreshCosts(ctx context.Context) (RefreshResult, error) {
	ids, err := s.repo.FormulatedItemIDs(ctx)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("refresh costs: %w", err)
	}
	var result RefreshResult
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		cmp, err := s.calculate(ctx, id, ReferenceVolume)
		if err == nil {
			_, err = s.catalog.CommitCosts(ctx, id, cmp.New.Patch())
		}
		if err != nil {
			result.Failed = append(result.Failed, strconv.FormatInt(id, 10))
			continue
		}
		result.Updated++
	}
	s.invalidate(ctx)
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   shared.AuditActionRefresh,
			Entity:   "costos_items",
			EntityID: "*",
			Meta:     map[string]any{"actualizados": result.Updated, "fallidos": result.Failed},
		})
	}
	return result, nil
}

// ScheduleRefresh enqueues a background refresh, or runs it inline when no queue is configured.
// The returned task id is empty for inline runs.
func (s *Service) ScheduleRefresh(ctx context.Context) (string, RefreshResult, error) {
	if s.enqueuer != nil {
		id, err := s.enqueuer.EnqueueRefreshCosts(ctx)
		if err != nil {
			return "", RefreshResult{}, fmt.Errorf("enqueue refresh: %w", err)
		}
		return id, RefreshResult{}, nil
	}
	result, err := s.RefreshCosts(ctx)
	return "", result, err
}

func (s *Service) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveCostScaling(outcome)
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
}
