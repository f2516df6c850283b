package formulations

import (
	"context"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/paintworks/paintworks/internal/items"
	"github.com/paintworks/paintworks/internal/platform/cache"
	"github.com/paintworks/paintworks/internal/shared"
)

type memoryCatalog struct {
	items   map[int64]items.Item
	costs   map[int64]items.CostRecord
	gets    int
	commits int
}

func newMemoryCatalog() *memoryCatalog {
	return &memoryCatalog{items: map[int64]items.Item{}, costs: map[int64]items.CostRecord{}}
}

func (c *memoryCatalog) add(id int64, kind items.Kind, unitCost float64) {
	c.items[id] = items.Item{ID: id, Code: "C-" + string(rune('A'+id)), Name: "item", Kind: kind, Unit: "kg", UnitCost: unitCost}
	c.costs[id] = items.CostRecord{ItemID: id, UnitCost: unitCost, Volume: 1}
}

func (c *memoryCatalog) Get(ctx context.Context, id int64) (items.Item, error) {
	c.gets++
	it, ok := c.items[id]
	if !ok {
		return items.Item{}, shared.NotFound("item", id)
	}
	return it, nil
}

func (c *memoryCatalog) Costs(ctx context.Context, id int64) (items.CostRecord, error) {
	if _, ok := c.items[id]; !ok {
		return items.CostRecord{}, shared.NotFound("item", id)
	}
	return c.costs[id], nil
}

func (c *memoryCatalog) CommitCosts(ctx context.Context, id int64, patch items.CostPatch) (items.CostRecord, error) {
	if _, ok := c.items[id]; !ok {
		return items.CostRecord{}, shared.NotFound("item", id)
	}
	c.commits++
	rec := c.costs[id]
	patch.ApplyTo(&rec)
	c.costs[id] = rec
	return rec, nil
}

type memoryRepo struct {
	catalog   *memoryCatalog
	lines     map[int64]Line
	nextID    int64
	lineReads int
	sheetRuns int
	// started, gate and finished let tests hold ListSheets mid-build.
	started  chan struct{}
	gate     chan struct{}
	finished chan error
}

func newMemoryRepo(catalog *memoryCatalog) *memoryRepo {
	return &memoryRepo{catalog: catalog, lines: map[int64]Line{}}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) ListSheets(ctx context.Context) ([]Sheet, error) {
	r.sheetRuns++
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.gate != nil {
		<-r.gate
	}
	if r.finished != nil {
		r.finished <- ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sheets := []Sheet{}
	for _, id := range r.sortedItemIDs() {
		it := r.catalog.items[id]
		if !it.Kind.HasFormulation() {
			continue
		}
		lines, _ := r.Lines(ctx, id)
		sheets = append(sheets, Sheet{
			Item:            ItemRef{ID: it.ID, Code: it.Code, Name: it.Name, Kind: it.Kind, Unit: it.Unit},
			Costs:           r.catalog.costs[id],
			Lines:           lines,
			FormulationCost: FormulationCost(lines),
		})
	}
	return sheets, nil
}

func (r *memoryRepo) sortedItemIDs() []int64 {
	ids := make([]int64, 0, len(r.catalog.items))
	for id := range r.catalog.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *memoryRepo) Lines(ctx context.Context, productID int64) ([]BOMLine, error) {
	r.lineReads++
	ids := make([]int64, 0, len(r.lines))
	for id := range r.lines {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	result := []BOMLine{}
	for _, id := range ids {
		l := r.lines[id]
		if l.ProductID != productID {
			continue
		}
		raw := r.catalog.items[l.RawMaterialID]
		cost := r.catalog.costs[l.RawMaterialID].UnitCost
		result = append(result, BOMLine{
			ID: l.ID, RawMaterialID: raw.ID, Code: raw.Code, Name: raw.Name, Unit: l.Unit,
			Quantity: l.Quantity, UnitCost: cost, LineCost: l.Quantity * cost,
		})
	}
	return result, nil
}

func (r *memoryRepo) GetLine(ctx context.Context, id int64) (Line, error) {
	l, ok := r.lines[id]
	if !ok {
		return Line{}, shared.NotFound("formulacion", id)
	}
	return l, nil
}

func (r *memoryRepo) CreateLine(ctx context.Context, line Line) (int64, error) {
	r.nextID++
	line.ID = r.nextID
	r.lines[line.ID] = line
	return line.ID, nil
}

func (r *memoryRepo) UpdateLine(ctx context.Context, id int64, req UpdateLineRequest) error {
	l, ok := r.lines[id]
	if !ok {
		return shared.NotFound("formulacion", id)
	}
	if req.RawMaterialID != nil {
		l.RawMaterialID = *req.RawMaterialID
	}
	if req.Quantity != nil {
		l.Quantity = *req.Quantity
	}
	if req.Unit != nil {
		l.Unit = *req.Unit
	}
	r.lines[id] = l
	return nil
}

func (r *memoryRepo) DeleteLine(ctx context.Context, id int64) error {
	if _, ok := r.lines[id]; !ok {
		return shared.NotFound("formulacion", id)
	}
	delete(r.lines, id)
	return nil
}

func (r *memoryRepo) FormulatedItemIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	for _, id := range r.sortedItemIDs() {
		if r.catalog.items[id].Kind.HasFormulation() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type countingMetrics struct {
	outcomes map[string]int
}

func (m *countingMetrics) ObserveCostScaling(outcome string) {
	if m.outcomes == nil {
		m.outcomes = map[string]int{}
	}
	m.outcomes[outcome]++
}

type memoryAudit struct {
	logs []shared.AuditLog
}

func (a *memoryAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type fakeEnqueuer struct{ calls int }

func (f *fakeEnqueuer) EnqueueRefreshCosts(ctx context.Context) (string, error) {
	f.calls++
	return "task-1", nil
}

func ptr[T any](v T) *T { return &v }

// fixture: product 1 at reference volume 10 with one line of 10 units of raw material 2 at 10 each.
func newFixture(t *testing.T) (*Service, *memoryCatalog, *memoryRepo) {
	t.Helper()
	catalog := newMemoryCatalog()
	catalog.add(1, items.KindProduct, 0)
	catalog.add(2, items.KindRawMaterial, 10)
	catalog.costs[1] = items.CostRecord{ItemID: 1, Volume: 10, Container: 50, Labor: 30}
	repo := newMemoryRepo(catalog)
	svc := NewService(repo, catalog, ServiceConfig{})
	svc.now = func() time.Time { return fixedTime }
	_, err := svc.CreateLine(context.Background(), CreateLineRequest{ProductID: 1, RawMaterialID: 2, Quantity: 10})
	require.NoError(t, err)
	return svc, catalog, repo
}

func TestCalculateRejectsVolumeBeforeAnyRead(t *testing.T) {
	catalog := newMemoryCatalog()
	repo := newMemoryRepo(catalog)
	metrics := &countingMetrics{}
	svc := NewService(repo, catalog, ServiceConfig{Metrics: metrics})

	for _, v := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		_, err := svc.Calculate(context.Background(), 1, v)
		require.ErrorIs(t, err, shared.ErrInvalidArgument)
	}
	require.Zero(t, catalog.gets)
	require.Zero(t, repo.lineReads)
	require.Equal(t, 4, metrics.outcomes["invalid"])
}

func TestCalculateUnknownItemIsNotFound(t *testing.T) {
	catalog := newMemoryCatalog()
	repo := newMemoryRepo(catalog)
	svc := NewService(repo, catalog, ServiceConfig{})

	_, err := svc.Calculate(context.Background(), 99, 5)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Zero(t, repo.lineReads)
}

func TestCalculateScalesStoredFormulation(t *testing.T) {
	svc, catalog, _ := newFixture(t)
	before := catalog.costs[1]

	cmp, err := svc.Calculate(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Equal(t, 2.0, cmp.Volumes.Factor)
	require.Equal(t, 200.0, cmp.New.RawMaterialCost)
	require.Equal(t, 10.0, cmp.New.CostPerGallon)
	require.Equal(t, 100.0, cmp.New.Container)
	require.Equal(t, 60.0, cmp.New.Labor)
	require.Equal(t, 360.0, cmp.New.TotalCost)
	require.Equal(t, fixedTime, cmp.CalculatedAt)
	require.Equal(t, before, catalog.costs[1])
	require.Zero(t, catalog.commits)
}

func TestCommitRoundTrip(t *testing.T) {
	svc, catalog, _ := newFixture(t)
	ctx := context.Background()

	cmp, err := svc.Calculate(ctx, 1, 20)
	require.NoError(t, err)
	_, err = svc.CommitScaledCosts(ctx, 1, cmp.New.Patch())
	require.NoError(t, err)

	rec := catalog.costs[1]
	require.Equal(t, cmp.New.RawMaterialCost, rec.RawMaterialCost)
	require.Equal(t, cmp.New.CostPerGallon, rec.CostPerGallon)
	require.Equal(t, cmp.New.CostPerKg, rec.CostPerKg)
	require.Equal(t, cmp.New.Container, rec.Container)
	require.Equal(t, cmp.New.Labor, rec.Labor)
	require.Equal(t, cmp.New.Volume, rec.Volume)
	require.Equal(t, cmp.New.TotalCost, rec.TotalCost)
	require.Equal(t, cmp.New.SalePrice, rec.SalePrice)
}

func TestCommitPersistsOnlyPresentFields(t *testing.T) {
	svc, catalog, _ := newFixture(t)
	_, err := svc.CommitScaledCosts(context.Background(), 1, items.CostPatch{SalePrice: ptr(999.0)})
	require.NoError(t, err)
	require.Equal(t, 999.0, catalog.costs[1].SalePrice)
	require.Equal(t, 10.0, catalog.costs[1].Volume)
	require.Equal(t, 50.0, catalog.costs[1].Container)
}

func TestCommitValidation(t *testing.T) {
	svc, catalog, _ := newFixture(t)
	ctx := context.Background()

	_, err := svc.CommitScaledCosts(ctx, 1, items.CostPatch{})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.CommitScaledCosts(ctx, 1, items.CostPatch{TotalCost: ptr(math.NaN())})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.CommitScaledCosts(ctx, 77, items.CostPatch{TotalCost: ptr(1.0)})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Zero(t, catalog.commits)
}

func TestCreateLineValidation(t *testing.T) {
	svc, catalog, _ := newFixture(t)
	catalog.add(3, items.KindProduct, 0)
	ctx := context.Background()

	_, err := svc.CreateLine(ctx, CreateLineRequest{ProductID: 2, RawMaterialID: 1, Quantity: 1})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.CreateLine(ctx, CreateLineRequest{ProductID: 1, RawMaterialID: 3, Quantity: 1})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.CreateLine(ctx, CreateLineRequest{ProductID: 1, RawMaterialID: 1, Quantity: 1})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.CreateLine(ctx, CreateLineRequest{ProductID: 1, RawMaterialID: 50, Quantity: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)

	line, err := svc.CreateLine(ctx, CreateLineRequest{ProductID: 1, RawMaterialID: 2, Quantity: 0.5})
	require.NoError(t, err)
	require.Equal(t, "kg", line.Unit)
}

func TestUpdateAndDeleteLine(t *testing.T) {
	svc, _, repo := newFixture(t)
	ctx := context.Background()

	line, err := svc.UpdateLine(ctx, 1, UpdateLineRequest{Quantity: ptr(7.0)})
	require.NoError(t, err)
	require.Equal(t, 7.0, line.Quantity)

	_, err = svc.UpdateLine(ctx, 1, UpdateLineRequest{RawMaterialID: ptr(int64(1))})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	require.NoError(t, svc.DeleteLine(ctx, 1))
	require.Empty(t, repo.lines)
	require.ErrorIs(t, svc.DeleteLine(ctx, 1), shared.ErrNotFound)
}

func TestRefreshCostsRecomputesAtReferenceVolume(t *testing.T) {
	svc, catalog, _ := newFixture(t)
	audit := &memoryAudit{}
	svc.audit = audit
	catalog.costs[2] = items.CostRecord{ItemID: 2, UnitCost: 12, Volume: 1}

	result, err := svc.RefreshCosts(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Updated)
	require.Empty(t, result.Failed)

	rec := catalog.costs[1]
	require.Equal(t, 10.0, rec.Volume)
	require.Equal(t, 120.0, rec.RawMaterialCost)
	require.Equal(t, 12.0, rec.CostPerGallon)
	require.Equal(t, 200.0, rec.TotalCost)
	require.Len(t, audit.logs, 1)
	require.Equal(t, shared.AuditActionRefresh, audit.logs[0].Action)
}

func TestScheduleRefreshPrefersQueue(t *testing.T) {
	svc, catalog, _ := newFixture(t)
	enq := &fakeEnqueuer{}
	svc.SetEnqueuer(enq)

	id, _, err := svc.ScheduleRefresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, "task-1", id)
	require.Equal(t, 1, enq.calls)
	require.Zero(t, catalog.commits)
}

func TestSheetsBuildSurvivesCallerCancellation(t *testing.T) {
	svc, _, repo := newFixture(t)
	repo.started = make(chan struct{}, 1)
	repo.gate = make(chan struct{})
	repo.finished = make(chan error, 1)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := svc.Sheets(ctx)
		errs <- err
	}()

	<-repo.started
	cancel()
	require.ErrorIs(t, <-errs, context.Canceled)

	close(repo.gate)
	require.NoError(t, <-repo.finished)

	repo.started, repo.finished = nil, nil
	sheets, err := svc.Sheets(context.Background())
	require.NoError(t, err)
	require.Len(t, sheets, 1)
}

func TestSheetsAreCachedUntilWrite(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, _, repo := newFixture(t)
	svc.cache = cache.NewVersioned(client, "catalog", time.Minute)
	ctx := context.Background()

	first, err := svc.Sheets(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Len(t, first[0].Lines, 1)
	require.Equal(t, 100.0, first[0].FormulationCost)

	_, err = svc.Sheets(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, repo.sheetRuns)

	_, err = svc.CreateLine(ctx, CreateLineRequest{ProductID: 1, RawMaterialID: 2, Quantity: 1})
	require.NoError(t, err)

	after, err := svc.Sheets(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, repo.sheetRuns)
	require.Len(t, after[0].Lines, 2)
}
