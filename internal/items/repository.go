package items

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paintworks/paintworks/internal/platform/db"
	"github.com/paintworks/paintworks/internal/shared"
)

// Repository persists items together with their spec, inventory and cost rows.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context, filter ListFilter) ([]Item, error)
	Get(ctx context.Context, id int64) (Item, error)
	GetByCode(ctx context.Context, code string) (Item, error)
	Create(ctx context.Context, item Item) (int64, error)
	Update(ctx context.Context, id int64, req UpdateItemRequest) error
	SetQuantity(ctx context.Context, id int64, qty float64) error
	GetCosts(ctx context.Context, id int64) (CostRecord, bool, error)
	UpsertCosts(ctx context.Context, id int64, patch CostPatch) error
	CountRawMaterialUsage(ctx context.Context, id int64) (int, error)
	CountFormulationLines(ctx context.Context, id int64) (int, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if _, ok := r.db.(pgx.Tx); ok {
		return fn(ctx, r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const selectItem = `
	SELECT i.id, i.codigo, i.nombre, i.tipo, i.unidad,
	       COALESCE(inv.cantidad, 0), COALESCE(c.costo_unitario, 0),
	       e.item_id IS NOT NULL,
	       COALESCE(e.viscosidad, ''), COALESCE(e.ph, ''), COALESCE(e.color, ''), COALESCE(e.secado, ''),
	       COALESCE(e.cubrimiento, ''), COALESCE(e.molienda, ''), COALESCE(e.poder_tintoreo, ''), COALESCE(e.categoria, ''),
	       i.created_at, i.updated_at
	FROM items i
	LEFT JOIN inventario inv ON inv.item_id = i.id
	LEFT JOIN costos_items c ON c.item_id = i.id
	LEFT JOIN item_especificaciones e ON e.item_id = i.id`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	var hasSpec bool
	var spec TechnicalSpec
	err := row.Scan(
		&it.ID, &it.Code, &it.Name, &it.Kind, &it.Unit,
		&it.Quantity, &it.UnitCost,
		&hasSpec,
		&spec.Viscosity, &spec.PH, &spec.Color, &spec.DryingTime,
		&spec.Coverage, &spec.Grind, &spec.TintingPower, &spec.Category,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return Item{}, err
	}
	if hasSpec && it.Kind.HasFormulation() {
		it.Spec = &spec
	}
	return it, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Item, error) {
	var conditions []string
	var args []any
	if len(filter.Kinds) > 0 {
		kinds := make([]string, 0, len(filter.Kinds))
		for _, k := range filter.Kinds {
			kinds = append(kinds, string(k))
		}
		args = append(args, kinds)
		conditions = append(conditions, fmt.Sprintf("i.tipo = ANY($%d::text[])", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		conditions = append(conditions, fmt.Sprintf("(i.nombre ILIKE $%d OR i.codigo ILIKE $%d)", len(args), len(args)))
	}
	query := selectItem
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY i.nombre, i.id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	result := []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, db.Classify(err)
		}
		result = append(result, it)
	}
	return result, db.Classify(rows.Err())
}

func (r *repository) Get(ctx context.Context, id int64) (Item, error) {
	it, err := scanItem(r.db.QueryRow(ctx, selectItem+" WHERE i.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, shared.NotFound("item", id)
		}
		return Item{}, db.Classify(err)
	}
	return it, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (Item, error) {
	it, err := scanItem(r.db.QueryRow(ctx, selectItem+" WHERE i.codigo = $1", code))
	if err != nil {
		return Item{}, db.Classify(err)
	}
	return it, nil
}

func (r *repository) Create(ctx context.Context, item Item) (int64, error) {
	now := time.Now()
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO items (codigo, nombre, tipo, unidad, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`,
		item.Code, item.Name, string(item.Kind), item.Unit, now,
	).Scan(&id)
	if err != nil {
		return 0, db.Classify(err)
	}
	if item.Spec != nil && item.Kind.HasFormulation() {
		if err := r.upsertSpec(ctx, id, *item.Spec); err != nil {
			return 0, err
		}
	}
	if err := r.SetQuantity(ctx, id, item.Quantity); err != nil {
		return 0, err
	}
	unitCost := item.UnitCost
	if err := r.UpsertCosts(ctx, id, CostPatch{UnitCost: &unitCost}); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) upsertSpec(ctx context.Context, id int64, s TechnicalSpec) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO item_especificaciones (item_id, viscosidad, ph, color, secado, cubrimiento, molienda, poder_tintoreo, categoria)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (item_id) DO UPDATE SET
			viscosidad = EXCLUDED.viscosidad, ph = EXCLUDED.ph, color = EXCLUDED.color, secado = EXCLUDED.secado,
			cubrimiento = EXCLUDED.cubrimiento, molienda = EXCLUDED.molienda,
			poder_tintoreo = EXCLUDED.poder_tintoreo, categoria = EXCLUDED.categoria`,
		id, s.Viscosity, s.PH, s.Color, s.DryingTime, s.Coverage, s.Grind, s.TintingPower, s.Category)
	return db.Classify(err)
}

func (r *repository) Update(ctx context.Context, id int64, req UpdateItemRequest) error {
	var kind *string
	if req.Kind != nil {
		k := string(*req.Kind)
		kind = &k
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE items SET
			codigo = COALESCE($1, codigo),
			nombre = COALESCE($2, nombre),
			tipo = COALESCE($3, tipo),
			unidad = COALESCE($4, unidad),
			updated_at = NOW()
		WHERE id = $5`,
		req.Code, req.Name, kind, req.Unit, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("item", id)
	}
	if req.Kind != nil && !req.Kind.HasFormulation() {
		if _, err := r.db.Exec(ctx, `DELETE FROM item_especificaciones WHERE item_id = $1`, id); err != nil {
			return db.Classify(err)
		}
	} else if req.Spec != nil {
		if err := r.upsertSpec(ctx, id, *req.Spec); err != nil {
			return err
		}
	}
	if req.Quantity != nil {
		if err := r.SetQuantity(ctx, id, *req.Quantity); err != nil {
			return err
		}
	}
	if req.UnitCost != nil {
		if err := r.UpsertCosts(ctx, id, CostPatch{UnitCost: req.UnitCost}); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) SetQuantity(ctx context.Context, id int64, qty float64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO inventario (item_id, cantidad, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (item_id) DO UPDATE SET cantidad = EXCLUDED.cantidad, updated_at = NOW()`,
		id, qty)
	return db.Classify(err)
}

func (r *repository) GetCosts(ctx context.Context, id int64) (CostRecord, bool, error) {
	rec := CostRecord{ItemID: id}
	err := r.db.QueryRow(ctx, `
		SELECT costo_unitario, costo_mp, costo_mp_galon, costo_mp_kg, envase, etiqueta, bandeja, plastico,
		       costo_mod, volumen, cantidad_total, costo_total, precio_venta, updated_at
		FROM costos_items WHERE item_id = $1`, id,
	).Scan(
		&rec.UnitCost, &rec.RawMaterialCost, &rec.CostPerGallon, &rec.CostPerKg,
		&rec.Container, &rec.Label, &rec.Tray, &rec.Plastic,
		&rec.Labor, &rec.Volume, &rec.TotalQuantity, &rec.TotalCost, &rec.SalePrice, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return CostRecord{ItemID: id}, false, nil
	}
	if err != nil {
		return CostRecord{}, false, db.Classify(err)
	}
	return rec, true, nil
}

func (r *repository) UpsertCosts(ctx context.Context, id int64, patch CostPatch) error {
	cols, vals := patch.Columns()
	if len(cols) == 0 {
		return nil
	}
	placeholders := make([]string, len(cols))
	updates := make([]string, len(cols))
	args := append([]any{id}, vals...)
	for i, col := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		updates[i] = fmt.Sprintf("%s = EXCLUDED.%s", col, col)
	}
	query := fmt.Sprintf(`
		INSERT INTO costos_items (item_id, %s, updated_at) VALUES ($1, %s, NOW())
		ON CONFLICT (item_id) DO UPDATE SET %s, updated_at = NOW()`,
		strings.Join(cols, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "))
	_, err := r.db.Exec(ctx, query, args...)
	return db.Classify(err)
}

func (r *repository) CountRawMaterialUsage(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM formulaciones WHERE materia_prima_id = $1 AND producto_id <> $1`, id).Scan(&n)
	return n, db.Classify(err)
}

func (r *repository) CountFormulationLines(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM formulaciones WHERE producto_id = $1`, id).Scan(&n)
	return n, db.Classify(err)
}

// Delete removes the item and the rows it owns. Formulation lines of the item go first,
// then its cost record, inventory record, spec and finally the item row.
func (r *repository) Delete(ctx context.Context, id int64) error {
	statements := []string{
		`DELETE FROM formulaciones WHERE producto_id = $1`,
		`DELETE FROM costos_items WHERE item_id = $1`,
		`DELETE FROM inventario WHERE item_id = $1`,
		`DELETE FROM item_especificaciones WHERE item_id = $1`,
		`UPDATE item_proveedor SET item_id = NULL WHERE item_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := r.db.Exec(ctx, stmt, id); err != nil {
			return db.Classify(err)
		}
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("item", id)
	}
	return nil
}
