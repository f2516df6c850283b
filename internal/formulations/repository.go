package formulations

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paintworks/paintworks/internal/items"
	"github.com/paintworks/paintworks/internal/platform/db"
	"github.com/paintworks/paintworks/internal/shared"
)

// Repository persists formulation lines and builds the joined read views.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	ListSheets(ctx context.Context) ([]Sheet, error)
	Lines(ctx context.Context, productID int64) ([]BOMLine, error)
	GetLine(ctx context.Context, id int64) (Line, error)
	CreateLine(ctx context.Context, line Line) (int64, error)
	UpdateLine(ctx context.Context, id int64, req UpdateLineRequest) error
	DeleteLine(ctx context.Context, id int64) error
	FormulatedItemIDs(ctx context.Context) ([]int64, error)
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

const selectBOM = `
	SELECT f.id, f.producto_id, f.materia_prima_id, mp.codigo, mp.nombre,
	       COALESCE(NULLIF(f.unidad, ''), mp.unidad), f.cantidad, COALESCE(c.costo_unitario, 0)
	FROM formulaciones f
	JOIN items mp ON mp.id = f.materia_prima_id
	LEFT JOIN costos_items c ON c.item_id = mp.id`

func (r *repository) queryBOM(ctx context.Context, where string, args ...any) (map[int64][]BOMLine, error) {
	rows, err := r.db.Query(ctx, selectBOM+where+" ORDER BY f.producto_id, f.id", args...)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	byProduct := make(map[int64][]BOMLine)
	for rows.Next() {
		var l BOMLine
		var productID int64
		if err := rows.Scan(&l.ID, &productID, &l.RawMaterialID, &l.Code, &l.Name, &l.Unit, &l.Quantity, &l.UnitCost); err != nil {
			return nil, db.Classify(err)
		}
		l.LineCost = shared.Num(l.Quantity) * shared.Num(l.UnitCost)
		byProduct[productID] = append(byProduct[productID], l)
	}
	return byProduct, db.Classify(rows.Err())
}

func (r *repository) ListSheets(ctx context.Context) ([]Sheet, error) {
	rows, err := r.db.Query(ctx, `
		SELECT i.id, i.codigo, i.nombre, i.tipo, i.unidad,
		       COALESCE(c.costo_unitario, 0), COALESCE(c.costo_mp, 0), COALESCE(c.costo_mp_galon, 0), COALESCE(c.costo_mp_kg, 0),
		       COALESCE(c.envase, 0), COALESCE(c.etiqueta, 0), COALESCE(c.bandeja, 0), COALESCE(c.plastico, 0),
		       COALESCE(c.costo_mod, 0), COALESCE(c.volumen, 1), COALESCE(c.cantidad_total, 0),
		       COALESCE(c.costo_total, 0), COALESCE(c.precio_venta, 0)
		FROM items i
		LEFT JOIN costos_items c ON c.item_id = i.id
		WHERE i.tipo IN ('producto', 'insumo')
		ORDER BY i.nombre, i.id`)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	sheets := []Sheet{}
	for rows.Next() {
		var s Sheet
		rec := &s.Costs
		if err := rows.Scan(
			&s.Item.ID, &s.Item.Code, &s.Item.Name, &s.Item.Kind, &s.Item.Unit,
			&rec.UnitCost, &rec.RawMaterialCost, &rec.CostPerGallon, &rec.CostPerKg,
			&rec.Container, &rec.Label, &rec.Tray, &rec.Plastic,
			&rec.Labor, &rec.Volume, &rec.TotalQuantity, &rec.TotalCost, &rec.SalePrice,
		); err != nil {
			return nil, db.Classify(err)
		}
		rec.ItemID = s.Item.ID
		sheets = append(sheets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err)
	}
	rows.Close()

	bom, err := r.queryBOM(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range sheets {
		sheets[i].Lines = bom[sheets[i].Item.ID]
		if sheets[i].Lines == nil {
			sheets[i].Lines = []BOMLine{}
		}
		sheets[i].FormulationCost = FormulationCost(sheets[i].Lines)
	}
	return sheets, nil
}

func (r *repository) Lines(ctx context.Context, productID int64) ([]BOMLine, error) {
	bom, err := r.queryBOM(ctx, " WHERE f.producto_id = $1", productID)
	if err != nil {
		return nil, err
	}
	lines := bom[productID]
	if lines == nil {
		lines = []BOMLine{}
	}
	return lines, nil
}

func (r *repository) GetLine(ctx context.Context, id int64) (Line, error) {
	var l Line
	err := r.db.QueryRow(ctx,
		`SELECT id, producto_id, materia_prima_id, cantidad, unidad, created_at FROM formulaciones WHERE id = $1`, id,
	).Scan(&l.ID, &l.ProductID, &l.RawMaterialID, &l.Quantity, &l.Unit, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Line{}, shared.NotFound("formulacion", id)
	}
	if err != nil {
		return Line{}, db.Classify(err)
	}
	return l, nil
}

func (r *repository) CreateLine(ctx context.Context, line Line) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO formulaciones (producto_id, materia_prima_id, cantidad, unidad) VALUES ($1, $2, $3, $4) RETURNING id`,
		line.ProductID, line.RawMaterialID, line.Quantity, line.Unit,
	).Scan(&id)
	if err != nil {
		return 0, db.Classify(err)
	}
	return id, nil
}

func (r *repository) UpdateLine(ctx context.Context, id int64, req UpdateLineRequest) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE formulaciones SET
			materia_prima_id = COALESCE($1, materia_prima_id),
			cantidad = COALESCE($2, cantidad),
			unidad = COALESCE($3, unidad)
		WHERE id = $4`,
		req.RawMaterialID, req.Quantity, req.Unit, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("formulacion", id)
	}
	return nil
}

func (r *repository) DeleteLine(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM formulaciones WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("formulacion", id)
	}
	return nil
}

func (r *repository) FormulatedItemIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM items WHERE tipo = ANY($1::text[]) ORDER BY id`,
		[]string{string(items.KindProduct), string(items.KindSupply)})
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, db.Classify(err)
		}
		ids = append(ids, id)
	}
	return ids, db.Classify(rows.Err())
}
