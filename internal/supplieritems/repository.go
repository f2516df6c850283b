package supplieritems

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paintworks/paintworks/internal/platform/db"
	"github.com/paintworks/paintworks/internal/shared"
)

// Repository persists supplier catalogue items.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context) ([]SupplierItem, error)
	Search(ctx context.Context, term string) ([]SupplierItem, error)
	BySupplier(ctx context.Context, supplierID int64) ([]SupplierItem, error)
	Get(ctx context.Context, id int64) (SupplierItem, error)
	Create(ctx context.Context, si SupplierItem) (int64, error)
	Update(ctx context.Context, si SupplierItem) error
	Delete(ctx context.Context, id int64) error
	SupplierActive(ctx context.Context, supplierID int64) (bool, error)
	ActiveSuppliers(ctx context.Context) ([]SupplierOption, error)
	LinkItem(ctx context.Context, id, itemID int64) error
	MoveToSupplier(ctx context.Context, ids []int64, from, to int64) (int, error)
	MoveAll(ctx context.Context, from, to int64) (int, error)
	Stats(ctx context.Context) (GeneralStats, error)
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

const selectSupplierItem = `
	SELECT ip.id, ip.proveedor_id, p.nombre_empresa, ip.item_id, ip.nombre, ip.codigo, ip.descripcion, ip.unidad,
	       ip.precio_unitario, ip.precio_con_iva, ip.disponible, ip.created_at, ip.updated_at
	FROM item_proveedor ip
	JOIN proveedores p ON p.id = ip.proveedor_id`

func scanSupplierItem(row pgx.Row) (SupplierItem, error) {
	var si SupplierItem
	err := row.Scan(&si.ID, &si.SupplierID, &si.SupplierName, &si.ItemID, &si.Name, &si.Code, &si.Description, &si.Unit,
		&si.UnitPrice, &si.PriceWithVAT, &si.Available, &si.CreatedAt, &si.UpdatedAt)
	return si, err
}

func (r *repository) query(ctx context.Context, query string, args ...any) ([]SupplierItem, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	result := []SupplierItem{}
	for rows.Next() {
		si, err := scanSupplierItem(rows)
		if err != nil {
			return nil, db.Classify(err)
		}
		result = append(result, si)
	}
	return result, db.Classify(rows.Err())
}

func (r *repository) List(ctx context.Context) ([]SupplierItem, error) {
	return r.query(ctx, selectSupplierItem+` ORDER BY ip.nombre, ip.id`)
}

func (r *repository) Search(ctx context.Context, term string) ([]SupplierItem, error) {
	return r.query(ctx, selectSupplierItem+`
		WHERE ip.nombre ILIKE $1 OR ip.codigo ILIKE $1 OR ip.descripcion ILIKE $1 OR p.nombre_empresa ILIKE $1
		ORDER BY ip.nombre, ip.id`, "%"+strings.TrimSpace(term)+"%")
}

func (r *repository) BySupplier(ctx context.Context, supplierID int64) ([]SupplierItem, error) {
	return r.query(ctx, selectSupplierItem+` WHERE ip.proveedor_id = $1 ORDER BY ip.nombre, ip.id`, supplierID)
}

func (r *repository) Get(ctx context.Context, id int64) (SupplierItem, error) {
	si, err := scanSupplierItem(r.db.QueryRow(ctx, selectSupplierItem+` WHERE ip.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return SupplierItem{}, shared.NotFound("item_proveedor", id)
	}
	if err != nil {
		return SupplierItem{}, db.Classify(err)
	}
	return si, nil
}

func (r *repository) Create(ctx context.Context, si SupplierItem) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO item_proveedor (proveedor_id, nombre, codigo, descripcion, unidad, precio_unitario, precio_con_iva, disponible)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		si.SupplierID, si.Name, si.Code, si.Description, si.Unit, si.UnitPrice, si.PriceWithVAT, si.Available,
	).Scan(&id)
	if err != nil {
		return 0, db.Classify(err)
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, si SupplierItem) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE item_proveedor SET nombre = $1, codigo = $2, descripcion = $3, unidad = $4,
			precio_unitario = $5, precio_con_iva = $6, disponible = $7, updated_at = NOW()
		WHERE id = $8`,
		si.Name, si.Code, si.Description, si.Unit, si.UnitPrice, si.PriceWithVAT, si.Available, si.ID)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("item_proveedor", si.ID)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM item_proveedor WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("item_proveedor", id)
	}
	return nil
}

func (r *repository) SupplierActive(ctx context.Context, supplierID int64) (bool, error) {
	var active bool
	err := r.db.QueryRow(ctx, `SELECT activo FROM proveedores WHERE id = $1`, supplierID).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, shared.NotFound("proveedor", supplierID)
	}
	return active, db.Classify(err)
}

func (r *repository) ActiveSuppliers(ctx context.Context) ([]SupplierOption, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.id, p.nombre_empresa, p.nit, COUNT(ip.id)
		FROM proveedores p
		LEFT JOIN item_proveedor ip ON ip.proveedor_id = p.id
		WHERE p.activo
		GROUP BY p.id, p.nombre_empresa, p.nit
		ORDER BY p.nombre_empresa, p.id`)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	result := []SupplierOption{}
	for rows.Next() {
		var o SupplierOption
		if err := rows.Scan(&o.ID, &o.CompanyName, &o.TaxID, &o.ProductCount); err != nil {
			return nil, db.Classify(err)
		}
		result = append(result, o)
	}
	return result, db.Classify(rows.Err())
}

func (r *repository) LinkItem(ctx context.Context, id, itemID int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE item_proveedor SET item_id = $1, updated_at = NOW() WHERE id = $2`, itemID, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("item_proveedor", id)
	}
	return nil
}

func (r *repository) MoveToSupplier(ctx context.Context, ids []int64, from, to int64) (int, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE item_proveedor SET proveedor_id = $1, updated_at = NOW()
		WHERE id = ANY($2::bigint[]) AND proveedor_id = $3`, to, ids, from)
	if err != nil {
		return 0, db.Classify(err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *repository) MoveAll(ctx context.Context, from, to int64) (int, error) {
	tag, err := r.db.Exec(ctx, `UPDATE item_proveedor SET proveedor_id = $1, updated_at = NOW() WHERE proveedor_id = $2`, to, from)
	if err != nil {
		return 0, db.Classify(err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *repository) Stats(ctx context.Context) (GeneralStats, error) {
	var s GeneralStats
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE disponible),
		       COUNT(*) FILTER (WHERE item_id IS NOT NULL),
		       COUNT(DISTINCT proveedor_id),
		       COALESCE(AVG(precio_unitario), 0),
		       COALESCE(SUM(precio_unitario), 0),
		       COALESCE(SUM(precio_con_iva), 0)
		FROM item_proveedor`,
	).Scan(&s.Total, &s.Available, &s.Linked, &s.Suppliers, &s.AveragePrice, &s.CatalogValue, &s.CatalogValueVAT)
	return s, db.Classify(err)
}
