package suppliers

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paintworks/paintworks/internal/platform/db"
	"github.com/paintworks/paintworks/internal/shared"
)

// Repository persists suppliers and reads their catalogue.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context) ([]Supplier, error)
	Search(ctx context.Context, term string) ([]Supplier, error)
	Get(ctx context.Context, id int64) (Supplier, error)
	Create(ctx context.Context, s Supplier) (int64, error)
	Update(ctx context.Context, s Supplier) error
	Delete(ctx context.Context, id int64) error
	CountProducts(ctx context.Context, supplierID int64) (int, error)
	Products(ctx context.Context, supplierID int64) ([]Product, error)
	Counts(ctx context.Context, supplierID int64) (Counts, error)
	Prices(ctx context.Context, supplierID int64) (Prices, error)
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

const selectSupplier = `
	SELECT s.id, s.nombre_empresa, s.nit, s.contacto, s.telefono, s.email, s.direccion, s.ciudad, s.activo,
	       s.created_at, s.updated_at, COALESCE(ip.cantidad, 0), COALESCE(ip.disponibles, 0)
	FROM proveedores s
	LEFT JOIN (
		SELECT proveedor_id, COUNT(*) AS cantidad, COUNT(*) FILTER (WHERE disponible) AS disponibles
		FROM item_proveedor GROUP BY proveedor_id
	) ip ON ip.proveedor_id = s.id`

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(
		&s.ID, &s.CompanyName, &s.TaxID, &s.Contact, &s.Phone, &s.Email, &s.Address, &s.City, &s.Active,
		&s.CreatedAt, &s.UpdatedAt, &s.ProductCount, &s.AvailableCount,
	)
	return s, err
}

func (r *repository) querySuppliers(ctx context.Context, query string, args ...any) ([]Supplier, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	result := []Supplier{}
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, db.Classify(err)
		}
		result = append(result, s)
	}
	return result, db.Classify(rows.Err())
}

func (r *repository) List(ctx context.Context) ([]Supplier, error) {
	return r.querySuppliers(ctx, selectSupplier+` ORDER BY s.nombre_empresa, s.id`)
}

func (r *repository) Search(ctx context.Context, term string) ([]Supplier, error) {
	return r.querySuppliers(ctx, selectSupplier+`
		WHERE s.nombre_empresa ILIKE $1 OR s.nit ILIKE $1 OR s.contacto ILIKE $1 OR s.ciudad ILIKE $1
		ORDER BY s.nombre_empresa, s.id`, "%"+strings.TrimSpace(term)+"%")
}

func (r *repository) Get(ctx context.Context, id int64) (Supplier, error) {
	s, err := scanSupplier(r.db.QueryRow(ctx, selectSupplier+` WHERE s.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, shared.NotFound("proveedor", id)
	}
	if err != nil {
		return Supplier{}, db.Classify(err)
	}
	return s, nil
}

func (r *repository) Create(ctx context.Context, s Supplier) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO proveedores (nombre_empresa, nit, contacto, telefono, email, direccion, ciudad, activo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		s.CompanyName, s.TaxID, s.Contact, s.Phone, s.Email, s.Address, s.City, s.Active,
	).Scan(&id)
	if err != nil {
		return 0, db.Classify(err)
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, s Supplier) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE proveedores SET nombre_empresa = $1, nit = $2, contacto = $3, telefono = $4, email = $5,
			direccion = $6, ciudad = $7, activo = $8, updated_at = NOW()
		WHERE id = $9`,
		s.CompanyName, s.TaxID, s.Contact, s.Phone, s.Email, s.Address, s.City, s.Active, s.ID)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("proveedor", s.ID)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM proveedores WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("proveedor", id)
	}
	return nil
}

func (r *repository) CountProducts(ctx context.Context, supplierID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM item_proveedor WHERE proveedor_id = $1`, supplierID).Scan(&n)
	return n, db.Classify(err)
}

func (r *repository) Products(ctx context.Context, supplierID int64) ([]Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, item_id, nombre, codigo, descripcion, unidad, precio_unitario, precio_con_iva, disponible
		FROM item_proveedor WHERE proveedor_id = $1 ORDER BY nombre, id`, supplierID)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	result := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.ItemID, &p.Name, &p.Code, &p.Description, &p.Unit, &p.UnitPrice, &p.PriceWithVAT, &p.Available); err != nil {
			return nil, db.Classify(err)
		}
		result = append(result, p)
	}
	return result, db.Classify(rows.Err())
}

func (r *repository) Counts(ctx context.Context, supplierID int64) (Counts, error) {
	var c Counts
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE disponible),
		       COUNT(*) FILTER (WHERE item_id IS NOT NULL)
		FROM item_proveedor WHERE proveedor_id = $1`, supplierID,
	).Scan(&c.Products, &c.Available, &c.Linked)
	return c, db.Classify(err)
}

func (r *repository) Prices(ctx context.Context, supplierID int64) (Prices, error) {
	var p Prices
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(AVG(precio_unitario), 0), COALESCE(MIN(precio_unitario), 0),
		       COALESCE(MAX(precio_unitario), 0), COALESCE(SUM(precio_con_iva), 0)
		FROM item_proveedor WHERE proveedor_id = $1`, supplierID,
	).Scan(&p.Average, &p.Min, &p.Max, &p.CatalogValue)
	return p, db.Classify(err)
}
