package clients

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paintworks/paintworks/internal/platform/db"
	"github.com/paintworks/paintworks/internal/shared"
)

// Repository persists clients with their invoices and payments.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context) ([]Client, error)
	Search(ctx context.Context, term string) ([]Client, error)
	Get(ctx context.Context, id int64) (Client, error)
	Create(ctx context.Context, c Client) (int64, error)
	Update(ctx context.Context, c Client) error
	Delete(ctx context.Context, id int64) error
	CountInvoices(ctx context.Context, clientID int64) (int, error)
	CountPayments(ctx context.Context, clientID int64) (int, error)
	Invoices(ctx context.Context, clientID int64) ([]Invoice, error)
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
	CreateInvoice(ctx context.Context, inv Invoice) (int64, error)
	Payments(ctx context.Context, clientID int64) ([]Payment, error)
	CreatePayment(ctx context.Context, p Payment) (int64, error)
	InvoiceTotals(ctx context.Context, clientID int64) (Totals, error)
	PaymentTotals(ctx context.Context, clientID int64) (Totals, error)
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

const selectClient = `
	SELECT c.id, c.nombre_empresa, c.nit, c.contacto, c.telefono, c.email, c.direccion, c.ciudad,
	       c.created_at, c.updated_at,
	       COALESCE(f.cantidad, 0), COALESCE(f.total, 0), COALESCE(p.cantidad, 0), COALESCE(p.total, 0)
	FROM clientes c
	LEFT JOIN (
		SELECT cliente_id, COUNT(*) AS cantidad, SUM(total) AS total
		FROM facturas WHERE estado <> 'anulada' GROUP BY cliente_id
	) f ON f.cliente_id = c.id
	LEFT JOIN (
		SELECT cliente_id, COUNT(*) AS cantidad, SUM(monto) AS total
		FROM pagos GROUP BY cliente_id
	) p ON p.cliente_id = c.id`

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(
		&c.ID, &c.CompanyName, &c.TaxID, &c.Contact, &c.Phone, &c.Email, &c.Address, &c.City,
		&c.CreatedAt, &c.UpdatedAt,
		&c.InvoiceCount, &c.TotalInvoiced, &c.PaymentCount, &c.TotalPaid,
	)
	c.Outstanding = shared.RoundCents(c.TotalInvoiced - c.TotalPaid)
	return c, err
}

func (r *repository) queryClients(ctx context.Context, query string, args ...any) ([]Client, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	result := []Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, db.Classify(err)
		}
		result = append(result, c)
	}
	return result, db.Classify(rows.Err())
}

func (r *repository) List(ctx context.Context) ([]Client, error) {
	return r.queryClients(ctx, selectClient+` ORDER BY c.nombre_empresa, c.id`)
}

func (r *repository) Search(ctx context.Context, term string) ([]Client, error) {
	pattern := "%" + strings.TrimSpace(term) + "%"
	return r.queryClients(ctx, selectClient+`
		WHERE c.nombre_empresa ILIKE $1 OR c.nit ILIKE $1 OR c.contacto ILIKE $1 OR c.email ILIKE $1 OR c.ciudad ILIKE $1
		ORDER BY c.nombre_empresa, c.id`, pattern)
}

func (r *repository) Get(ctx context.Context, id int64) (Client, error) {
	c, err := scanClient(r.db.QueryRow(ctx, selectClient+` WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, shared.NotFound("cliente", id)
	}
	if err != nil {
		return Client{}, db.Classify(err)
	}
	return c, nil
}

func (r *repository) Create(ctx context.Context, c Client) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO clientes (nombre_empresa, nit, contacto, telefono, email, direccion, ciudad)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		c.CompanyName, c.TaxID, c.Contact, c.Phone, c.Email, c.Address, c.City,
	).Scan(&id)
	if err != nil {
		return 0, db.Classify(err)
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, c Client) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE clientes SET nombre_empresa = $1, nit = $2, contacto = $3, telefono = $4, email = $5,
			direccion = $6, ciudad = $7, updated_at = NOW()
		WHERE id = $8`,
		c.CompanyName, c.TaxID, c.Contact, c.Phone, c.Email, c.Address, c.City, c.ID)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("cliente", c.ID)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM clientes WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("cliente", id)
	}
	return nil
}

func (r *repository) count(ctx context.Context, query string, id int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, query, id).Scan(&n)
	return n, db.Classify(err)
}

func (r *repository) CountInvoices(ctx context.Context, clientID int64) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM facturas WHERE cliente_id = $1`, clientID)
}

func (r *repository) CountPayments(ctx context.Context, clientID int64) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM pagos WHERE cliente_id = $1`, clientID)
}

const selectInvoice = `SELECT id, cliente_id, numero, fecha, total, estado, created_at FROM facturas`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.ClientID, &inv.Number, &inv.Date, &inv.Total, &inv.Status, &inv.CreatedAt)
	return inv, err
}

func (r *repository) Invoices(ctx context.Context, clientID int64) ([]Invoice, error) {
	rows, err := r.db.Query(ctx, selectInvoice+` WHERE cliente_id = $1 ORDER BY fecha DESC, id DESC`, clientID)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	result := []Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, db.Classify(err)
		}
		result = append(result, inv)
	}
	return result, db.Classify(rows.Err())
}

func (r *repository) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, selectInvoice+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, shared.NotFound("factura", id)
	}
	if err != nil {
		return Invoice{}, db.Classify(err)
	}
	return inv, nil
}

func (r *repository) CreateInvoice(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO facturas (cliente_id, numero, fecha, total, estado) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		inv.ClientID, inv.Number, inv.Date, inv.Total, inv.Status,
	).Scan(&id)
	if err != nil {
		return 0, db.Classify(err)
	}
	return id, nil
}

func (r *repository) Payments(ctx context.Context, clientID int64) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, cliente_id, factura_id, fecha, monto, metodo, created_at
		FROM pagos WHERE cliente_id = $1 ORDER BY fecha DESC, id DESC`, clientID)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	result := []Payment{}
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.ClientID, &p.InvoiceID, &p.Date, &p.Amount, &p.Method, &p.CreatedAt); err != nil {
			return nil, db.Classify(err)
		}
		result = append(result, p)
	}
	return result, db.Classify(rows.Err())
}

func (r *repository) CreatePayment(ctx context.Context, p Payment) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO pagos (cliente_id, factura_id, fecha, monto, metodo) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		p.ClientID, p.InvoiceID, p.Date, p.Amount, p.Method,
	).Scan(&id)
	if err != nil {
		return 0, db.Classify(err)
	}
	return id, nil
}

func (r *repository) totals(ctx context.Context, query string, clientID int64) (Totals, error) {
	var t Totals
	var last *time.Time
	err := r.db.QueryRow(ctx, query, clientID).Scan(&t.Count, &t.Sum, &last)
	if err != nil {
		return Totals{}, db.Classify(err)
	}
	t.Last = last
	return t, nil
}

func (r *repository) InvoiceTotals(ctx context.Context, clientID int64) (Totals, error) {
	return r.totals(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total), 0), MAX(fecha)::timestamptz
		FROM facturas WHERE cliente_id = $1 AND estado <> 'anulada'`, clientID)
}

func (r *repository) PaymentTotals(ctx context.Context, clientID int64) (Totals, error) {
	return r.totals(ctx, `
		SELECT COUNT(*), COALESCE(SUM(monto), 0), MAX(fecha)::timestamptz
		FROM pagos WHERE cliente_id = $1`, clientID)
}
