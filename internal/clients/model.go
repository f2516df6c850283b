package clients

import "time"

// Invoice statuses.
const (
	InvoicePending = "pendiente"
	InvoicePaid    = "pagada"
	InvoiceVoid    = "anulada"
)

// Balance is the account summary carried by every client read. Voided invoices are left out.
type Balance struct {
	InvoiceCount  int     `json:"total_facturas"`
	PaymentCount  int     `json:"total_pagos"`
	TotalInvoiced float64 `json:"total_facturado"`
	TotalPaid     float64 `json:"total_pagado"`
	Outstanding   float64 `json:"saldo_pendiente"`
}

// Client is a customer company.
type Client struct {
	ID          int64     `json:"id"`
	CompanyName string    `json:"nombre_empresa"`
	TaxID       string    `json:"nit"`
	Contact     string    `json:"contacto"`
	Phone       string    `json:"telefono"`
	Email       string    `json:"email"`
	Address     string    `json:"direccion"`
	City        string    `json:"ciudad"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Balance
}

// Invoice is a sale billed to a client.
type Invoice struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"cliente_id"`
	Number    string    `json:"numero"`
	Date      time.Time `json:"fecha"`
	Total     float64   `json:"total"`
	Status    string    `json:"estado"`
	CreatedAt time.Time `json:"created_at"`
}

// Payment is money received from a client, optionally applied to one invoice.
type Payment struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"cliente_id"`
	InvoiceID *int64    `json:"factura_id,omitempty"`
	Date      time.Time `json:"fecha"`
	Amount    float64   `json:"monto"`
	Method    string    `json:"metodo"`
	CreatedAt time.Time `json:"created_at"`
}

// Totals aggregates one money column of a client.
type Totals struct {
	Count int        `json:"cantidad"`
	Sum   float64    `json:"total"`
	Last  *time.Time `json:"ultima_fecha,omitempty"`
}

// Stats summarises a client's account. Outstanding is invoiced minus paid.
type Stats struct {
	ClientID      int64      `json:"cliente_id"`
	InvoiceCount  int        `json:"total_facturas"`
	PaymentCount  int        `json:"total_pagos"`
	TotalInvoiced float64    `json:"total_facturado"`
	TotalPaid     float64    `json:"total_pagado"`
	Outstanding   float64    `json:"saldo_pendiente"`
	LastInvoice   *time.Time `json:"ultima_factura,omitempty"`
	LastPayment   *time.Time `json:"ultimo_pago,omitempty"`
}
