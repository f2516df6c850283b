package clients

// ClientRequest is the payload of POST and PUT /clientes.
type ClientRequest struct {
	CompanyName string `json:"nombre_empresa" validate:"required,max=200"`
	TaxID       string `json:"nit" validate:"required,max=30"`
	Contact     string `json:"contacto" validate:"max=200"`
	Phone       string `json:"telefono" validate:"max=30"`
	Email       string `json:"email" validate:"omitempty,email,max=200"`
	Address     string `json:"direccion" validate:"max=300"`
	City        string `json:"ciudad" validate:"max=100"`
}

// InvoiceRequest is the payload of POST /clientes/{id}/facturas. Date is YYYY-MM-DD, today when empty.
type InvoiceRequest struct {
	Number string  `json:"numero" validate:"required,max=50"`
	Date   string  `json:"fecha" validate:"omitempty,datetime=2006-01-02"`
	Total  float64 `json:"total" validate:"gte=0"`
	Status string  `json:"estado" validate:"omitempty,oneof=pendiente pagada anulada"`
}

// PaymentRequest is the payload of POST /clientes/{id}/pagos.
type PaymentRequest struct {
	InvoiceID *int64  `json:"factura_id,omitempty" validate:"omitempty,gt=0"`
	Date      string  `json:"fecha" validate:"omitempty,datetime=2006-01-02"`
	Amount    float64 `json:"monto" validate:"gt=0"`
	Method    string  `json:"metodo" validate:"max=50"`
}
