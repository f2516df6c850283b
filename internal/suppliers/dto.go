package suppliers

// SupplierRequest is the payload of POST and PUT /proveedores. Active defaults to true on create.
type SupplierRequest struct {
	CompanyName string `json:"nombre_empresa" validate:"required,max=200"`
	TaxID       string `json:"nit" validate:"required,max=30"`
	Contact     string `json:"contacto" validate:"max=200"`
	Phone       string `json:"telefono" validate:"max=30"`
	Email       string `json:"email" validate:"omitempty,email,max=200"`
	Address     string `json:"direccion" validate:"max=300"`
	City        string `json:"ciudad" validate:"max=100"`
	Active      *bool  `json:"activo,omitempty"`
}
