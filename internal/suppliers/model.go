package suppliers

import "time"

// Supplier is a vendor company. The product counts are aggregated on every read.
type Supplier struct {
	ID          int64     `json:"id"`
	CompanyName string    `json:"nombre_empresa"`
	TaxID       string    `json:"nit"`
	Contact     string    `json:"contacto"`
	Phone       string    `json:"telefono"`
	Email       string    `json:"email"`
	Address     string    `json:"direccion"`
	City        string    `json:"ciudad"`
	Active      bool      `json:"activo"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	ProductCount   int `json:"total_productos"`
	AvailableCount int `json:"productos_disponibles"`
}

// Product is a catalogue entry offered by a supplier.
type Product struct {
	ID           int64   `json:"id"`
	ItemID       *int64  `json:"item_id,omitempty"`
	Name         string  `json:"nombre"`
	Code         string  `json:"codigo"`
	Description  string  `json:"descripcion"`
	Unit         string  `json:"unidad"`
	UnitPrice    float64 `json:"precio_unitario"`
	PriceWithVAT float64 `json:"precio_con_iva"`
	Available    bool    `json:"disponible"`
}

// Counts are the catalogue size figures of a supplier.
type Counts struct {
	Products  int `json:"total_productos"`
	Available int `json:"productos_disponibles"`
	Linked    int `json:"vinculados_inventario"`
}

// Prices are the catalogue price figures of a supplier, before VAT.
type Prices struct {
	Average      float64 `json:"precio_promedio"`
	Min          float64 `json:"precio_minimo"`
	Max          float64 `json:"precio_maximo"`
	CatalogValue float64 `json:"valor_catalogo_con_iva"`
}

// Stats summarises a supplier's catalogue.
type Stats struct {
	SupplierID int64 `json:"proveedor_id"`
	Counts
	Prices
}
