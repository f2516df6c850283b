package supplieritems

import (
	"time"

	"github.com/paintworks/paintworks/internal/items"
)

// SupplierItem is a product in a supplier's catalogue. PriceWithVAT is derived from UnitPrice on write.
type SupplierItem struct {
	ID           int64     `json:"id"`
	SupplierID   int64     `json:"proveedor_id"`
	SupplierName string    `json:"proveedor_nombre"`
	ItemID       *int64    `json:"item_id,omitempty"`
	Name         string    `json:"nombre"`
	Code         string    `json:"codigo"`
	Description  string    `json:"descripcion"`
	Unit         string    `json:"unidad"`
	UnitPrice    float64   `json:"precio_unitario"`
	PriceWithVAT float64   `json:"precio_con_iva"`
	Available    bool      `json:"disponible"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SupplierOption is an active supplier offered when assigning catalogue items.
type SupplierOption struct {
	ID           int64  `json:"id"`
	CompanyName  string `json:"nombre_empresa"`
	TaxID        string `json:"nit"`
	ProductCount int    `json:"total_productos"`
}

// InventoryCheck tells whether a catalogue item already exists in inventory.
type InventoryCheck struct {
	SupplierItem SupplierItem `json:"item_proveedor"`
	InInventory  bool         `json:"existe_en_inventario"`
	Item         *items.Item  `json:"item,omitempty"`
}

// InventoryResult is the outcome of adding a catalogue item to inventory.
type InventoryResult struct {
	SupplierItem SupplierItem `json:"item_proveedor"`
	Item         items.Item   `json:"item"`
	Created      bool         `json:"creado"`
}

// TransferResult reports a bulk move between suppliers.
type TransferResult struct {
	BatchID     string `json:"lote_id"`
	Transferred int    `json:"transferidos"`
}

// GeneralStats summarises every supplier catalogue.
type GeneralStats struct {
	Total           int     `json:"total_productos"`
	Available       int     `json:"productos_disponibles"`
	Linked          int     `json:"vinculados_inventario"`
	Suppliers       int     `json:"proveedores_con_productos"`
	AveragePrice    float64 `json:"precio_promedio"`
	CatalogValue    float64 `json:"valor_catalogo"`
	CatalogValueVAT float64 `json:"valor_catalogo_con_iva"`
}
