package supplieritems

import "github.com/paintworks/paintworks/internal/items"

// CreateRequest is the payload of POST /item-proveedor.
type CreateRequest struct {
	SupplierID  int64   `json:"proveedor_id" validate:"required,gt=0"`
	Name        string  `json:"nombre" validate:"required,max=200"`
	Code        string  `json:"codigo" validate:"max=50"`
	Description string  `json:"descripcion" validate:"max=500"`
	Unit        string  `json:"unidad" validate:"max=20"`
	UnitPrice   float64 `json:"precio_unitario" validate:"gte=0"`
	Available   *bool   `json:"disponible,omitempty"`
}

// UpdateRequest is the payload of PUT /item-proveedor/{id}; nil fields are left untouched.
type UpdateRequest struct {
	Name        *string  `json:"nombre,omitempty" validate:"omitempty,min=1,max=200"`
	Code        *string  `json:"codigo,omitempty" validate:"omitempty,max=50"`
	Description *string  `json:"descripcion,omitempty" validate:"omitempty,max=500"`
	Unit        *string  `json:"unidad,omitempty" validate:"omitempty,max=20"`
	UnitPrice   *float64 `json:"precio_unitario,omitempty" validate:"omitempty,gte=0"`
	Available   *bool    `json:"disponible,omitempty"`
}

// AddInventoryRequest is the payload of POST /item-proveedor/{id}/agregar-inventario.
// Kind only applies when a new inventory item is created; it defaults to materia_prima.
// IdempotencyKey comes from the Idempotency-Key header.
type AddInventoryRequest struct {
	Quantity       float64    `json:"cantidad" validate:"gt=0"`
	Kind           items.Kind `json:"tipo" validate:"omitempty,oneof=producto materia_prima insumo"`
	IdempotencyKey string     `json:"-"`
}

// ChangeSupplierRequest is the payload of PUT /item-proveedor/{id}/cambiar-proveedor.
type ChangeSupplierRequest struct {
	SupplierID int64 `json:"proveedor_id" validate:"required,gt=0"`
}

// TransferRequest is the payload of POST /item-proveedor/transferir-productos.
// An empty ItemIDs moves the whole catalogue of the source supplier.
type TransferRequest struct {
	FromSupplierID int64   `json:"proveedor_origen_id" validate:"required,gt=0"`
	ToSupplierID   int64   `json:"proveedor_destino_id" validate:"required,gt=0"`
	ItemIDs        []int64 `json:"item_ids" validate:"omitempty,dive,gt=0"`
}
