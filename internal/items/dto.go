package items

// CreateItemRequest is the payload of POST /items.
type CreateItemRequest struct {
	Code     string         `json:"codigo" validate:"required,max=50"`
	Name     string         `json:"nombre" validate:"required,max=200"`
	Kind     Kind           `json:"tipo" validate:"required,oneof=producto materia_prima insumo"`
	Unit     string         `json:"unidad" validate:"max=20"`
	Quantity float64        `json:"cantidad" validate:"gte=0"`
	UnitCost float64        `json:"costo_unitario" validate:"gte=0"`
	Spec     *TechnicalSpec `json:"especificaciones,omitempty"`
}

// UpdateItemRequest is the payload of PUT /items/{id}; nil fields are left untouched.
type UpdateItemRequest struct {
	Code     *string        `json:"codigo,omitempty" validate:"omitempty,min=1,max=50"`
	Name     *string        `json:"nombre,omitempty" validate:"omitempty,min=1,max=200"`
	Kind     *Kind          `json:"tipo,omitempty" validate:"omitempty,oneof=producto materia_prima insumo"`
	Unit     *string        `json:"unidad,omitempty" validate:"omitempty,max=20"`
	Quantity *float64       `json:"cantidad,omitempty" validate:"omitempty,gte=0"`
	UnitCost *float64       `json:"costo_unitario,omitempty" validate:"omitempty,gte=0"`
	Spec     *TechnicalSpec `json:"especificaciones,omitempty"`
}

// SetQuantityRequest is the payload of PUT /items/{id}/inventario.
type SetQuantityRequest struct {
	Quantity *float64 `json:"cantidad" validate:"required,gte=0"`
}
