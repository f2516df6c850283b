package formulations

import "github.com/paintworks/paintworks/internal/items"

// CreateLineRequest is the payload of POST /formulaciones.
type CreateLineRequest struct {
	ProductID     int64   `json:"producto_id" validate:"required,gt=0"`
	RawMaterialID int64   `json:"materia_prima_id" validate:"required,gt=0"`
	Quantity      float64 `json:"cantidad" validate:"gt=0"`
	Unit          string  `json:"unidad" validate:"max=20"`
}

// UpdateLineRequest is the payload of PUT /formulaciones/{id}; nil fields are left untouched.
type UpdateLineRequest struct {
	RawMaterialID *int64   `json:"materia_prima_id,omitempty" validate:"omitempty,gt=0"`
	Quantity      *float64 `json:"cantidad,omitempty" validate:"omitempty,gt=0"`
	Unit          *string  `json:"unidad,omitempty" validate:"omitempty,max=20"`
}

// CalculateRequest is the payload of POST /formulaciones/calculate-costs/{itemId}.
// NewVolume is a pointer so a missing field is told apart from zero.
type CalculateRequest struct {
	NewVolume *float64 `json:"newVolume"`
}

// CommitRequest is the payload of PUT /formulaciones/update-costs/{itemId}.
type CommitRequest struct {
	NewCosts *items.CostPatch `json:"costos_nuevos"`
}
