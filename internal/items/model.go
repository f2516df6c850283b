package items

import "time"

// Kind tags the variant of an item.
type Kind string

const (
	// KindProduct is a finished liquid product sold by volume (gallons).
	KindProduct Kind = "producto"
	// KindRawMaterial is a purchased ingredient consumed by formulations.
	KindRawMaterial Kind = "materia_prima"
	// KindSupply is an intermediate that has its own formulation and is sold or consumed by weight.
	KindSupply Kind = "insumo"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindProduct, KindRawMaterial, KindSupply:
		return true
	}
	return false
}

// HasFormulation reports whether items of this kind own a bill of materials and a technical spec.
func (k Kind) HasFormulation() bool {
	return k == KindProduct || k == KindSupply
}

// IsLiquid reports whether per-unit costs are expressed per gallon rather than per kilogram.
func (k Kind) IsLiquid() bool {
	return k == KindProduct
}

// TechnicalSpec holds the quality-control sheet of a formulated item.
type TechnicalSpec struct {
	Viscosity    string `json:"viscosidad"`
	PH           string `json:"ph"`
	Color        string `json:"color"`
	DryingTime   string `json:"secado"`
	Coverage     string `json:"cubrimiento"`
	Grind        string `json:"molienda"`
	TintingPower string `json:"poder_tintoreo"`
	Category     string `json:"categoria"`
}

// IsZero reports whether every field is empty.
func (s TechnicalSpec) IsZero() bool {
	return s == TechnicalSpec{}
}

// Item is the read model of an inventory item joined with its stock and unit cost.
// Spec is only populated for kinds that own a formulation.
type Item struct {
	ID              int64          `json:"id"`
	Code            string         `json:"codigo"`
	Name            string         `json:"nombre"`
	Kind            Kind           `json:"tipo"`
	Unit            string         `json:"unidad"`
	Spec            *TechnicalSpec `json:"especificaciones,omitempty"`
	Quantity        float64        `json:"cantidad"`
	UnitCost        float64        `json:"costo_unitario"`
	QuantityDisplay string         `json:"cantidad_formateada"`
	UnitCostDisplay string         `json:"costo_unitario_formateado"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// CostRecord is the production-cost sheet of an item. A missing row reads as the zero value.
type CostRecord struct {
	ItemID          int64     `json:"item_id"`
	UnitCost        float64   `json:"costo_unitario"`
	RawMaterialCost float64   `json:"costo_mp"`
	CostPerGallon   float64   `json:"costo_mp_galon"`
	CostPerKg       float64   `json:"costo_mp_kg"`
	Container       float64   `json:"envase"`
	Label           float64   `json:"etiqueta"`
	Tray            float64   `json:"bandeja"`
	Plastic         float64   `json:"plastico"`
	Labor           float64   `json:"costo_mod"`
	Volume          float64   `json:"volumen"`
	TotalQuantity   float64   `json:"cantidad_total"`
	TotalCost       float64   `json:"costo_total"`
	SalePrice       float64   `json:"precio_venta"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

// CostPatch carries the cost fields to write; nil fields are left untouched.
type CostPatch struct {
	UnitCost        *float64 `json:"costo_unitario,omitempty"`
	RawMaterialCost *float64 `json:"costo_mp,omitempty"`
	CostPerGallon   *float64 `json:"costo_mp_galon,omitempty"`
	CostPerKg       *float64 `json:"costo_mp_kg,omitempty"`
	Container       *float64 `json:"envase,omitempty"`
	Label           *float64 `json:"etiqueta,omitempty"`
	Tray            *float64 `json:"bandeja,omitempty"`
	Plastic         *float64 `json:"plastico,omitempty"`
	Labor           *float64 `json:"costo_mod,omitempty"`
	Volume          *float64 `json:"volumen,omitempty"`
	TotalQuantity   *float64 `json:"cantidad_total,omitempty"`
	TotalCost       *float64 `json:"costo_total,omitempty"`
	SalePrice       *float64 `json:"precio_venta,omitempty"`
}

type costField struct {
	column string
	value  *float64
	target func(*CostRecord) *float64
}

func (p CostPatch) fields() []costField {
	return []costField{
		{"costo_unitario", p.UnitCost, func(r *CostRecord) *float64 { return &r.UnitCost }},
		{"costo_mp", p.RawMaterialCost, func(r *CostRecord) *float64 { return &r.RawMaterialCost }},
		{"costo_mp_galon", p.CostPerGallon, func(r *CostRecord) *float64 { return &r.CostPerGallon }},
		{"costo_mp_kg", p.CostPerKg, func(r *CostRecord) *float64 { return &r.CostPerKg }},
		{"envase", p.Container, func(r *CostRecord) *float64 { return &r.Container }},
		{"etiqueta", p.Label, func(r *CostRecord) *float64 { return &r.Label }},
		{"bandeja", p.Tray, func(r *CostRecord) *float64 { return &r.Tray }},
		{"plastico", p.Plastic, func(r *CostRecord) *float64 { return &r.Plastic }},
		{"costo_mod", p.Labor, func(r *CostRecord) *float64 { return &r.Labor }},
		{"volumen", p.Volume, func(r *CostRecord) *float64 { return &r.Volume }},
		{"cantidad_total", p.TotalQuantity, func(r *CostRecord) *float64 { return &r.TotalQuantity }},
		{"costo_total", p.TotalCost, func(r *CostRecord) *float64 { return &r.TotalCost }},
		{"precio_venta", p.SalePrice, func(r *CostRecord) *float64 { return &r.SalePrice }},
	}
}

// Columns returns the column names and values of the set fields, in a stable order.
func (p CostPatch) Columns() ([]string, []any) {
	var cols []string
	var vals []any
	for _, f := range p.fields() {
		if f.value == nil {
			continue
		}
		cols = append(cols, f.column)
		vals = append(vals, *f.value)
	}
	return cols, vals
}

// Empty reports whether no field is set.
func (p CostPatch) Empty() bool {
	cols, _ := p.Columns()
	return len(cols) == 0
}

// ApplyTo copies the set fields onto rec.
func (p CostPatch) ApplyTo(rec *CostRecord) {
	for _, f := range p.fields() {
		if f.value != nil {
			*f.target(rec) = *f.value
		}
	}
}

// ListFilter narrows item listings.
type ListFilter struct {
	Kinds  []Kind
	Search string
}
