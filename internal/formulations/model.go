package formulations

import (
	"time"

	"github.com/paintworks/paintworks/internal/items"
)

// MethodProportional tags comparisons produced by linear volume scaling.
const MethodProportional = "escalado_proporcional"

// Line is one stored bill-of-materials row: Quantity of RawMaterialID per batch of ProductID.
type Line struct {
	ID            int64     `json:"id"`
	ProductID     int64     `json:"producto_id"`
	RawMaterialID int64     `json:"materia_prima_id"`
	Quantity      float64   `json:"cantidad"`
	Unit          string    `json:"unidad"`
	CreatedAt     time.Time `json:"created_at"`
}

// BOMLine is a formulation line joined with the raw material and its current unit cost.
type BOMLine struct {
	ID            int64   `json:"id"`
	RawMaterialID int64   `json:"materia_prima_id"`
	Code          string  `json:"codigo"`
	Name          string  `json:"nombre"`
	Unit          string  `json:"unidad"`
	Quantity      float64 `json:"cantidad"`
	UnitCost      float64 `json:"costo_unitario"`
	LineCost      float64 `json:"costo_total"`
}

// ItemRef identifies the formulated item in read views.
type ItemRef struct {
	ID   int64      `json:"id"`
	Code string     `json:"codigo"`
	Name string     `json:"nombre"`
	Kind items.Kind `json:"tipo"`
	Unit string     `json:"unidad"`
}

// Sheet is the denormalized view of a producto or insumo: its cost record and its formulation.
type Sheet struct {
	Item            ItemRef          `json:"item"`
	Costs           items.CostRecord `json:"costos"`
	Lines           []BOMLine        `json:"formulacion"`
	FormulationCost float64          `json:"costo_formulacion"`
}

// CostSheet is the set of cost fields the scaling engine reads and produces.
// Its JSON keys match items.CostPatch so a computed sheet can be committed as-is.
type CostSheet struct {
	RawMaterialCost float64 `json:"costo_mp"`
	CostPerGallon   float64 `json:"costo_mp_galon"`
	CostPerKg       float64 `json:"costo_mp_kg"`
	Container       float64 `json:"envase"`
	Label           float64 `json:"etiqueta"`
	Tray            float64 `json:"bandeja"`
	Plastic         float64 `json:"plastico"`
	Labor           float64 `json:"costo_mod"`
	Volume          float64 `json:"volumen"`
	TotalQuantity   float64 `json:"cantidad_total"`
	TotalCost       float64 `json:"costo_total"`
	SalePrice       float64 `json:"precio_venta"`
}

// Patch converts the sheet into a cost patch with every field set.
func (c CostSheet) Patch() items.CostPatch {
	v := c
	return items.CostPatch{
		RawMaterialCost: &v.RawMaterialCost,
		CostPerGallon:   &v.CostPerGallon,
		CostPerKg:       &v.CostPerKg,
		Container:       &v.Container,
		Label:           &v.Label,
		Tray:            &v.Tray,
		Plastic:         &v.Plastic,
		Labor:           &v.Labor,
		Volume:          &v.Volume,
		TotalQuantity:   &v.TotalQuantity,
		TotalCost:       &v.TotalCost,
		SalePrice:       &v.SalePrice,
	}
}

// Volumes describes the scaling applied.
type Volumes struct {
	Original float64 `json:"volumen_original"`
	New      float64 `json:"volumen_nuevo"`
	Factor   float64 `json:"factor_escala"`
}

// Comparison is the result of a volume scaling calculation. It is never persisted by itself.
type Comparison struct {
	Item         ItemRef   `json:"item"`
	Volumes      Volumes   `json:"volumenes"`
	Original     CostSheet `json:"costos_originales"`
	New          CostSheet `json:"costos_nuevos"`
	OriginalBOM  []BOMLine `json:"formulacion_original"`
	ScaledBOM    []BOMLine `json:"formulacion_escalada"`
	CalculatedAt time.Time `json:"calculado_en"`
	Method       string    `json:"metodo"`
}
