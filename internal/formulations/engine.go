package formulations

import (
	"math"
	"time"

	"github.com/paintworks/paintworks/internal/items"
	"github.com/paintworks/paintworks/internal/shared"
)

// ValidateVolume rejects volumes that cannot drive a scaling calculation.
func ValidateVolume(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return shared.InvalidArgument("newVolume must be a finite number greater than 0")
	}
	return nil
}

// ReferenceVolume returns the batch volume the stored costs were computed for, defaulting to 1.
func ReferenceVolume(rec items.CostRecord) float64 {
	v := shared.Num(rec.Volume)
	if v <= 0 {
		return 1
	}
	return v
}

// Scale recomputes the cost sheet of a formulated item for newVolume by linear scaling of
// its formulation, packaging and labor. Raw material unit costs stay the same. It has no side effects.
func Scale(item ItemRef, rec items.CostRecord, bom []BOMLine, newVolume float64, at time.Time) (Comparison, error) {
	if err := ValidateVolume(newVolume); err != nil {
		return Comparison{}, err
	}
	refVolume := ReferenceVolume(rec)
	factor := newVolume / refVolume

	originalBOM := make([]BOMLine, len(bom))
	scaledBOM := make([]BOMLine, len(bom))
	var originalRaw, scaledRaw float64
	for i, line := range bom {
		line.Quantity = shared.Num(line.Quantity)
		line.UnitCost = shared.Num(line.UnitCost)
		line.LineCost = line.Quantity * line.UnitCost
		originalBOM[i] = line
		originalRaw += line.LineCost

		scaled := line
		scaled.Quantity = line.Quantity * factor
		scaled.LineCost = scaled.Quantity * scaled.UnitCost
		scaledBOM[i] = scaled
		scaledRaw += scaled.LineCost
	}

	original := CostSheet{
		RawMaterialCost: originalRaw,
		CostPerGallon:   shared.Num(rec.CostPerGallon),
		CostPerKg:       shared.Num(rec.CostPerKg),
		Container:       shared.Num(rec.Container),
		Label:           shared.Num(rec.Label),
		Tray:            shared.Num(rec.Tray),
		Plastic:         shared.Num(rec.Plastic),
		Labor:           shared.Num(rec.Labor),
		Volume:          refVolume,
		TotalQuantity:   shared.Num(rec.TotalQuantity),
		TotalCost:       shared.Num(rec.TotalCost),
		SalePrice:       shared.Num(rec.SalePrice),
	}

	next := CostSheet{
		RawMaterialCost: scaledRaw,
		Container:       original.Container * factor,
		Label:           original.Label * factor,
		Tray:            original.Tray * factor,
		Plastic:         original.Plastic * factor,
		Labor:           original.Labor * factor,
		Volume:          newVolume,
		TotalQuantity:   original.TotalQuantity * factor,
	}
	perUnit := scaledRaw / newVolume
	if item.Kind.IsLiquid() {
		next.CostPerGallon = perUnit
	} else {
		next.CostPerKg = perUnit
	}
	next.TotalCost = scaledRaw + next.Container + next.Label + next.Tray + next.Plastic + next.Labor
	next.SalePrice = shared.SalePrice(next.TotalCost)

	return Comparison{
		Item:         item,
		Volumes:      Volumes{Original: refVolume, New: newVolume, Factor: factor},
		Original:     original,
		New:          next,
		OriginalBOM:  originalBOM,
		ScaledBOM:    scaledBOM,
		CalculatedAt: at,
		Method:       MethodProportional,
	}, nil
}

// FormulationCost sums quantity times unit cost over the lines.
func FormulationCost(lines []BOMLine) float64 {
	var total float64
	for _, l := range lines {
		total += shared.Num(l.Quantity) * shared.Num(l.UnitCost)
	}
	return total
}
