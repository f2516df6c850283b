package formulations

import "github.com/paintworks/paintworks/internal/platform/xlsx"

// ExportTable flattens cost sheets into one row per formulation line.
// Items without lines still get a row carrying their totals.
func ExportTable(sheets []Sheet) xlsx.Table {
	var rows [][]any
	for _, s := range sheets {
		head := []any{s.Item.Code, s.Item.Name, string(s.Item.Kind), s.Costs.Volume, s.Costs.TotalCost, s.Costs.SalePrice}
		if len(s.Lines) == 0 {
			rows = append(rows, append(head, "", "", 0.0, 0.0, 0.0))
			continue
		}
		for _, l := range s.Lines {
			row := append(append([]any{}, head...), l.Code, l.Name, l.Quantity, l.UnitCost, l.LineCost)
			rows = append(rows, row)
		}
	}
	return xlsx.Table{
		Sheet: "Formulaciones",
		Headers: []string{
			"Código", "Producto", "Tipo", "Volumen", "Costo total", "Precio venta",
			"Código MP", "Materia prima", "Cantidad", "Costo unitario", "Costo línea",
		},
		Rows: rows,
	}
}
