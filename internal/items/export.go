package items

import "github.com/paintworks/paintworks/internal/platform/xlsx"

// ExportTable lays out items as an inventory sheet.
func ExportTable(items []Item) xlsx.Table {
	rows := make([][]any, 0, len(items))
	for _, it := range items {
		rows = append(rows, []any{it.Code, it.Name, string(it.Kind), it.Unit, it.Quantity, it.UnitCost})
	}
	return xlsx.Table{
		Sheet:   "Inventario",
		Headers: []string{"Código", "Nombre", "Tipo", "Unidad", "Cantidad", "Costo unitario"},
		Rows:    rows,
	}
}
