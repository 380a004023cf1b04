package processor

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"superstore-dashboard/src/dataset"
)

// Products with fewer than this many units on hand are flagged. Strict
// less-than; a product holding exactly 50 units is not low.
const lowStockThreshold = 50.0

// StockRow is one low-stock product.
type StockRow struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Stock       float64 `json:"stock"`
}

// LowStock selects the stock rows under the threshold. Rows whose stock
// failed numeric coercion are excluded, not flagged.
func LowStock(stock dataset.Table) ([]StockRow, error) {
	if err := stock.Require("product_id", "product_name", "stock"); err != nil {
		return nil, err
	}

	low := stock.DataFrame().Filter(dataframe.F{
		Colname:    "stock",
		Comparator: series.CompFunc,
		Comparando: func(el series.Element) bool {
			return !el.IsNA() && el.Float() < lowStockThreshold
		},
	})

	rows := make([]StockRow, 0, low.Nrow())
	ids := low.Col("product_id").Records()
	names := low.Col("product_name").Records()
	units := low.Col("stock").Float()
	for i := 0; i < low.Nrow(); i++ {
		rows = append(rows, StockRow{
			ProductID:   ids[i],
			ProductName: names[i],
			Stock:       units[i],
		})
	}
	return rows, nil
}
