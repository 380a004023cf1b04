package datapush

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"superstore-dashboard/src/processor"
)

// BuildWorkbook writes every populated dashboard view into its own sheet of
// an xlsx workbook, ready for attaching to the report mail.
func BuildWorkbook(d *processor.Dashboard, filePath string) error {
	f := excelize.NewFile()
	defer f.Close()

	writeSummarySheet(f, d)

	if d.ProfitCategories != nil {
		rows := make([][]interface{}, 0, len(d.ProfitCategories))
		for _, c := range d.ProfitCategories {
			rows = append(rows, []interface{}{c.Category, c.Count})
		}
		writeSheet(f, "Profit Categories", []string{"category", "count"}, rows)
	}

	if d.OrderSizes != nil {
		rows := make([][]interface{}, 0, len(d.OrderSizes))
		for _, c := range d.OrderSizes {
			rows = append(rows, []interface{}{c.Category, c.Count})
		}
		writeSheet(f, "Order Sizes", []string{"order_size", "count"}, rows)
	}

	if d.LowStock != nil {
		rows := make([][]interface{}, 0, len(d.LowStock))
		for _, r := range d.LowStock {
			rows = append(rows, []interface{}{r.ProductID, r.ProductName, r.Stock})
		}
		writeSheet(f, "Low Stock", []string{"product_id", "product_name", "stock"}, rows)
	}

	if d.TopProducts != nil {
		rows := make([][]interface{}, 0, len(d.TopProducts))
		for _, r := range d.TopProducts {
			rows = append(rows, []interface{}{r.ProductName, r.TotalSales})
		}
		writeSheet(f, "Top Products", []string{"product_name", "total_sales"}, rows)
	}

	if d.TopCustomers != nil {
		rows := make([][]interface{}, 0, len(d.TopCustomers))
		for _, r := range d.TopCustomers {
			rows = append(rows, []interface{}{r.CustomerID, r.CustomerName, r.AverageSales})
		}
		writeSheet(f, "Top Customers", []string{"customer_id", "customer_name", "average_sales"}, rows)
	}

	if d.RegionProfit != nil {
		rows := make([][]interface{}, 0, len(d.RegionProfit))
		for _, r := range d.RegionProfit {
			rows = append(rows, []interface{}{r.Region, r.TotalProfit})
		}
		writeSheet(f, "Region Profit", []string{"region", "total_profit"}, rows)
	}

	if d.WestProducts != nil {
		rows := make([][]interface{}, 0, len(d.WestProducts))
		for _, r := range d.WestProducts {
			rows = append(rows, []interface{}{r.ProductID, r.ProductName, r.TotalQuantity, r.TotalSales, r.TotalProfit, r.ProfitCategory})
		}
		writeSheet(f, "Region West Products",
			[]string{"product_id", "product_name", "total_quantity", "total_sales", "total_profit", "profit_category"}, rows)
	}

	if d.SalesOverTime != nil {
		rows := make([][]interface{}, 0, len(d.SalesOverTime))
		for _, pt := range d.SalesOverTime {
			rows = append(rows, []interface{}{pt.Date, pt.ProductName, pt.TotalSales})
		}
		writeSheet(f, "Sales Over Time", []string{"date", "product_name", "total_sales"}, rows)
	}

	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save report workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, d *processor.Dashboard) {
	sheet := "Summary"
	f.SetSheetName("Sheet1", sheet)

	rows := [][]interface{}{
		{"generated_at", d.GeneratedAt.Format("2006-01-02 15:04:05")},
	}
	if d.Summary != nil {
		s := d.Summary
		rows = append(rows,
			[]interface{}{"total_sales", s.TotalSales},
			[]interface{}{"total_profit", s.TotalProfit},
			[]interface{}{"total_quantity", s.TotalQuantity},
			[]interface{}{"average_sales", s.AverageSales},
			[]interface{}{"order_count", s.OrderCount},
			[]interface{}{"first_order_date", s.FirstOrderDate},
			[]interface{}{"last_order_date", s.LastOrderDate},
		)
	}
	for _, w := range d.Warnings {
		rows = append(rows, []interface{}{"warning", w})
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		f.SetSheetRow(sheet, cell, &row)
	}
}

func writeSheet(f *excelize.File, name string, headers []string, rows [][]interface{}) {
	f.NewSheet(name)

	headerRow := make([]interface{}, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	cell, _ := excelize.CoordinatesToCellName(1, 1)
	f.SetSheetRow(name, cell, &headerRow)

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		f.SetSheetRow(name, cell, &row)
	}
}
