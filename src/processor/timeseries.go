package processor

import (
	"math"
	"sort"
	"time"

	"superstore-dashboard/src/dataset"
)

// SalesPoint is one day (optionally one product-day) of summed sales.
type SalesPoint struct {
	Date        string  `json:"date"`
	ProductName string  `json:"product_name,omitempty"`
	TotalSales  float64 `json:"total_sales"`
}

var orderDateFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"1/2/2006",
}

func parseOrderDate(s string) (time.Time, bool) {
	if s == "" || s == "NaN" {
		return time.Time{}, false
	}
	for _, format := range orderDateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SalesOverTime sums sales per order date, day granularity, optionally split
// per product. Rows whose date does not parse are excluded. The series comes
// back in chronological order (then product name, when split).
func SalesOverTime(orders dataset.Table, byProduct bool) ([]SalesPoint, error) {
	required := []string{"order_date", "sales"}
	if byProduct {
		required = append(required, "product_name")
	}
	if err := orders.Require(required...); err != nil {
		return nil, err
	}

	dates := orders.DataFrame().Col("order_date").Records()
	sales := columnFloats(orders, "sales")
	var products []string
	if byProduct {
		products = orders.DataFrame().Col("product_name").Records()
	}

	type seriesKey struct {
		date    string
		product string
	}
	totals := make(map[seriesKey]float64)

	for i, raw := range dates {
		d, ok := parseOrderDate(raw)
		if !ok {
			continue
		}
		key := seriesKey{date: d.Format("2006-01-02")}
		if byProduct {
			key.product = products[i]
		}
		if !math.IsNaN(sales[i]) {
			totals[key] += sales[i]
		} else if _, exists := totals[key]; !exists {
			totals[key] = 0
		}
	}

	out := make([]SalesPoint, 0, len(totals))
	for key, total := range totals {
		out = append(out, SalesPoint{Date: key.date, ProductName: key.product, TotalSales: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ProductName < out[j].ProductName
	})
	return out, nil
}
