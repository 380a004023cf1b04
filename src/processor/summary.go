package processor

import (
	"math"
	"time"

	"superstore-dashboard/src/dataset"
)

// Summary is the scalar metric block of the dashboard. When the filtered
// view is empty every field stays at its zero value and HasData is false;
// the mean sentinel is 0 by decision, never NaN.
type Summary struct {
	TotalSales     float64 `json:"total_sales"`
	TotalProfit    float64 `json:"total_profit"`
	TotalQuantity  float64 `json:"total_quantity"`
	AverageSales   float64 `json:"average_sales"`
	OrderCount     int     `json:"order_count"`
	FirstOrderDate string  `json:"first_order_date,omitempty"`
	LastOrderDate  string  `json:"last_order_date,omitempty"`
	HasData        bool    `json:"has_data"`
}

// Summarize computes the summary metrics over a filtered order view.
// Missing columns zero out the affected metrics and are reported back as
// warnings; NA cells are skipped, matching the source data conventions.
func Summarize(orders dataset.Table) (Summary, []string) {
	var s Summary
	var warnings []string

	s.OrderCount = orders.Nrow()
	s.HasData = s.OrderCount > 0

	if err := orders.Require("sales"); err != nil {
		warnings = append(warnings, err.Error())
	} else {
		sales := columnFloats(orders, "sales")
		s.TotalSales = sumSkipNA(sales)
		if n := countValid(sales); n > 0 {
			s.AverageSales = s.TotalSales / float64(n)
		}
	}

	if err := orders.Require("profit"); err != nil {
		warnings = append(warnings, err.Error())
	} else {
		s.TotalProfit = sumSkipNA(columnFloats(orders, "profit"))
	}

	if err := orders.Require("quantity"); err != nil {
		warnings = append(warnings, err.Error())
	} else {
		s.TotalQuantity = sumSkipNA(columnFloats(orders, "quantity"))
	}

	if err := orders.Require("order_date"); err != nil {
		warnings = append(warnings, err.Error())
	} else if first, last, ok := dateRange(orders, "order_date"); ok {
		s.FirstOrderDate = first.Format("2006-01-02")
		s.LastOrderDate = last.Format("2006-01-02")
	}

	return s, warnings
}

func columnFloats(t dataset.Table, col string) []float64 {
	return t.DataFrame().Col(col).Float()
}

func sumSkipNA(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		sum += v
	}
	return sum
}

func countValid(vals []float64) int {
	n := 0
	for _, v := range vals {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

func dateRange(t dataset.Table, col string) (time.Time, time.Time, bool) {
	records := t.DataFrame().Col(col).Records()

	var first, last time.Time
	found := false
	for _, r := range records {
		d, ok := parseOrderDate(r)
		if !ok {
			continue
		}
		if !found {
			first, last = d, d
			found = true
			continue
		}
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	return first, last, found
}
