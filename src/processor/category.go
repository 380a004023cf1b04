package processor

import (
	"sort"

	"github.com/go-gota/gota/series"

	"superstore-dashboard/src/dataset"
)

// Per-row profit bands. The [50,100] interval is closed on both ends; every
// value below 50 is Low, negatives included. NA profits fall through to Low
// because neither comparison holds.
const (
	ProfitHigh   = "High"
	ProfitMedium = "Medium"
	ProfitLow    = "Low"
)

const (
	OrderLarge = "Large"
	OrderSmall = "Small"
)

// ProfitCategory maps a row's profit onto exactly one band.
func ProfitCategory(profit float64) string {
	switch {
	case profit > 100:
		return ProfitHigh
	case profit >= 50:
		return ProfitMedium
	default:
		return ProfitLow
	}
}

// OrderSize classifies a row's quantity: 10 and above is Large.
func OrderSize(quantity float64) string {
	if quantity >= 10 {
		return OrderLarge
	}
	return OrderSmall
}

// CategoryCount is one slice of a categorical tally.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// ProfitCategoryCounts tallies the per-row profit bands of the view. Only
// bands that actually occur appear in the result.
func ProfitCategoryCounts(orders dataset.Table) ([]CategoryCount, error) {
	return tallyDerived(orders, "profit", ProfitCategory)
}

// OrderSizeCounts tallies the order-size partition of the view.
func OrderSizeCounts(orders dataset.Table) ([]CategoryCount, error) {
	return tallyDerived(orders, "quantity", OrderSize)
}

func tallyDerived(t dataset.Table, col string, classify func(float64) string) ([]CategoryCount, error) {
	if err := t.Require(col); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, v := range columnFloats(t, col) {
		counts[classify(v)]++
	}
	return sortTally(counts), nil
}

// sortTally orders a tally by count descending, label ascending on ties, the
// way a value-count chart expects its slices.
func sortTally(counts map[string]int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, CategoryCount{Category: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// WithDerived appends the profit_category and order_size columns to a
// filtered view. The derived columns live only on the returned view; base
// tables are never widened.
func WithDerived(orders dataset.Table) dataset.Table {
	df := orders.DataFrame()

	if orders.HasColumn("profit") {
		labels := make([]string, orders.Nrow())
		for i, v := range columnFloats(orders, "profit") {
			labels[i] = ProfitCategory(v)
		}
		df = df.Mutate(series.New(labels, series.String, "profit_category"))
	}

	if orders.HasColumn("quantity") {
		labels := make([]string, orders.Nrow())
		for i, v := range columnFloats(orders, "quantity") {
			labels[i] = OrderSize(v)
		}
		df = df.Mutate(series.New(labels, series.String, "order_size"))
	}

	return orders.WithFrame(df)
}
