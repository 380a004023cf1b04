package processor

import (
	"math"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"superstore-dashboard/src/dataset"
)

// Group totals over 1000 are the high band of the West aggregate. This is a
// separate partition from the per-row profit bands and keeps the original
// two labels.
const (
	westHighProfitThreshold = 1000.0
	WestHighProfit          = "High Profit"
	WestLowMediumProfit     = "Low/Medium Profit"
)

// ProductSales is one ranked product.
type ProductSales struct {
	ProductName string  `json:"product_name"`
	TotalSales  float64 `json:"total_sales"`
}

// CustomerSales is one ranked customer.
type CustomerSales struct {
	CustomerID   string  `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	AverageSales float64 `json:"average_sales"`
}

// RegionProfit is one region's summed profit.
type RegionProfit struct {
	Region      string  `json:"region"`
	TotalProfit float64 `json:"total_profit"`
}

// WestProduct is one product's totals within region West.
type WestProduct struct {
	ProductID      string  `json:"product_id"`
	ProductName    string  `json:"product_name"`
	TotalQuantity  float64 `json:"total_quantity"`
	TotalSales     float64 `json:"total_sales"`
	TotalProfit    float64 `json:"total_profit"`
	ProfitCategory string  `json:"profit_category"`
}

// groupAgg accumulates one group's sums during a single pass over the view.
type groupAgg struct {
	key      string
	label    string
	sum      float64
	count    int
	quantity float64
	sales    float64
	profit   float64
}

// groupBy walks the view once, keyed by keyCol (with labelCol carried along
// for display), accumulating the metric column. Rows with a missing key are
// excluded from grouping; NA metric cells contribute nothing. Groups come
// back in first-encounter order.
func groupBy(t dataset.Table, keyCol, labelCol, metricCol string) []*groupAgg {
	keys := t.DataFrame().Col(keyCol).Records()
	labels := keys
	if labelCol != "" && labelCol != keyCol {
		labels = t.DataFrame().Col(labelCol).Records()
	}
	metrics := columnFloats(t, metricCol)

	index := make(map[string]*groupAgg)
	var order []*groupAgg
	for i, k := range keys {
		if k == "" || k == "NaN" {
			continue
		}
		g, ok := index[k]
		if !ok {
			g = &groupAgg{key: k, label: labels[i]}
			index[k] = g
			order = append(order, g)
		}
		if !math.IsNaN(metrics[i]) {
			g.sum += metrics[i]
			g.count++
		}
	}
	return order
}

// rank sorts groups by metric descending and cuts to n. Ties break on the
// ascending group key so equal-metric rankings stay reproducible.
func rank(groups []*groupAgg, metric func(*groupAgg) float64, n int) []*groupAgg {
	sort.SliceStable(groups, func(i, j int) bool {
		mi, mj := metric(groups[i]), metric(groups[j])
		if mi != mj {
			return mi > mj
		}
		return groups[i].key < groups[j].key
	})
	if n > 0 && len(groups) > n {
		groups = groups[:n]
	}
	return groups
}

// TopProductsBySales ranks products by summed sales, largest first.
func TopProductsBySales(orders dataset.Table, n int) ([]ProductSales, error) {
	if err := orders.Require("product_name", "sales"); err != nil {
		return nil, err
	}

	groups := rank(groupBy(orders, "product_name", "", "sales"),
		func(g *groupAgg) float64 { return g.sum }, n)

	out := make([]ProductSales, 0, len(groups))
	for _, g := range groups {
		out = append(out, ProductSales{ProductName: g.key, TotalSales: g.sum})
	}
	return out, nil
}

// TopCustomersByAverageSales ranks customers by mean sales per order row.
// Customer names come from the order view when present, otherwise from the
// customer table.
func TopCustomersByAverageSales(orders, customers dataset.Table, n int) ([]CustomerSales, error) {
	if err := orders.Require("customer_id", "sales"); err != nil {
		return nil, err
	}

	labelCol := ""
	if orders.HasColumn("customer_name") {
		labelCol = "customer_name"
	}

	groups := groupBy(orders, "customer_id", labelCol, "sales")

	// Customers with only NA sales have no mean; drop them before ranking.
	withData := groups[:0]
	for _, g := range groups {
		if g.count > 0 {
			withData = append(withData, g)
		}
	}

	groups = rank(withData, func(g *groupAgg) float64 { return g.sum / float64(g.count) }, n)

	names := customerNames(customers)
	out := make([]CustomerSales, 0, len(groups))
	for _, g := range groups {
		name := g.label
		if labelCol == "" {
			name = names[g.key]
		}
		out = append(out, CustomerSales{
			CustomerID:   g.key,
			CustomerName: name,
			AverageSales: g.sum / float64(g.count),
		})
	}
	return out, nil
}

func customerNames(customers dataset.Table) map[string]string {
	names := make(map[string]string)
	if !customers.HasColumn("customer_id") || !customers.HasColumn("customer_name") {
		return names
	}
	ids := customers.DataFrame().Col("customer_id").Records()
	labels := customers.DataFrame().Col("customer_name").Records()
	for i, id := range ids {
		if _, ok := names[id]; !ok {
			names[id] = labels[i]
		}
	}
	return names
}

// ProfitByRegion sums profit per region, sorted descending.
func ProfitByRegion(orders dataset.Table) ([]RegionProfit, error) {
	if err := orders.Require("region", "profit"); err != nil {
		return nil, err
	}

	groups := rank(groupBy(orders, "region", "", "profit"),
		func(g *groupAgg) float64 { return g.sum }, 0)

	out := make([]RegionProfit, 0, len(groups))
	for _, g := range groups {
		out = append(out, RegionProfit{Region: g.key, TotalProfit: g.sum})
	}
	return out, nil
}

// WestProductAggregates restricts the view to region West, totals quantity,
// sales and profit per (product_id, product_name) and bands each group's
// total profit. Output is ordered by product_id for determinism.
func WestProductAggregates(orders dataset.Table) ([]WestProduct, error) {
	if err := orders.Require("region", "product_id", "product_name", "quantity", "sales", "profit"); err != nil {
		return nil, err
	}

	west := orders.DataFrame().Filter(dataframe.F{
		Colname:    "region",
		Comparator: series.Eq,
		Comparando: "West",
	})

	ids := west.Col("product_id").Records()
	names := west.Col("product_name").Records()
	quantities := west.Col("quantity").Float()
	sales := west.Col("sales").Float()
	profits := west.Col("profit").Float()

	index := make(map[string]*groupAgg)
	var order []*groupAgg
	for i, id := range ids {
		if id == "" {
			continue
		}
		g, ok := index[id]
		if !ok {
			g = &groupAgg{key: id, label: names[i]}
			index[id] = g
			order = append(order, g)
		}
		if !math.IsNaN(quantities[i]) {
			g.quantity += quantities[i]
		}
		if !math.IsNaN(sales[i]) {
			g.sales += sales[i]
		}
		if !math.IsNaN(profits[i]) {
			g.profit += profits[i]
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i].key < order[j].key })

	out := make([]WestProduct, 0, len(order))
	for _, g := range order {
		band := WestLowMediumProfit
		if g.profit > westHighProfitThreshold {
			band = WestHighProfit
		}
		out = append(out, WestProduct{
			ProductID:      g.key,
			ProductName:    g.label,
			TotalQuantity:  g.quantity,
			TotalSales:     g.sales,
			TotalProfit:    g.profit,
			ProfitCategory: band,
		})
	}
	return out, nil
}
