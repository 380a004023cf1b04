package processor

import (
	"time"

	"superstore-dashboard/src/config"
	"superstore-dashboard/src/dataset"
)

// View names as they appear in viewconfig.json. Unlisted views run; the
// by-product sales split is opt-in.
const (
	ViewSummary        = "summary"
	ViewProfitCategory = "profit_category"
	ViewOrderSize      = "order_size"
	ViewLowStock       = "low_stock"
	ViewTopProducts    = "top_products"
	ViewTopCustomers   = "top_customers"
	ViewRegionProfit   = "region_profit"
	ViewWestProducts   = "west_products"
	ViewSalesOverTime  = "sales_over_time"
	ViewSalesByProduct = "sales_by_product"
)

const defaultTopN = 10

// Dashboard is the full plain-data payload handed to the presentation
// layer. Disabled or degraded views are nil; enabled views are always
// well-formed, possibly empty, slices.
type Dashboard struct {
	GeneratedAt      time.Time       `json:"generated_at"`
	Summary          *Summary        `json:"summary,omitempty"`
	ProfitCategories []CategoryCount `json:"profit_categories"`
	OrderSizes       []CategoryCount `json:"order_sizes"`
	LowStock         []StockRow      `json:"low_stock"`
	TopProducts      []ProductSales  `json:"top_products"`
	TopCustomers     []CustomerSales `json:"top_customers"`
	RegionProfit     []RegionProfit  `json:"region_profit"`
	WestProducts     []WestProduct   `json:"west_products"`
	SalesOverTime    []SalesPoint    `json:"sales_over_time"`
	Warnings         []string        `json:"warnings,omitempty"`
}

// Pipeline runs filter and aggregation over a base bundle for one
// selection. It holds no table state of its own, so a single Pipeline is
// safe to share across sessions.
type Pipeline struct {
	vcfg *config.ViewConfig
}

func NewPipeline(vcfg *config.ViewConfig) *Pipeline {
	return &Pipeline{vcfg: vcfg}
}

// FilteredOrders narrows the order base table by the selected regions.
func (p *Pipeline) FilteredOrders(b *dataset.Bundle, sel Selection) (dataset.Table, []string) {
	var warnings []string
	orders, err := FilterIn(b.Orders, p.vcfg.GetColumn("region"), sel.Regions)
	if err != nil {
		warnings = append(warnings, err.Error())
	}
	return orders, warnings
}

// FilteredCustomers narrows the customer base table by the selected
// segments.
func (p *Pipeline) FilteredCustomers(b *dataset.Bundle, sel Selection) (dataset.Table, []string) {
	var warnings []string
	customers, err := FilterIn(b.Customers, p.vcfg.GetColumn("segment"), sel.Segments)
	if err != nil {
		warnings = append(warnings, err.Error())
	}
	return customers, warnings
}

// Run recomputes every enabled view from the base bundle under the given
// selection. Recoverable schema gaps turn into warnings on the payload;
// Run itself never fails.
func (p *Pipeline) Run(b *dataset.Bundle, sel Selection) *Dashboard {
	d := &Dashboard{GeneratedAt: time.Now()}

	orders, warns := p.FilteredOrders(b, sel)
	d.Warnings = append(d.Warnings, warns...)
	customers, warns := p.FilteredCustomers(b, sel)
	d.Warnings = append(d.Warnings, warns...)

	warn := func(err error) {
		if err != nil {
			d.Warnings = append(d.Warnings, err.Error())
		}
	}

	if p.vcfg.ViewEnabled(ViewSummary) {
		summary, warns := Summarize(orders)
		d.Summary = &summary
		d.Warnings = append(d.Warnings, warns...)
	}

	if p.vcfg.ViewEnabled(ViewProfitCategory) {
		counts, err := ProfitCategoryCounts(orders)
		warn(err)
		d.ProfitCategories = counts
	}

	if p.vcfg.ViewEnabled(ViewOrderSize) {
		counts, err := OrderSizeCounts(orders)
		warn(err)
		d.OrderSizes = counts
	}

	if p.vcfg.ViewEnabled(ViewLowStock) {
		rows, err := LowStock(b.Stock)
		warn(err)
		d.LowStock = rows
	}

	if p.vcfg.ViewEnabled(ViewTopProducts) {
		rows, err := TopProductsBySales(orders, p.vcfg.GetTopN(ViewTopProducts, defaultTopN))
		warn(err)
		d.TopProducts = rows
	}

	if p.vcfg.ViewEnabled(ViewTopCustomers) {
		rows, err := TopCustomersByAverageSales(orders, customers, p.vcfg.GetTopN(ViewTopCustomers, defaultTopN))
		warn(err)
		d.TopCustomers = rows
	}

	if p.vcfg.ViewEnabled(ViewRegionProfit) {
		rows, err := ProfitByRegion(orders)
		warn(err)
		d.RegionProfit = rows
	}

	if p.vcfg.ViewEnabled(ViewWestProducts) {
		rows, err := WestProductAggregates(orders)
		warn(err)
		d.WestProducts = rows
	}

	if p.vcfg.ViewEnabled(ViewSalesOverTime) {
		byProduct := p.vcfg.ViewEnabledDefault(ViewSalesByProduct, false)
		rows, err := SalesOverTime(orders, byProduct)
		warn(err)
		d.SalesOverTime = rows
	}

	return d
}
