package processor

import (
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"superstore-dashboard/src/dataset"
)

// newTable builds a normalized fixture table. Partial fixtures are allowed;
// the schema error is ignored because each aggregate declares its own needs.
func newTable(t *testing.T, name string, kind dataset.Kind, records [][]string) dataset.Table {
	t.Helper()
	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Error() != nil {
		t.Fatalf("failed to build fixture frame: %v", df.Error())
	}
	tab, _ := dataset.Normalize(dataset.New(name, df), kind)
	return tab
}

func newOrders(t *testing.T, records [][]string) dataset.Table {
	t.Helper()
	return newTable(t, "order", dataset.KindOrder, records)
}

// fullOrders is a small order table carrying the complete schema.
func fullOrders(t *testing.T) dataset.Table {
	t.Helper()
	return newOrders(t, [][]string{
		{"order_id", "product_id", "product_name", "customer_id", "customer_name", "region", "sales", "profit", "quantity", "order_date"},
		{"O1", "P1", "Chair", "C1", "Ann", "West", "200", "120", "12", "2024-01-02"},
		{"O2", "P2", "Desk", "C2", "Bob", "East", "100", "60", "4", "2024-01-03"},
		{"O3", "P1", "Chair", "C1", "Ann", "West", "50", "30", "2", "2024-01-02"},
		{"O4", "P3", "Lamp", "C3", "Cy", "South", "80", "-20", "1", "2024-01-05"},
	})
}
