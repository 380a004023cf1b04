package processor

import (
	"reflect"
	"testing"

	"superstore-dashboard/src/dataset"
)

func TestLowStock(t *testing.T) {
	stock := newTable(t, "stock", dataset.KindStock, [][]string{
		{"product_id", "product_name", "stock"},
		{"P1", "Chair", "49"},
		{"P2", "Desk", "50"},
		{"P3", "Lamp", "51"},
		{"P4", "Sofa", ""},
	})

	got, err := LowStock(stock)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Exactly 50 is not low; unreadable stock values are excluded, not flagged.
	want := []StockRow{
		{ProductID: "P1", ProductName: "Chair", Stock: 49},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("low stock = %v, want %v", got, want)
	}
}

func TestLowStockMissingColumn(t *testing.T) {
	stock := newTable(t, "stock", dataset.KindStock, [][]string{
		{"product_id", "product_name"},
		{"P1", "Chair"},
	})
	if _, err := LowStock(stock); err == nil {
		t.Fatal("expected an error for the absent stock column")
	}
}
