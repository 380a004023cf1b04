package processor

import (
	"reflect"
	"testing"
)

func TestSalesOverTime(t *testing.T) {
	orders := newOrders(t, [][]string{
		{"order_date", "sales"},
		{"2024-01-03", "10"},
		{"2024-01-01", "5"},
		{"2024-01-03 14:00:00", "20"},
		{"not a date", "999"},
	})

	got, err := SalesOverTime(orders, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []SalesPoint{
		{Date: "2024-01-01", TotalSales: 5},
		{Date: "2024-01-03", TotalSales: 30},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("series = %v, want %v", got, want)
	}
}

func TestSalesOverTimeByProduct(t *testing.T) {
	orders := newOrders(t, [][]string{
		{"order_date", "product_name", "sales"},
		{"2024-01-01", "Desk", "10"},
		{"2024-01-01", "Chair", "5"},
		{"2024-01-02", "Chair", "7"},
	})

	got, err := SalesOverTime(orders, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []SalesPoint{
		{Date: "2024-01-01", ProductName: "Chair", TotalSales: 5},
		{Date: "2024-01-01", ProductName: "Desk", TotalSales: 10},
		{Date: "2024-01-02", ProductName: "Chair", TotalSales: 7},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("series = %v, want %v", got, want)
	}
}

func TestSalesOverTimeNASales(t *testing.T) {
	orders := newOrders(t, [][]string{
		{"order_date", "sales"},
		{"2024-01-01", ""},
	})

	got, err := SalesOverTime(orders, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A day whose only sales cell is NA still shows up, with a zero total.
	want := []SalesPoint{{Date: "2024-01-01", TotalSales: 0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("series = %v, want %v", got, want)
	}
}

func TestSalesOverTimeMissingColumn(t *testing.T) {
	orders := newOrders(t, [][]string{
		{"sales"},
		{"10"},
	})
	if _, err := SalesOverTime(orders, false); err == nil {
		t.Fatal("expected an error for the absent order_date column")
	}
}
