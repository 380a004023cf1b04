package processor

import (
	"errors"
	"reflect"
	"testing"

	"superstore-dashboard/src/dataset"
)

func TestFilterInNilKeepsEverything(t *testing.T) {
	orders := fullOrders(t)

	got, err := FilterIn(orders, "region", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got.DataFrame().Records(), orders.DataFrame().Records()) {
		t.Error("nil selection must return the table unchanged")
	}
}

func TestFilterInFullSetEqualsUnfiltered(t *testing.T) {
	orders := fullOrders(t)

	got, err := FilterIn(orders, "region", orders.Distinct("region"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got.DataFrame().Records(), orders.DataFrame().Records()) {
		t.Error("full-set selection must equal the unfiltered table row for row")
	}
}

func TestFilterInEmptySet(t *testing.T) {
	orders := fullOrders(t)

	got, err := FilterIn(orders, "region", []string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Nrow() != 0 {
		t.Errorf("empty selection kept %d rows, want 0", got.Nrow())
	}
	if !got.HasColumn("region") {
		t.Error("empty view must keep its columns")
	}
}

func TestFilterInSubset(t *testing.T) {
	orders := fullOrders(t)

	got, err := FilterIn(orders, "region", []string{"West"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Nrow() != 2 {
		t.Fatalf("got %d rows, want 2", got.Nrow())
	}
	for _, r := range got.DataFrame().Col("region").Records() {
		if r != "West" {
			t.Errorf("row with region %q slipped through", r)
		}
	}
}

func TestFilterInMissingColumn(t *testing.T) {
	orders := newOrders(t, [][]string{
		{"sales"},
		{"100"},
		{"50"},
	})

	got, err := FilterIn(orders, "region", []string{"West"})
	var schemaErr *dataset.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *dataset.SchemaError, got %T (%v)", err, err)
	}
	if got.Nrow() != orders.Nrow() {
		t.Errorf("degraded filter must return the full table, got %d rows", got.Nrow())
	}
}

func TestFilterOptions(t *testing.T) {
	orders := fullOrders(t)

	got, err := FilterOptions(orders, "region")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"East", "South", "West"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("options = %v, want %v", got, want)
	}

	if _, err := FilterOptions(orders, "segment"); err == nil {
		t.Fatal("expected an error for the absent segment column")
	}
}
