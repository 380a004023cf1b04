package file

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"superstore-dashboard/src/config"
	"superstore-dashboard/src/dataset"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const ordersCSV = `Order ID,Product ID,Product Name,Customer ID,Customer Name,Region ,Sales,Profit,Quantity,Order Date
O1,P1,Chair,C1,Ann,West,200,120,12,2024-01-02
O2,P2,Desk,C2,Bob,East,abc,60,4,2024-01-03
`

func TestReadCSVAndNormalize(t *testing.T) {
	path := writeTempFile(t, "orders.csv", ordersCSV)

	df, err := Read(config.Source{Path: path, Format: "csv"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	orders, err := dataset.Normalize(dataset.New("order", df), dataset.KindOrder)
	if err != nil {
		t.Fatalf("normalized CSV should satisfy the order schema: %v", err)
	}
	if orders.Nrow() != 2 {
		t.Fatalf("got %d rows, want 2", orders.Nrow())
	}
	if !orders.HasColumn("region") {
		t.Error("header \"Region \" must normalize to region")
	}

	sales := orders.DataFrame().Col("sales")
	if got := sales.Elem(0).Float(); got != 200 {
		t.Errorf("sales[0] = %v, want 200", got)
	}
	if !sales.Elem(1).IsNA() {
		t.Error("unparseable sales cell must be NA after normalization")
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(config.Source{Path: filepath.Join(t.TempDir(), "nope.csv"), Format: "csv"})
	var srcErr *SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("expected *SourceError, got %T (%v)", err, err)
	}
}

func TestReadUnknownFormat(t *testing.T) {
	path := writeTempFile(t, "orders.tsv", "a\tb\n")
	_, err := Read(config.Source{Path: path, Format: "tsv"})
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T (%v)", err, err)
	}
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stock.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Product ID", "Product Name", "Stock"},
		{"P1", "Chair", 49},
		{"P2", "Desk", 80},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	df, err := Read(config.Source{Path: path, Format: "xlsx"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stock, err := dataset.Normalize(dataset.New("stock", df), dataset.KindStock)
	if err != nil {
		t.Fatalf("normalized sheet should satisfy the stock schema: %v", err)
	}
	if stock.Nrow() != 2 {
		t.Fatalf("got %d rows, want 2", stock.Nrow())
	}
	if got := stock.DataFrame().Col("stock").Elem(0).Float(); got != 49 {
		t.Errorf("stock[0] = %v, want 49", got)
	}
}

func TestReadXLSXMissingSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stock.xlsx")
	f := excelize.NewFile()
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	_, err := Read(config.Source{Path: path, Format: "xlsx", Sheet: "Missing"})
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T (%v)", err, err)
	}
}

func TestExcelSerialToTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"44197", "2021-01-01 00:00:00"},
		{"44197.5", "2021-01-01 12:00:00"},
		{"2024-01-02", "2024-01-02"},
		{"Chair", "Chair"},
		{"", ""},
	}
	for _, c := range cases {
		if got := excelSerialToTimestamp(c.in); got != c.want {
			t.Errorf("excelSerialToTimestamp(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestReadSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stock.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`CREATE TABLE product_stock (product_id TEXT, product_name TEXT, stock INTEGER)`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO product_stock VALUES ('P1', 'Chair', 49), ('P2', 'Desk', 80)`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	df, err := Read(config.Source{Path: path, Format: "sqlite", Table: "product_stock"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if df.Nrow() != 2 {
		t.Fatalf("got %d rows, want 2", df.Nrow())
	}
	want := []string{"product_id", "product_name", "stock"}
	if got := df.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("columns = %v, want %v", got, want)
	}
}

func TestReadSQLiteInvalidTable(t *testing.T) {
	path := writeTempFile(t, "stock.db", "")
	_, err := Read(config.Source{Path: path, Format: "sqlite", Table: "stock; DROP TABLE x"})
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T (%v)", err, err)
	}
}

func TestLoadBundle(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	cfg := &config.Config{}
	cfg.Sources.Order = config.Source{Path: write("orders.csv", ordersCSV), Format: "csv"}
	cfg.Sources.Customer = config.Source{Path: write("customers.csv",
		"Customer ID,Customer Name,Segment\nC1,Ann,Consumer\n"), Format: "csv"}
	// The stock file lacks its stock column; the load must degrade, not fail.
	cfg.Sources.Stock = config.Source{Path: write("stock.csv",
		"Product ID,Product Name\nP1,Chair\n"), Format: "csv"}
	cfg.Sources.Product = config.Source{Path: write("products.csv",
		"Product ID,Product Name,Category\nP1,Chair,Furniture\n"), Format: "csv"}

	bundle, warnings, err := LoadBundle(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.Orders.Nrow() != 2 {
		t.Errorf("orders rows = %d, want 2", bundle.Orders.Nrow())
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want one for the stock schema gap", warnings)
	}
	if bundle.LoadedAt.IsZero() {
		t.Error("LoadedAt not set")
	}
}

func TestLoadBundleMissingSource(t *testing.T) {
	cfg := &config.Config{}
	cfg.Sources.Order = config.Source{Path: filepath.Join(t.TempDir(), "nope.csv"), Format: "csv"}

	_, _, err := LoadBundle(cfg)
	var srcErr *SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("expected *SourceError, got %T (%v)", err, err)
	}
}

func TestIsSourceFile(t *testing.T) {
	cases := map[string]bool{
		"orders.csv":   true,
		"stock.XLSX":   true,
		"stock.db":     true,
		"stock.sqlite": true,
		"notes.txt":    false,
		"app.log":      false,
	}
	for name, want := range cases {
		if got := isSourceFile(name); got != want {
			t.Errorf("isSourceFile(%q) = %v, want %v", name, got, want)
		}
	}
}
