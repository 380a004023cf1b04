// Package dataset wraps gota DataFrames with the declared table schemas of
// the superstore datasets and the normalization rules every source must pass
// through before any column is referenced.
package dataset

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"

	"superstore-dashboard/src/utils"
)

// Kind identifies one of the four base tables.
type Kind string

const (
	KindOrder    Kind = "order"
	KindCustomer Kind = "customer"
	KindStock    Kind = "stock"
	KindProduct  Kind = "product"
)

// Schema declares which normalized columns a table must carry and which are
// known but optional. Operations still declare their own column needs via
// Require; the schema is checked once at load time.
type Schema struct {
	Required []string
	Optional []string
}

var schemas = map[Kind]Schema{
	KindOrder: {
		Required: []string{"order_id", "product_id", "customer_id", "region", "sales", "profit", "quantity", "order_date"},
		Optional: []string{"product_name", "customer_name"},
	},
	KindCustomer: {
		Required: []string{"customer_id", "customer_name", "segment"},
	},
	KindStock: {
		Required: []string{"product_id", "product_name", "stock"},
	},
	KindProduct: {
		Required: []string{"product_id", "product_name", "category"},
	},
}

// SchemaFor returns the declared schema of a table kind.
func SchemaFor(kind Kind) Schema {
	return schemas[kind]
}

// SchemaError reports columns an operation needed but the table lacks. It is
// recoverable everywhere: callers degrade the affected view and surface the
// message as a warning.
type SchemaError struct {
	Table   string
	Columns []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table %s: missing column(s) %s", e.Table, strings.Join(e.Columns, ", "))
}

// Table is an immutable named view over a DataFrame. All mutating operations
// return a new Table; the underlying frame is never written in place.
type Table struct {
	name string
	df   dataframe.DataFrame
}

func New(name string, df dataframe.DataFrame) Table {
	return Table{name: name, df: df}
}

func (t Table) Name() string { return t.name }

func (t Table) DataFrame() dataframe.DataFrame { return t.df }

func (t Table) Nrow() int { return t.df.Nrow() }

func (t Table) HasColumn(name string) bool {
	return utils.HasColumn(t.df, name)
}

// WithFrame keeps the table name but swaps the frame, for derived views.
func (t Table) WithFrame(df dataframe.DataFrame) Table {
	return Table{name: t.name, df: df}
}

// Require returns a SchemaError naming every listed column the table lacks.
func (t Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Table: t.name, Columns: missing}
	}
	return nil
}

// Distinct returns the sorted distinct non-missing values of a column.
// Missing cells are skipped so filter widgets never offer an empty choice;
// the rows themselves stay in the table.
func (t Table) Distinct(col string) []string {
	if !t.HasColumn(col) {
		return nil
	}
	s := t.df.Col(col)
	seen := make(map[string]struct{}, s.Len())
	var values []string
	for i := 0; i < s.Len(); i++ {
		el := s.Elem(i)
		if el.IsNA() {
			continue
		}
		v := el.String()
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			values = append(values, v)
		}
	}
	sort.Strings(values)
	return values
}

// Bundle holds the four base tables of one load. A bundle is read-only after
// construction; a refresh builds a new bundle and swaps the pointer.
type Bundle struct {
	Orders    Table
	Customers Table
	Stock     Table
	Products  Table
	LoadedAt  time.Time
}

// Table returns the bundle member for a kind.
func (b *Bundle) Table(kind Kind) Table {
	switch kind {
	case KindOrder:
		return b.Orders
	case KindCustomer:
		return b.Customers
	case KindStock:
		return b.Stock
	default:
		return b.Products
	}
}
