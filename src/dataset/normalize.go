package dataset

import (
	"strings"

	"github.com/go-gota/gota/series"
)

// NumericColumns are coerced to float wherever they appear. Cells that fail
// to parse become NA; the row survives.
var NumericColumns = []string{"sales", "profit", "quantity", "stock"}

// NormalizeName maps a raw source column name onto its canonical form:
// trimmed, lower-cased, internal spaces collapsed to underscores. Applying it
// twice yields the same result as once.
func NormalizeName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.Join(strings.Fields(name), "_")
	return name
}

// Normalize canonicalizes all column names and coerces the known numeric
// columns. It validates the table against its declared schema and returns a
// SchemaError listing any required column still absent afterwards; the table
// is returned normalized either way so callers can degrade.
func Normalize(t Table, kind Kind) (Table, error) {
	// SetNames writes through the shared series, so work on a copy; the
	// caller's frame stays untouched.
	df := t.df.Copy()

	names := df.Names()
	normalized := make([]string, len(names))
	for i, n := range names {
		normalized[i] = NormalizeName(n)
	}
	if err := df.SetNames(normalized...); err != nil {
		return t, err
	}

	for _, col := range NumericColumns {
		if !t.WithFrame(df).HasColumn(col) {
			continue
		}
		// Rebuild the column as Float: unparseable records turn into NaN,
		// which gota reports as NA.
		df = df.Mutate(series.New(df.Col(col).Records(), series.Float, col))
	}

	out := t.WithFrame(df)
	if err := out.Require(SchemaFor(kind).Required...); err != nil {
		return out, err
	}
	return out, nil
}
