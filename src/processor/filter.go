// Package processor holds the filter engine and the aggregation pipeline.
// Every function here is a pure transform of its input tables: aggregates
// never fail once handed valid tables, they degrade and report warnings.
package processor

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"superstore-dashboard/src/dataset"
)

// Selection carries the user-chosen filter values. A nil slice means "all
// observed values" (the widget default); an empty slice means none selected.
type Selection struct {
	Regions  []string `json:"regions"`
	Segments []string `json:"segments"`
}

// FilterIn restricts a table to rows whose value in col is a member of
// allowed. A nil allowed set leaves the table untouched. If the column is
// absent the full table is returned together with a *dataset.SchemaError so
// the caller can warn instead of serving silently wrong data.
func FilterIn(t dataset.Table, col string, allowed []string) (dataset.Table, error) {
	if allowed == nil {
		return t, nil
	}
	if err := t.Require(col); err != nil {
		return t, err
	}

	set := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		set[v] = struct{}{}
	}

	df := t.DataFrame().Filter(dataframe.F{
		Colname:    col,
		Comparator: series.CompFunc,
		Comparando: func(el series.Element) bool {
			_, ok := set[el.String()]
			return ok
		},
	})

	return t.WithFrame(df), nil
}

// FilterOptions enumerates the selector values for a column of the base
// table: distinct, non-missing, sorted.
func FilterOptions(t dataset.Table, col string) ([]string, error) {
	if err := t.Require(col); err != nil {
		return nil, err
	}
	return t.Distinct(col), nil
}
