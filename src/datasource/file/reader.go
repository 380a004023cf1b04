// reader.go
package file

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
	_ "modernc.org/sqlite"

	"superstore-dashboard/src/config"
	"superstore-dashboard/src/dataset"
)

// SourceError means a dataset could not be read at all (missing file, dead
// URL). It is fatal for the load that attempted it.
type SourceError struct {
	Locator string
	Err     error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Locator, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// ParseError means the source was readable but its content is not a valid
// table in the configured format.
type ParseError struct {
	Locator string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("source %s malformed: %v", e.Locator, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

const numberPattern = "^[0-9.]+$"

var numberRe = regexp.MustCompile(numberPattern)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Read materializes one source into a string-typed DataFrame. Column order
// is whatever the source says; nothing downstream depends on it. Numeric
// typing happens later in dataset.Normalize.
func Read(src config.Source) (dataframe.DataFrame, error) {
	switch strings.ToLower(src.Format) {
	case "csv", "":
		data, err := fetch(src.Path)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		return readCSV(src.Path, data)
	case "xlsx":
		data, err := fetch(src.Path)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		return readXLSX(src.Path, data, src.Sheet)
	case "sqlite":
		return readSQLite(src.Path, src.Table)
	default:
		return dataframe.DataFrame{}, &ParseError{Locator: src.Path, Err: fmt.Errorf("unknown source format %q", src.Format)}
	}
}

// fetch reads the raw bytes of a path or http(s) URL.
func fetch(locator string) ([]byte, error) {
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		resp, err := http.Get(locator)
		if err != nil {
			return nil, &SourceError{Locator: locator, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, &SourceError{Locator: locator, Err: fmt.Errorf("unexpected status %s", resp.Status)}
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &SourceError{Locator: locator, Err: err}
		}
		return data, nil
	}

	data, err := os.ReadFile(locator)
	if err != nil {
		return nil, &SourceError{Locator: locator, Err: err}
	}
	return data, nil
}

func readCSV(locator string, data []byte) (dataframe.DataFrame, error) {
	// Everything is loaded as strings; coercion is the Normalizer's job.
	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Error() != nil {
		return dataframe.DataFrame{}, &ParseError{Locator: locator, Err: df.Error()}
	}
	return df, nil
}

func readXLSX(locator string, data []byte, sheetName string) (dataframe.DataFrame, error) {
	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return dataframe.DataFrame{}, &ParseError{Locator: locator, Err: err}
	}

	if len(xlFile.Sheets) == 0 {
		return dataframe.DataFrame{}, &ParseError{Locator: locator, Err: fmt.Errorf("workbook has no sheets")}
	}

	sheet := xlFile.Sheets[0]
	if sheetName != "" {
		s, ok := xlFile.Sheet[sheetName]
		if !ok {
			return dataframe.DataFrame{}, &ParseError{Locator: locator, Err: fmt.Errorf("sheet %q not found", sheetName)}
		}
		sheet = s
	}

	return convertSheetToDataFrame(sheet)
}

// convertSheetToDataFrame turns an xlsx sheet into a string DataFrame. The
// first row is the header; date-like columns holding raw Excel serial
// numbers are rewritten as timestamps.
func convertSheetToDataFrame(sheet *xlsx.Sheet) (dataframe.DataFrame, error) {
	if len(sheet.Rows) < 1 {
		return dataframe.DataFrame{}, fmt.Errorf("sheet %q is empty", sheet.Name)
	}

	var headers []string
	for _, cell := range sheet.Rows[0].Cells {
		headers = append(headers, cell.String())
	}
	if len(headers) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("sheet %q has no header row", sheet.Name)
	}

	columns := make([][]string, len(headers))
	for i := range columns {
		columns[i] = make([]string, 0, len(sheet.Rows)-1)
	}

	for _, row := range sheet.Rows[1:] {
		for i := range headers {
			v := ""
			if i < len(row.Cells) {
				v = row.Cells[i].String()
			}
			columns[i] = append(columns[i], v)
		}
	}

	seriesList := make([]series.Series, len(headers))
	for i, colName := range headers {
		col := columns[i]
		if isDateColumn(colName) {
			for j, v := range col {
				col[j] = excelSerialToTimestamp(v)
			}
		}
		seriesList[i] = series.New(col, series.String, colName)
	}

	return dataframe.New(seriesList...), nil
}

func isDateColumn(name string) bool {
	return strings.Contains(dataset.NormalizeName(name), "date")
}

// excelSerialToTimestamp converts an Excel serial date number into a
// "2006-01-02 15:04:05" string. Non-numeric cells pass through untouched.
// The 1899-12-30 epoch already absorbs Excel's phantom 1900-02-29 for any
// date after it.
func excelSerialToTimestamp(v string) string {
	s := strings.TrimSpace(v)
	if s == "" || !numberRe.MatchString(s) {
		return v
	}

	var excelDays float64
	if _, err := fmt.Sscanf(s, "%f", &excelDays); err != nil {
		return v
	}

	base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	days := int(excelDays)
	fraction := excelDays - float64(days)

	result := base.AddDate(0, 0, days).
		Add(time.Duration(86400*fraction*1e9) * time.Nanosecond)

	return result.Format("2006-01-02 15:04:05")
}

func readSQLite(path, table string) (dataframe.DataFrame, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return dataframe.DataFrame{}, &SourceError{Locator: path, Err: fmt.Errorf("sqlite sources must be local files")}
	}
	if !identRe.MatchString(table) {
		return dataframe.DataFrame{}, &ParseError{Locator: path, Err: fmt.Errorf("invalid table name %q", table)}
	}
	if _, err := os.Stat(path); err != nil {
		return dataframe.DataFrame{}, &SourceError{Locator: path, Err: err}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return dataframe.DataFrame{}, &SourceError{Locator: path, Err: err}
	}
	defer db.Close()

	rows, err := db.Query(fmt.Sprintf("SELECT * FROM %s", table))
	if err != nil {
		return dataframe.DataFrame{}, &ParseError{Locator: path, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return dataframe.DataFrame{}, &ParseError{Locator: path, Err: err}
	}

	columns := make([][]string, len(cols))
	vals := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return dataframe.DataFrame{}, &ParseError{Locator: path, Err: err}
		}
		for i, v := range vals {
			columns[i] = append(columns[i], sqlValueString(v))
		}
	}
	if err := rows.Err(); err != nil {
		return dataframe.DataFrame{}, &ParseError{Locator: path, Err: err}
	}

	seriesList := make([]series.Series, len(cols))
	for i, colName := range cols {
		seriesList[i] = series.New(columns[i], series.String, colName)
	}

	return dataframe.New(seriesList...), nil
}

func sqlValueString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(x)
	}
}

// LoadBundle reads and normalizes all four base tables. Any read or parse
// failure aborts the whole load; schema gaps after normalization degrade to
// warnings so a deployment missing an optional dataset column still serves
// the views it can.
func LoadBundle(cfg *config.Config) (*dataset.Bundle, []string, error) {
	var warnings []string

	load := func(src config.Source, kind dataset.Kind) (dataset.Table, error) {
		df, err := Read(src)
		if err != nil {
			return dataset.Table{}, err
		}
		t, err := dataset.Normalize(dataset.New(string(kind), df), kind)
		if err != nil {
			var schemaErr *dataset.SchemaError
			if errors.As(err, &schemaErr) {
				warnings = append(warnings, schemaErr.Error())
				return t, nil
			}
			return t, &ParseError{Locator: src.Path, Err: err}
		}
		return t, nil
	}

	orders, err := load(cfg.Sources.Order, dataset.KindOrder)
	if err != nil {
		return nil, nil, err
	}
	customers, err := load(cfg.Sources.Customer, dataset.KindCustomer)
	if err != nil {
		return nil, nil, err
	}
	stock, err := load(cfg.Sources.Stock, dataset.KindStock)
	if err != nil {
		return nil, nil, err
	}
	products, err := load(cfg.Sources.Product, dataset.KindProduct)
	if err != nil {
		return nil, nil, err
	}

	return &dataset.Bundle{
		Orders:    orders,
		Customers: customers,
		Stock:     stock,
		Products:  products,
		LoadedAt:  time.Now(),
	}, warnings, nil
}
