package analyzer

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"analyzer/pkg/serrors"
)

// Row holds one worksheet row keyed by trimmed column name. Cell values are
// nil (missing), string, or float64 after numeric coercion.
type Row map[string]any

// ParseWorkbook reads the first worksheet of an Excel workbook and returns its
// data rows. The first row is treated as the header; header names are trimmed.
// Every required column that the sheet does not carry is added with a nil
// value so validation can report it as missing. Values in numeric operational
// columns are coerced to float64; values that do not parse are treated as
// missing, matching how the export tooling leaves cells blank.
func ParseWorkbook(data []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "could not read Excel file")
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, serrors.With(serrors.ErrBadRequest, "workbook has no sheets")
	}

	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "could not read sheet %q", sheets[0])
	}
	if len(cells) == 0 {
		return nil, nil
	}

	header := make([]string, len(cells[0]))
	for i, name := range cells[0] {
		header[i] = strings.TrimSpace(name)
	}

	required := allRequiredColumns()
	rows := make([]Row, 0, len(cells)-1)
	for _, line := range cells[1:] {
		row := make(Row, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			var value any
			if i < len(line) && strings.TrimSpace(line[i]) != "" {
				value = line[i]
			}
			row[name] = value
		}
		for _, col := range required {
			if _, ok := row[col]; !ok {
				row[col] = nil
			}
		}
		coerceNumeric(row)
		rows = append(rows, row)
	}

	return rows, nil
}

// coerceNumeric converts values of numeric operational columns to float64 in
// place. Unparseable or non-finite inputs become nil.
func coerceNumeric(row Row) {
	for _, col := range RequiredOperationalColumns {
		if !numericOperationalColumn(col) {
			continue
		}
		s, ok := row[col].(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(s, ",", "")), 64)
		if err != nil || !isFinite(n) {
			row[col] = nil

			continue
		}
		row[col] = n
	}
}

// cellString renders a cell value the way it is compared during validation:
// trimmed, with nil rendered as the empty string.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

// isBlank reports whether a cell holds no usable value.
func isBlank(v any) bool {
	return cellString(v) == ""
}

// isFinite reports whether f is neither NaN nor infinite.
func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
