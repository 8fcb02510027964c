package transform

import (
	"strings"

	"github.com/viswalis/viswalis/pkg/dataset"
	"github.com/viswalis/viswalis/pkg/errors"
)

// CoerceNumeric converts the listed columns to Numeric. Text cells that do
// not parse become 0 and are counted in Report.CoercedCells; missing cells
// stay missing. Temporal columns cannot be coerced and fail with TypeMismatch.
func CoerceNumeric(ds *dataset.Dataset, columns ...string) (*dataset.Dataset, *Report, error) {
	if len(columns) == 0 {
		return nil, nil, errors.New(errors.ErrorTypeMissingParameter, "numeric coercion needs at least one column")
	}
	for _, name := range columns {
		col, err := ds.RequireColumn(name)
		if err != nil {
			return nil, nil, err
		}
		if col.Type == dataset.Temporal {
			return nil, nil, errors.Newf(errors.ErrorTypeTypeMismatch, "temporal column %q cannot be coerced to numeric", name).
				WithDetail("column", name)
		}
	}

	report := newReport(OpCoerceNumeric, ds)
	current := ds
	for _, name := range columns {
		col, _ := current.Column(name)
		if col.Type == dataset.Numeric {
			continue
		}
		out := &dataset.Column{Name: col.Name, Type: dataset.Numeric, Values: make([]dataset.Value, col.Len())}
		fallbacks := 0
		for i, v := range col.Values {
			if v.IsNull() {
				continue
			}
			f, ok := dataset.ParseNumber(v.Str())
			if !ok {
				fallbacks++
			}
			out.Values[i] = dataset.NumberValue(f)
		}
		if fallbacks > 0 {
			if report.CoercedByColumn == nil {
				report.CoercedByColumn = make(map[string]int)
			}
			report.CoercedByColumn[name] = fallbacks
			report.CoercedCells += fallbacks
		}
		next, err := current.ReplaceColumn(out)
		if err != nil {
			return nil, nil, err
		}
		current = next
	}
	return current, report.finish(current), nil
}

// TrimWhitespace trims surrounding whitespace in every Text cell
func TrimWhitespace(ds *dataset.Dataset) (*dataset.Dataset, *Report, error) {
	report := newReport(OpTrimWhitespace, ds)
	cols := ds.Columns()
	for j, col := range cols {
		if col.Type != dataset.Text {
			continue
		}
		var trimmed *dataset.Column
		for i, v := range col.Values {
			if v.IsNull() {
				continue
			}
			s := strings.TrimSpace(v.Str())
			if s == v.Str() {
				continue
			}
			if trimmed == nil {
				trimmed = col.Clone()
			}
			trimmed.Values[i] = dataset.TextValue(s)
			report.ChangedCells++
		}
		if trimmed != nil {
			cols[j] = trimmed
		}
	}
	if report.ChangedCells == 0 {
		return ds, report.finish(ds), nil
	}
	out, err := dataset.New(cols...)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to rebuild dataset after trimming")
	}
	return out, report.finish(out), nil
}
