package transform

import (
	"github.com/montanaflynn/stats"

	"github.com/viswalis/viswalis/pkg/dataset"
	"github.com/viswalis/viswalis/pkg/errors"
)

// Strategy selects how HandleMissing treats missing cells
type Strategy string

const (
	// StrategyDrop removes every row holding a missing cell in any column
	StrategyDrop Strategy = "drop"
	// StrategyMean fills numeric columns with their mean
	StrategyMean Strategy = "mean"
	// StrategyMedian fills numeric columns with their median
	StrategyMedian Strategy = "median"
	// StrategyMode fills every column with its most frequent value
	StrategyMode Strategy = "mode"
	// StrategyFill fills one column with a literal value
	StrategyFill Strategy = "fill"
)

// UnknownSentinel fills columns that have no non-missing value under StrategyMode
const UnknownSentinel = "Unknown"

// MissingOptions parameterizes HandleMissing
type MissingOptions struct {
	Strategy Strategy `yaml:"strategy" json:"strategy"`
	// TargetColumn and FillValue are required by StrategyFill and ignored otherwise
	TargetColumn string `yaml:"target_column" json:"target_column,omitempty"`
	FillValue    string `yaml:"fill_value" json:"fill_value,omitempty"`
}

// HandleMissing applies a missing-value strategy. Errors: InvalidStrategy for
// an unknown strategy; MissingParameter, UnknownColumn or TypeMismatch for a
// malformed fill.
func HandleMissing(ds *dataset.Dataset, opts MissingOptions) (*dataset.Dataset, *Report, error) {
	report := newReport(OpHandleMissing, ds)

	switch opts.Strategy {
	case StrategyDrop:
		out := ds.FilterRows(func(i int) bool { return !ds.RowHasNull(i) })
		return out, report.finish(out), nil

	case StrategyMean, StrategyMedian:
		fill := fillMean
		if opts.Strategy == StrategyMedian {
			fill = fillMedian
		}
		out, err := imputeColumns(ds, report, func(col *dataset.Column) (*dataset.Column, int) {
			if col.Type != dataset.Numeric {
				return col, 0
			}
			return fill(col)
		})
		if err != nil {
			return nil, nil, err
		}
		return out, report.finish(out), nil

	case StrategyMode:
		out, err := imputeColumns(ds, report, fillMode)
		if err != nil {
			return nil, nil, err
		}
		return out, report.finish(out), nil

	case StrategyFill:
		return fillLiteral(ds, report, opts)

	default:
		return nil, nil, errors.Newf(errors.ErrorTypeInvalidStrategy, "unknown missing-value strategy %q", opts.Strategy).
			WithDetail("strategy", string(opts.Strategy)).
			WithDetail("supported", []Strategy{StrategyDrop, StrategyMean, StrategyMedian, StrategyMode, StrategyFill})
	}
}

// imputeColumns runs fill over every column and assembles the result
func imputeColumns(ds *dataset.Dataset, report *Report, fill func(*dataset.Column) (*dataset.Column, int)) (*dataset.Dataset, error) {
	cols := ds.Columns()
	for i, col := range cols {
		filled, n := fill(col)
		cols[i] = filled
		report.FilledCells += n
	}
	out, err := dataset.New(cols...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to rebuild dataset after imputation")
	}
	return out, nil
}

// fillWith returns a copy of col with every null replaced by v. Columns
// without nulls are returned as is.
func fillWith(col *dataset.Column, v dataset.Value) (*dataset.Column, int) {
	if col.NullCount() == 0 {
		return col, 0
	}
	out := col.Clone()
	n := 0
	for i, cell := range out.Values {
		if cell.IsNull() {
			out.Values[i] = v
			n++
		}
	}
	return out, n
}

func fillMean(col *dataset.Column) (*dataset.Column, int) {
	mean, err := stats.Mean(col.Floats())
	if err != nil {
		// no values to average
		return col, 0
	}
	return fillWith(col, dataset.NumberValue(mean))
}

func fillMedian(col *dataset.Column) (*dataset.Column, int) {
	median, err := stats.Median(col.Floats())
	if err != nil {
		return col, 0
	}
	return fillWith(col, dataset.NumberValue(median))
}

// fillMode fills with the most frequent value; ties go to the smallest value.
// An all-null column becomes a Text column of UnknownSentinel.
func fillMode(col *dataset.Column) (*dataset.Column, int) {
	if col.NullCount() == 0 {
		return col, 0
	}
	mode, ok := Mode(col)
	if !ok {
		out := &dataset.Column{Name: col.Name, Type: dataset.Text, Values: make([]dataset.Value, col.Len())}
		for i := range out.Values {
			out.Values[i] = dataset.TextValue(UnknownSentinel)
		}
		return out, col.Len()
	}
	return fillWith(col, mode)
}

// Mode returns the most frequent non-null value of col. Ties resolve to the
// smallest value in the column's natural order. ok is false when col has no
// non-null values.
func Mode(col *dataset.Column) (dataset.Value, bool) {
	type tally struct {
		value dataset.Value
		count int
	}
	counts := make(map[string]*tally)
	var best *tally
	for _, v := range col.Values {
		if v.IsNull() {
			continue
		}
		k := v.Key()
		t, seen := counts[k]
		if !seen {
			t = &tally{value: v}
			counts[k] = t
		}
		t.count++
	}
	for _, t := range counts {
		if best == nil || t.count > best.count || (t.count == best.count && t.value.Less(best.value)) {
			best = t
		}
	}
	if best == nil {
		return dataset.Null(), false
	}
	return best.value, true
}

func fillLiteral(ds *dataset.Dataset, report *Report, opts MissingOptions) (*dataset.Dataset, *Report, error) {
	if opts.TargetColumn == "" || opts.FillValue == "" {
		return nil, nil, errors.New(errors.ErrorTypeMissingParameter, "fill strategy requires a target column and a fill value").
			WithDetail("target_column", opts.TargetColumn).
			WithDetail("fill_value", opts.FillValue)
	}

	col, err := ds.RequireColumn(opts.TargetColumn)
	if err != nil {
		return nil, nil, err
	}

	var v dataset.Value
	switch col.Type {
	case dataset.Numeric:
		f, ok := dataset.ParseNumber(opts.FillValue)
		if !ok {
			return nil, nil, errors.Newf(errors.ErrorTypeTypeMismatch, "fill value %q is not numeric", opts.FillValue).
				WithDetail("column", col.Name).
				WithDetail("column_type", col.Type.String())
		}
		v = dataset.NumberValue(f)
	case dataset.Temporal:
		t, ok := dataset.ParseTime(opts.FillValue, col.TimeLayout())
		if !ok {
			return nil, nil, errors.Newf(errors.ErrorTypeTypeMismatch, "fill value %q does not match layout %q", opts.FillValue, col.TimeLayout()).
				WithDetail("column", col.Name).
				WithDetail("column_type", col.Type.String())
		}
		v = dataset.TimeValue(t)
	case dataset.Text:
		v = dataset.TextValue(opts.FillValue)
	default:
		return nil, nil, errors.Newf(errors.ErrorTypeInternal, "unhandled column type %v", col.Type)
	}

	filled, n := fillWith(col, v)
	report.FilledCells = n
	out, err := ds.ReplaceColumn(filled)
	if err != nil {
		return nil, nil, err
	}
	return out, report.finish(out), nil
}
