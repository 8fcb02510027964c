package transform

import (
	"github.com/viswalis/viswalis/pkg/dataset"
	"github.com/viswalis/viswalis/pkg/errors"
)

// AutoClean runs the default cleaning recipe:
//
//  1. drop rows where every cell is missing
//  2. drop duplicate rows
//  3. fill numeric columns with their mean and the rest with their mode
//  4. remove IQR outliers from every numeric column, in column order
//  5. trim whitespace in text cells
//  6. coerce the numeric columns of step 4 back to numbers
//
// The per-step reports are kept in Report.Steps.
func AutoClean(ds *dataset.Dataset) (*dataset.Dataset, *Report, error) {
	report := newReport(OpAutoClean, ds)
	current := ds

	run := func(fn func(*dataset.Dataset) (*dataset.Dataset, *Report, error)) error {
		next, step, err := fn(current)
		if err != nil {
			return err
		}
		current = next
		report.Steps = append(report.Steps, step)
		report.FilledCells += step.FilledCells
		report.CoercedCells += step.CoercedCells
		report.ChangedCells += step.ChangedCells
		report.Fences = append(report.Fences, step.Fences...)
		return nil
	}

	if err := run(DropEmptyRows); err != nil {
		return nil, nil, err
	}
	if err := run(DropDuplicates); err != nil {
		return nil, nil, err
	}
	if err := run(imputeByType); err != nil {
		return nil, nil, err
	}

	var numeric []string
	for _, col := range current.Columns() {
		if col.Type == dataset.Numeric {
			numeric = append(numeric, col.Name)
		}
	}
	if len(numeric) > 0 {
		if err := run(func(d *dataset.Dataset) (*dataset.Dataset, *Report, error) {
			return RemoveOutliers(d, numeric...)
		}); err != nil {
			return nil, nil, err
		}
	}
	if err := run(TrimWhitespace); err != nil {
		return nil, nil, err
	}
	if len(numeric) > 0 {
		if err := run(func(d *dataset.Dataset) (*dataset.Dataset, *Report, error) {
			return CoerceNumeric(d, numeric...)
		}); err != nil {
			return nil, nil, err
		}
	}

	return current, report.finish(current), nil
}

// imputeByType fills numeric columns with the mean and every other column
// with the mode.
func imputeByType(ds *dataset.Dataset) (*dataset.Dataset, *Report, error) {
	report := newReport(OpHandleMissing, ds)
	out, err := imputeColumns(ds, report, func(col *dataset.Column) (*dataset.Column, int) {
		if col.Type == dataset.Numeric {
			return fillMean(col)
		}
		return fillMode(col)
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeInternal, "auto clean imputation failed")
	}
	return out, report.finish(out), nil
}
