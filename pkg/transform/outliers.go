package transform

import (
	"github.com/viswalis/viswalis/pkg/dataset"
	"github.com/viswalis/viswalis/pkg/errors"
)

// RemoveOutliers drops rows whose value in a listed column falls outside
// [Q1 - 1.5·IQR, Q3 + 1.5·IQR]. Columns are handled one after another, each
// on the rows left by the previous ones. A missing cell is never inside a
// fence, so rows missing a listed column are dropped too.
//
// Every listed column is checked before any row is dropped: an absent column
// fails with UnknownColumn, a non-numeric one with TypeMismatch, and an empty
// list with MissingParameter.
func RemoveOutliers(ds *dataset.Dataset, columns ...string) (*dataset.Dataset, *Report, error) {
	if len(columns) == 0 {
		return nil, nil, errors.New(errors.ErrorTypeMissingParameter, "outlier removal needs at least one column")
	}
	for _, name := range columns {
		col, err := ds.RequireColumn(name)
		if err != nil {
			return nil, nil, err
		}
		if col.Type != dataset.Numeric {
			return nil, nil, errors.Newf(errors.ErrorTypeTypeMismatch, "column %q is %s, outlier removal needs numeric", name, col.Type).
				WithDetail("column", name).
				WithDetail("column_type", col.Type.String())
		}
	}

	report := newReport(OpRemoveOutliers, ds)
	current := ds
	for _, name := range columns {
		col, _ := current.Column(name)
		fence := IQRFence(name, col.Floats())
		before := current.NumRows()
		current = current.FilterRows(func(i int) bool {
			v := col.Values[i]
			return !v.IsNull() && fence.Contains(v.Num())
		})
		fence.Removed = before - current.NumRows()
		report.Fences = append(report.Fences, fence)
	}
	return current, report.finish(current), nil
}
