package transform

import (
	"github.com/viswalis/viswalis/pkg/dataset"
)

// DropDuplicates removes rows that repeat an earlier row value for value.
// The first occurrence is kept and survivor order is preserved.
func DropDuplicates(ds *dataset.Dataset) (*dataset.Dataset, *Report, error) {
	report := newReport(OpDropDuplicates, ds)
	seen := make(map[string]struct{}, ds.NumRows())
	out := ds.FilterRows(func(i int) bool {
		key := ds.RowKey(i)
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		return true
	})
	return out, report.finish(out), nil
}

// DropEmptyRows removes rows in which every cell is missing
func DropEmptyRows(ds *dataset.Dataset) (*dataset.Dataset, *Report, error) {
	report := newReport(OpDropEmptyRows, ds)
	out := ds.FilterRows(func(i int) bool { return !ds.RowAllNull(i) })
	return out, report.finish(out), nil
}
