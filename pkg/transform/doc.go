// Package transform implements the cleaning operations applied to a
// dataset.Dataset.
//
// Every operation is a pure function: it reads its input Dataset, never
// writes to it, and returns a new Dataset together with a Report describing
// what changed. On error no Dataset is returned and the input is untouched,
// which lets pipeline.Cleaner swap its working Dataset only on success.
//
// # Operations
//
//   - HandleMissing: drop, mean, median, mode or fill imputation
//   - DropDuplicates: keep the first of each set of identical rows
//   - RemoveOutliers: IQR fence filtering over numeric columns, one column
//     at a time in the order given
//   - StandardizeNames: trim, case transform and literal find/replace
//   - DropColumn: remove one named column
//   - CoerceNumeric: convert text columns to numbers, zero-filling failures
//   - TrimWhitespace, DropEmptyRows and AutoClean
//
// Each operation is also exposed as an Operation value so callers can build
// a recipe once and apply it through a pipeline:
//
//	ops := []transform.Operation{
//	    transform.Missing(transform.MissingOptions{Strategy: transform.StrategyMean}),
//	    transform.Outliers("age"),
//	}
//
// # Outlier semantics
//
// RemoveOutliers computes each column's fences on the dataset already
// filtered by the previous columns in the list. RemoveOutliers(d, a, b) and
// RemoveOutliers(d, b, a) can therefore keep different rows.
package transform
