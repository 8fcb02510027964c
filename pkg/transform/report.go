package transform

import (
	"github.com/viswalis/viswalis/pkg/dataset"
)

// Operation names, as used in recipes, reports, logs and metrics
const (
	OpHandleMissing    = "handle_missing"
	OpDropDuplicates   = "drop_duplicates"
	OpRemoveOutliers   = "remove_outliers"
	OpStandardizeNames = "standardize_names"
	OpDropColumn       = "drop_column"
	OpCoerceNumeric    = "coerce_numeric"
	OpTrimWhitespace   = "trim_whitespace"
	OpDropEmptyRows    = "drop_empty_rows"
	OpAutoClean        = "auto_clean"
)

// Fence records the IQR bounds computed for one column
type Fence struct {
	Column  string  `json:"column"`
	Q1      float64 `json:"q1"`
	Q3      float64 `json:"q3"`
	IQR     float64 `json:"iqr"`
	Lower   float64 `json:"lower"`
	Upper   float64 `json:"upper"`
	Removed int     `json:"removed"`
	// Empty is set when the column had no values to compute quartiles from
	Empty bool `json:"empty,omitempty"`
}

// Contains reports whether v lies inside the closed fence interval
func (f Fence) Contains(v float64) bool {
	if f.Empty {
		return false
	}
	return v >= f.Lower && v <= f.Upper
}

// Report describes the effect of one operation
type Report struct {
	Operation     string `json:"operation"`
	RowsBefore    int    `json:"rows_before"`
	RowsAfter     int    `json:"rows_after"`
	ColumnsBefore int    `json:"columns_before"`
	ColumnsAfter  int    `json:"columns_after"`
	// FilledCells counts missing cells replaced by imputation
	FilledCells int `json:"filled_cells,omitempty"`
	// CoercedCells counts values that failed numeric parsing and became zero
	CoercedCells int `json:"coerced_cells,omitempty"`
	// CoercedByColumn breaks CoercedCells down per column
	CoercedByColumn map[string]int `json:"coerced_by_column,omitempty"`
	// ChangedCells counts cells rewritten in place, e.g. by trimming
	ChangedCells int               `json:"changed_cells,omitempty"`
	Fences       []Fence           `json:"fences,omitempty"`
	Renamed      map[string]string `json:"renamed,omitempty"`
	Steps        []*Report         `json:"steps,omitempty"`
}

// RowsRemoved returns how many rows the operation dropped
func (r *Report) RowsRemoved() int {
	return r.RowsBefore - r.RowsAfter
}

func newReport(op string, before *dataset.Dataset) *Report {
	return &Report{
		Operation:     op,
		RowsBefore:    before.NumRows(),
		ColumnsBefore: before.NumColumns(),
	}
}

func (r *Report) finish(after *dataset.Dataset) *Report {
	r.RowsAfter = after.NumRows()
	r.ColumnsAfter = after.NumColumns()
	return r
}
