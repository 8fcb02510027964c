package transform

import (
	"fmt"
	"strings"

	"github.com/viswalis/viswalis/pkg/dataset"
)

// Operation is a transform bound to its parameters
type Operation interface {
	// Name returns the operation name used in reports, logs and metrics
	Name() string
	// Apply runs the transform. On error the returned Dataset is nil.
	Apply(ds *dataset.Dataset) (*dataset.Dataset, *Report, error)
}

// Func adapts a plain transform function to Operation
type Func struct {
	name string
	desc string
	fn   func(*dataset.Dataset) (*dataset.Dataset, *Report, error)
}

// NewFunc wraps fn as an Operation called name
func NewFunc(name string, fn func(*dataset.Dataset) (*dataset.Dataset, *Report, error)) *Func {
	return &Func{name: name, desc: name, fn: fn}
}

func (f *Func) Name() string { return f.name }

func (f *Func) Apply(ds *dataset.Dataset) (*dataset.Dataset, *Report, error) {
	return f.fn(ds)
}

// String describes the operation with its parameters
func (f *Func) String() string { return f.desc }

func describe(name string, params ...string) string {
	if len(params) == 0 {
		return name
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(params, ", "))
}

// Missing binds HandleMissing
func Missing(opts MissingOptions) Operation {
	params := []string{"strategy=" + string(opts.Strategy)}
	if opts.Strategy == StrategyFill {
		params = append(params, "column="+opts.TargetColumn, "value="+opts.FillValue)
	}
	return &Func{
		name: OpHandleMissing,
		desc: describe(OpHandleMissing, params...),
		fn: func(ds *dataset.Dataset) (*dataset.Dataset, *Report, error) {
			return HandleMissing(ds, opts)
		},
	}
}

// Dedup binds DropDuplicates
func Dedup() Operation {
	return NewFunc(OpDropDuplicates, DropDuplicates)
}

// Outliers binds RemoveOutliers
func Outliers(columns ...string) Operation {
	cols := append([]string(nil), columns...)
	return &Func{
		name: OpRemoveOutliers,
		desc: describe(OpRemoveOutliers, cols...),
		fn: func(ds *dataset.Dataset) (*dataset.Dataset, *Report, error) {
			return RemoveOutliers(ds, cols...)
		},
	}
}

// Names binds StandardizeNames
func Names(opts NameOptions) Operation {
	params := []string{"case=" + string(opts.Case)}
	if opts.Find != "" {
		params = append(params, fmt.Sprintf("find=%q", opts.Find), fmt.Sprintf("replace=%q", opts.Replace))
	}
	return &Func{
		name: OpStandardizeNames,
		desc: describe(OpStandardizeNames, params...),
		fn: func(ds *dataset.Dataset) (*dataset.Dataset, *Report, error) {
			return StandardizeNames(ds, opts)
		},
	}
}

// Drop binds DropColumn
func Drop(column string) Operation {
	return &Func{
		name: OpDropColumn,
		desc: describe(OpDropColumn, column),
		fn: func(ds *dataset.Dataset) (*dataset.Dataset, *Report, error) {
			return DropColumn(ds, column)
		},
	}
}

// Coerce binds CoerceNumeric
func Coerce(columns ...string) Operation {
	cols := append([]string(nil), columns...)
	return &Func{
		name: OpCoerceNumeric,
		desc: describe(OpCoerceNumeric, cols...),
		fn: func(ds *dataset.Dataset) (*dataset.Dataset, *Report, error) {
			return CoerceNumeric(ds, cols...)
		},
	}
}

// Trim binds TrimWhitespace
func Trim() Operation {
	return NewFunc(OpTrimWhitespace, TrimWhitespace)
}

// EmptyRows binds DropEmptyRows
func EmptyRows() Operation {
	return NewFunc(OpDropEmptyRows, DropEmptyRows)
}

// Auto binds AutoClean
func Auto() Operation {
	return NewFunc(OpAutoClean, AutoClean)
}
