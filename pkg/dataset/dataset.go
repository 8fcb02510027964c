// Package dataset provides the in-memory columnar table that every cleaning
// transform reads and produces.
//
// A Dataset is an ordered set of uniquely named columns of equal length. Each
// column carries a ColumnType tag inferred once at load time. Datasets are
// treated as immutable: transforms build new Datasets and never write to
// their input, so a Dataset handed out by a pipeline stays valid after later
// transforms run. Call Clone before mutating a Column in place.
package dataset

import (
	"strconv"
	"strings"

	"github.com/viswalis/viswalis/pkg/errors"
)

// Column is a named, typed sequence of cells aligned by row index
type Column struct {
	Name string
	Type ColumnType
	// Layout is the time layout used to parse and render a Temporal column
	Layout string
	Values []Value
}

// NewColumn creates a column from already typed values
func NewColumn(name string, typ ColumnType, values []Value) *Column {
	return &Column{Name: name, Type: typ, Values: values}
}

// Len returns the number of cells
func (c *Column) Len() int { return len(c.Values) }

// Clone returns a deep copy of the column
func (c *Column) Clone() *Column {
	values := make([]Value, len(c.Values))
	copy(values, c.Values)
	return &Column{Name: c.Name, Type: c.Type, Layout: c.Layout, Values: values}
}

// NullCount returns the number of missing cells
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if v.IsNull() {
			n++
		}
	}
	return n
}

// Floats returns the non-null numeric payloads in row order
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if !v.IsNull() && v.Kind() == Numeric {
			out = append(out, v.Num())
		}
	}
	return out
}

// TimeLayout returns the layout for a Temporal column, RFC 3339 if unset
func (c *Column) TimeLayout() string {
	if c.Layout == "" {
		return defaultRenderLayout
	}
	return c.Layout
}

// Format renders cell i the way it is written to CSV. Nulls render empty.
func (c *Column) Format(i int) string {
	v := c.Values[i]
	if v.IsNull() {
		return ""
	}
	switch v.Kind() {
	case Numeric:
		return FormatNumber(v.Num())
	case Temporal:
		return v.Time().Format(c.TimeLayout())
	case Text:
		return v.Str()
	default:
		return ""
	}
}

// Dataset is an ordered collection of uniquely named, equal-length columns
type Dataset struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New creates a dataset, checking that names are unique and lengths agree
func New(columns ...*Column) (*Dataset, error) {
	d := &Dataset{
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if col == nil {
			return nil, errors.Newf(errors.ErrorTypeInternal, "column %d is nil", i)
		}
		if _, dup := d.index[col.Name]; dup {
			return nil, errors.Newf(errors.ErrorTypeDuplicateColumn, "duplicate column name %q", col.Name).
				WithDetail("column", col.Name)
		}
		if i == 0 {
			d.rows = col.Len()
		} else if col.Len() != d.rows {
			return nil, errors.Newf(errors.ErrorTypeInternal, "column %q has %d values, expected %d", col.Name, col.Len(), d.rows).
				WithDetail("column", col.Name)
		}
		d.index[col.Name] = i
		d.columns = append(d.columns, col)
	}
	return d, nil
}

// MustNew is like New but panics on error. Intended for tests and literals.
func MustNew(columns ...*Column) *Dataset {
	d, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return d
}

// NumRows returns the number of rows
func (d *Dataset) NumRows() int { return d.rows }

// NumColumns returns the number of columns
func (d *Dataset) NumColumns() int { return len(d.columns) }

// ColumnNames returns the column names in order
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by exact (case-sensitive) name
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.columns[i], true
}

// ColumnAt returns the i-th column
func (d *Dataset) ColumnAt(i int) *Column { return d.columns[i] }

// Columns returns the columns in order. The slice is a copy; the columns are not.
func (d *Dataset) Columns() []*Column {
	out := make([]*Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// RequireColumn returns the named column or an UnknownColumn error
func (d *Dataset) RequireColumn(name string) (*Column, error) {
	col, ok := d.Column(name)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeUnknownColumn, "column %q not found", name).
			WithDetail("column", name).
			WithDetail("available", d.ColumnNames())
	}
	return col, nil
}

// Row returns the cells of row i across all columns
func (d *Dataset) Row(i int) []Value {
	row := make([]Value, len(d.columns))
	for j, c := range d.columns {
		row[j] = c.Values[i]
	}
	return row
}

// RowKey returns a canonical encoding of row i. Each cell key is length
// prefixed, so two rows share a key only when every cell is equal.
func (d *Dataset) RowKey(i int) string {
	var b strings.Builder
	for _, c := range d.columns {
		k := c.Values[i].Key()
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
	}
	return b.String()
}

// RowHasNull reports whether any cell in row i is missing
func (d *Dataset) RowHasNull(i int) bool {
	for _, c := range d.columns {
		if c.Values[i].IsNull() {
			return true
		}
	}
	return false
}

// RowAllNull reports whether every cell in row i is missing
func (d *Dataset) RowAllNull(i int) bool {
	for _, c := range d.columns {
		if !c.Values[i].IsNull() {
			return false
		}
	}
	return len(d.columns) > 0
}

// NullCount returns the number of missing cells across the dataset
func (d *Dataset) NullCount() int {
	n := 0
	for _, c := range d.columns {
		n += c.NullCount()
	}
	return n
}

// Clone returns a deep copy
func (d *Dataset) Clone() *Dataset {
	cols := make([]*Column, len(d.columns))
	for i, c := range d.columns {
		cols[i] = c.Clone()
	}
	return MustNew(cols...)
}

// FilterRows returns a new dataset holding the rows for which keep returns
// true, in their original order. Column count and types are unchanged.
func (d *Dataset) FilterRows(keep func(row int) bool) *Dataset {
	kept := make([]int, 0, d.rows)
	for i := 0; i < d.rows; i++ {
		if keep(i) {
			kept = append(kept, i)
		}
	}
	cols := make([]*Column, len(d.columns))
	for j, c := range d.columns {
		values := make([]Value, len(kept))
		for k, i := range kept {
			values[k] = c.Values[i]
		}
		cols[j] = &Column{Name: c.Name, Type: c.Type, Layout: c.Layout, Values: values}
	}
	return MustNew(cols...)
}

// ReplaceColumn returns a new dataset with the column of the same name
// swapped for col. Other columns are shared with d.
func (d *Dataset) ReplaceColumn(col *Column) (*Dataset, error) {
	i, ok := d.index[col.Name]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeUnknownColumn, "column %q not found", col.Name).
			WithDetail("column", col.Name)
	}
	cols := d.Columns()
	cols[i] = col
	return New(cols...)
}

// DropColumn returns a new dataset without the named column
func (d *Dataset) DropColumn(name string) (*Dataset, error) {
	if _, err := d.RequireColumn(name); err != nil {
		return nil, err
	}
	cols := make([]*Column, 0, len(d.columns)-1)
	for _, c := range d.columns {
		if c.Name != name {
			cols = append(cols, c)
		}
	}
	return New(cols...)
}

// Rename returns a new dataset whose columns carry names, in order. Fails
// with DuplicateColumn if two names coincide.
func (d *Dataset) Rename(names []string) (*Dataset, error) {
	if len(names) != len(d.columns) {
		return nil, errors.Newf(errors.ErrorTypeInternal, "got %d names for %d columns", len(names), len(d.columns))
	}
	cols := make([]*Column, len(d.columns))
	for i, c := range d.columns {
		cols[i] = &Column{Name: names[i], Type: c.Type, Layout: c.Layout, Values: c.Values}
	}
	return New(cols...)
}

// Equal reports whether two datasets have the same names, types and cells
func (d *Dataset) Equal(o *Dataset) bool {
	if d.rows != o.rows || len(d.columns) != len(o.columns) {
		return false
	}
	for j, c := range d.columns {
		oc := o.columns[j]
		if c.Name != oc.Name || c.Type != oc.Type {
			return false
		}
		for i := range c.Values {
			if !c.Values[i].Equal(oc.Values[i]) {
				return false
			}
		}
	}
	return true
}
