package dataset

import (
	"math"
	"strconv"
	"time"
)

// ColumnType is the type tag attached to every column at load time.
// Transforms dispatch on it with exhaustive switches instead of probing values.
type ColumnType int

const (
	// Text columns hold arbitrary strings
	Text ColumnType = iota
	// Numeric columns hold float64 values
	Numeric
	// Temporal columns hold time.Time values rendered with the column layout
	Temporal
)

// String returns the lowercase name of the column type
func (t ColumnType) String() string {
	switch t {
	case Text:
		return "text"
	case Numeric:
		return "numeric"
	case Temporal:
		return "temporal"
	default:
		return "unknown"
	}
}

// ParseColumnType parses the name produced by String
func ParseColumnType(s string) (ColumnType, bool) {
	switch s {
	case "text":
		return Text, true
	case "numeric":
		return Numeric, true
	case "temporal":
		return Temporal, true
	default:
		return Text, false
	}
}

// Value is a single typed cell. The zero Value is null.
type Value struct {
	valid bool
	kind  ColumnType
	num   float64
	str   string
	t     time.Time
}

// Null returns a missing cell
func Null() Value { return Value{} }

// NumberValue returns a numeric cell. NaN is stored as null.
func NumberValue(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	if f == 0 {
		f = 0 // fold -0
	}
	return Value{valid: true, kind: Numeric, num: f}
}

// TextValue returns a text cell
func TextValue(s string) Value { return Value{valid: true, kind: Text, str: s} }

// TimeValue returns a temporal cell
func TimeValue(t time.Time) Value { return Value{valid: true, kind: Temporal, t: t} }

// IsNull reports whether the cell is missing
func (v Value) IsNull() bool { return !v.valid }

// Kind returns the type of a non-null cell
func (v Value) Kind() ColumnType { return v.kind }

// Num returns the numeric payload; zero for non-numeric cells
func (v Value) Num() float64 { return v.num }

// Str returns the text payload; empty for non-text cells
func (v Value) Str() string { return v.str }

// Time returns the temporal payload; the zero time for non-temporal cells
func (v Value) Time() time.Time { return v.t }

// Equal reports value-for-value equality. Two nulls are equal.
func (v Value) Equal(o Value) bool {
	if v.valid != o.valid {
		return false
	}
	if !v.valid {
		return true
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Numeric:
		return v.num == o.num
	case Temporal:
		return v.t.Equal(o.t)
	case Text:
		return v.str == o.str
	default:
		return false
	}
}

// Less orders two non-null cells of the same kind
func (v Value) Less(o Value) bool {
	switch v.kind {
	case Numeric:
		return v.num < o.num
	case Temporal:
		return v.t.Before(o.t)
	case Text:
		return v.str < o.str
	default:
		return false
	}
}

// Key is a canonical encoding used for hashing rows and counting frequencies.
// Equal values have equal keys.
func (v Value) Key() string {
	if !v.valid {
		return "\x00"
	}
	switch v.kind {
	case Numeric:
		return "n" + strconv.FormatFloat(v.num, 'g', -1, 64)
	case Temporal:
		return "t" + strconv.FormatInt(v.t.UnixNano(), 10)
	case Text:
		return "s" + v.str
	default:
		return "?"
	}
}

// FormatNumber renders a float in its shortest round-trip form, without an
// exponent for magnitudes people usually type by hand.
func FormatNumber(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
