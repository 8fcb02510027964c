package dataset

import (
	"time"

	"github.com/montanaflynn/stats"
)

// ColumnProfile summarizes one column. Numeric fields are set for Numeric
// columns only, temporal bounds for Temporal columns only.
type ColumnProfile struct {
	Name     string     `json:"name"`
	Type     string     `json:"type"`
	Count    int        `json:"count"`
	Missing  int        `json:"missing"`
	Unique   int        `json:"unique"`
	Top      string     `json:"top,omitempty"`
	TopCount int        `json:"top_count,omitempty"`
	Mean     *float64   `json:"mean,omitempty"`
	Median   *float64   `json:"median,omitempty"`
	StdDev   *float64   `json:"std_dev,omitempty"`
	Min      *float64   `json:"min,omitempty"`
	Max      *float64   `json:"max,omitempty"`
	Earliest *time.Time `json:"earliest,omitempty"`
	Latest   *time.Time `json:"latest,omitempty"`
}

// Profile summarizes a dataset
type Profile struct {
	Rows    int             `json:"rows"`
	Columns []ColumnProfile `json:"columns"`
}

// Describe computes a profile of every column
func Describe(d *Dataset) *Profile {
	p := &Profile{Rows: d.NumRows(), Columns: make([]ColumnProfile, 0, d.NumColumns())}
	for _, col := range d.columns {
		p.Columns = append(p.Columns, describeColumn(col))
	}
	return p
}

func describeColumn(col *Column) ColumnProfile {
	cp := ColumnProfile{
		Name:    col.Name,
		Type:    col.Type.String(),
		Missing: col.NullCount(),
	}
	cp.Count = col.Len() - cp.Missing

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, v := range col.Values {
		if v.IsNull() {
			continue
		}
		k := v.Key()
		if _, ok := counts[k]; !ok {
			firstSeen[k] = i
		}
		counts[k]++
	}
	cp.Unique = len(counts)

	switch col.Type {
	case Numeric:
		values := stats.Float64Data(col.Floats())
		if mean, err := values.Mean(); err == nil {
			cp.Mean = &mean
		}
		if median, err := values.Median(); err == nil {
			cp.Median = &median
		}
		if sd, err := values.StandardDeviationSample(); err == nil && len(values) > 1 {
			cp.StdDev = &sd
		}
		if lo, err := values.Min(); err == nil {
			cp.Min = &lo
		}
		if hi, err := values.Max(); err == nil {
			cp.Max = &hi
		}
	case Temporal:
		for _, v := range col.Values {
			if v.IsNull() {
				continue
			}
			t := v.Time()
			if cp.Earliest == nil || t.Before(*cp.Earliest) {
				cp.Earliest = &t
			}
			if cp.Latest == nil || t.After(*cp.Latest) {
				cp.Latest = &t
			}
		}
	case Text:
		for k, n := range counts {
			i := firstSeen[k]
			if n > cp.TopCount || (n == cp.TopCount && col.Values[i].Str() < cp.Top) {
				cp.Top = col.Values[i].Str()
				cp.TopCount = n
			}
		}
	}

	return cp
}
