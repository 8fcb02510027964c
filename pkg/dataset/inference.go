package dataset

import (
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cast"
)

const defaultRenderLayout = "2006-01-02T15:04:05Z07:00"

// DefaultMissingMarkers returns the cell texts treated as missing on load.
// The list matches what pandas.read_csv recognizes by default.
func DefaultMissingMarkers() []string {
	return []string{
		"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
		"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
		"n/a", "nan", "null",
	}
}

// timeFormat pairs a cheap shape check with the layout that parses it
type timeFormat struct {
	pattern *regexp.Regexp
	layout  string
}

var defaultTimeFormats = []timeFormat{
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`), time.RFC3339Nano},
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}$`), "2006-01-02T15:04:05"},
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`), "2006-01-02 15:04:05"},
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}$`), "2006-01-02 15:04"},
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), "2006-01-02"},
	{regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`), "2006/01/02"},
	{regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`), "01/02/2006"},
	{regexp.MustCompile(`^\d{2}-[A-Za-z]{3}-\d{4}$`), "02-Jan-2006"},
}

// DefaultTimeLayouts returns the layouts tried, in order, when detecting
// temporal columns.
func DefaultTimeLayouts() []string {
	layouts := make([]string, len(defaultTimeFormats))
	for i, f := range defaultTimeFormats {
		layouts[i] = f.layout
	}
	return layouts
}

// InferenceOptions controls how raw CSV text is typed
type InferenceOptions struct {
	// MissingMarkers are exact cell texts read as null
	MissingMarkers []string
	// TimeLayouts are tried in order; a column is temporal when one layout
	// parses every non-missing cell. Empty means DefaultTimeLayouts.
	TimeLayouts []string
}

// Inferrer assigns a ColumnType to raw text columns and converts their cells
type Inferrer struct {
	missing map[string]struct{}
	formats []timeFormat
}

// NewInferrer creates an inferrer. A nil MissingMarkers slice selects the defaults.
func NewInferrer(opts InferenceOptions) *Inferrer {
	markers := opts.MissingMarkers
	if markers == nil {
		markers = DefaultMissingMarkers()
	}
	missing := make(map[string]struct{}, len(markers))
	for _, m := range markers {
		missing[m] = struct{}{}
	}

	formats := defaultTimeFormats
	if len(opts.TimeLayouts) > 0 {
		formats = make([]timeFormat, 0, len(opts.TimeLayouts))
		for _, layout := range opts.TimeLayouts {
			formats = append(formats, timeFormat{layout: layout})
		}
	}

	return &Inferrer{missing: missing, formats: formats}
}

// IsMissing reports whether raw is one of the configured missing markers
func (in *Inferrer) IsMissing(raw string) bool {
	_, ok := in.missing[raw]
	return ok
}

// ParseNumber parses a cell as a float using the same rules as inference
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseTime parses a cell with layout
func ParseTime(raw, layout string) (time.Time, bool) {
	t, err := time.Parse(layout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// InferColumn types a raw column: Numeric if every non-missing cell parses
// as a number, Temporal if one layout parses every non-missing cell,
// Text otherwise. A column with no non-missing cells is Text.
func (in *Inferrer) InferColumn(name string, raw []string) *Column {
	present := 0
	numeric := true
	for _, s := range raw {
		if in.IsMissing(s) {
			continue
		}
		present++
		if numeric {
			if _, ok := ParseNumber(s); !ok {
				numeric = false
			}
		}
	}

	if present == 0 {
		return in.textColumn(name, raw)
	}

	if numeric {
		values := make([]Value, len(raw))
		for i, s := range raw {
			if in.IsMissing(s) {
				continue
			}
			f, _ := ParseNumber(s)
			values[i] = NumberValue(f)
		}
		return &Column{Name: name, Type: Numeric, Values: values}
	}

	if layout, ok := in.detectLayout(raw); ok {
		values := make([]Value, len(raw))
		for i, s := range raw {
			if in.IsMissing(s) {
				continue
			}
			t, _ := ParseTime(s, layout)
			values[i] = TimeValue(t)
		}
		return &Column{Name: name, Type: Temporal, Layout: layout, Values: values}
	}

	return in.textColumn(name, raw)
}

func (in *Inferrer) textColumn(name string, raw []string) *Column {
	values := make([]Value, len(raw))
	for i, s := range raw {
		if !in.IsMissing(s) {
			values[i] = TextValue(s)
		}
	}
	return &Column{Name: name, Type: Text, Values: values}
}

// detectLayout returns the first layout that parses every non-missing cell
func (in *Inferrer) detectLayout(raw []string) (string, bool) {
	for _, f := range in.formats {
		ok := true
		for _, s := range raw {
			if in.IsMissing(s) {
				continue
			}
			trimmed := strings.TrimSpace(s)
			if f.pattern != nil && !f.pattern.MatchString(trimmed) {
				ok = false
				break
			}
			if _, parsed := ParseTime(trimmed, f.layout); !parsed {
				ok = false
				break
			}
		}
		if ok {
			return f.layout, true
		}
	}
	return "", false
}
