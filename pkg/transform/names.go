package transform

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/viswalis/viswalis/pkg/dataset"
	"github.com/viswalis/viswalis/pkg/errors"
)

// Case selects the case transform applied to column names
type Case string

const (
	CaseNone     Case = "none"
	CaseLower    Case = "lowercase"
	CaseUpper    Case = "uppercase"
	CaseTitle    Case = "title"
	CaseSentence Case = "sentence"
)

// ParseCase accepts the canonical names plus the short and spaced aliases
// users tend to type ("lower", "Sentence case").
func ParseCase(s string) (Case, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CaseNone, true
	case "lowercase", "lower":
		return CaseLower, true
	case "uppercase", "upper":
		return CaseUpper, true
	case "title", "title case":
		return CaseTitle, true
	case "sentence", "sentence case":
		return CaseSentence, true
	}
	return "", false
}

// NameOptions parameterizes StandardizeNames
type NameOptions struct {
	Case Case `yaml:"case" json:"case"`
	// Find is replaced literally by Replace in every name; skipped when empty
	Find    string `yaml:"find" json:"find,omitempty"`
	Replace string `yaml:"replace" json:"replace,omitempty"`
}

// StandardizeNames trims every column name, applies the case transform and
// then the literal replacement. All names change together or not at all: a
// rename that makes two names equal fails with DuplicateColumn.
func StandardizeNames(ds *dataset.Dataset, opts NameOptions) (*dataset.Dataset, *Report, error) {
	c, ok := ParseCase(string(opts.Case))
	if !ok {
		return nil, nil, errors.Newf(errors.ErrorTypeInvalidStrategy, "unknown case %q", opts.Case).
			WithDetail("case", string(opts.Case)).
			WithDetail("supported", []Case{CaseLower, CaseUpper, CaseTitle, CaseSentence, CaseNone})
	}

	report := newReport(OpStandardizeNames, ds)
	report.Renamed = make(map[string]string)

	names := ds.ColumnNames()
	for i, name := range names {
		out := applyCase(strings.TrimSpace(name), c)
		if opts.Find != "" {
			out = strings.ReplaceAll(out, opts.Find, opts.Replace)
		}
		if out != name {
			report.Renamed[name] = out
		}
		names[i] = out
	}

	out, err := ds.Rename(names)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeDuplicateColumn) {
			return nil, nil, errors.Wrap(err, errors.ErrorTypeDuplicateColumn, "standardized names collide").
				WithDetail("names", names)
		}
		return nil, nil, err
	}
	return out, report.finish(out), nil
}

func applyCase(s string, c Case) string {
	switch c {
	case CaseLower:
		return cases.Lower(language.Und).String(s)
	case CaseUpper:
		return cases.Upper(language.Und).String(s)
	case CaseTitle:
		return cases.Title(language.Und).String(s)
	case CaseSentence:
		lower := cases.Lower(language.Und).String(s)
		r, size := utf8.DecodeRuneInString(lower)
		if r == utf8.RuneError {
			return lower
		}
		return string(unicode.ToUpper(r)) + lower[size:]
	default:
		return s
	}
}

// DropColumn removes exactly one column
func DropColumn(ds *dataset.Dataset, name string) (*dataset.Dataset, *Report, error) {
	if name == "" {
		return nil, nil, errors.New(errors.ErrorTypeMissingParameter, "drop_column requires a column name")
	}
	report := newReport(OpDropColumn, ds)
	out, err := ds.DropColumn(name)
	if err != nil {
		return nil, nil, err
	}
	return out, report.finish(out), nil
}
