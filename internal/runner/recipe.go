package runner

import (
	"strings"

	"github.com/viswalis/viswalis/pkg/config"
	"github.com/viswalis/viswalis/pkg/errors"
	"github.com/viswalis/viswalis/pkg/transform"
)

// Ops lists the recipe operation names Build accepts
func Ops() []string {
	return []string{
		transform.OpAutoClean,
		transform.OpDropEmptyRows,
		transform.OpDropDuplicates,
		transform.OpDropColumn,
		transform.OpHandleMissing,
		transform.OpRemoveOutliers,
		transform.OpTrimWhitespace,
		transform.OpCoerceNumeric,
		transform.OpStandardizeNames,
	}
}

// Build turns recipe steps into operations. Only the op name is checked
// here; bad parameters surface as failed results when the operation runs.
func Build(steps []config.Step) ([]transform.Operation, error) {
	ops := make([]transform.Operation, 0, len(steps))
	for i, s := range steps {
		built, err := buildStep(s)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeConfig, "invalid recipe step %d", i).
				WithDetail("step", i).
				WithDetail("op", s.Op)
		}
		ops = append(ops, built...)
	}
	return ops, nil
}

func buildStep(s config.Step) ([]transform.Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s.Op)) {
	case transform.OpHandleMissing:
		return one(transform.Missing(transform.MissingOptions{
			Strategy:     transform.Strategy(strings.ToLower(strings.TrimSpace(s.Strategy))),
			TargetColumn: s.TargetColumn,
			FillValue:    s.FillValue,
		}))
	case transform.OpDropDuplicates:
		return one(transform.Dedup())
	case transform.OpRemoveOutliers:
		return one(transform.Outliers(s.Columns...))
	case transform.OpStandardizeNames:
		c, ok := transform.ParseCase(s.Case)
		if !ok {
			// passed through so the operation reports InvalidStrategy
			c = transform.Case(s.Case)
		}
		return one(transform.Names(transform.NameOptions{Case: c, Find: s.Find, Replace: s.Replace}))
	case transform.OpDropColumn:
		names := s.Columns
		if s.Column != "" {
			names = append([]string{s.Column}, names...)
		}
		if len(names) == 0 {
			return one(transform.Drop(""))
		}
		ops := make([]transform.Operation, len(names))
		for i, name := range names {
			ops[i] = transform.Drop(name)
		}
		return ops, nil
	case transform.OpCoerceNumeric:
		return one(transform.Coerce(s.Columns...))
	case transform.OpTrimWhitespace:
		return one(transform.Trim())
	case transform.OpDropEmptyRows:
		return one(transform.EmptyRows())
	case transform.OpAutoClean:
		return one(transform.Auto())
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown operation %q", s.Op).
			WithDetail("supported", Ops())
	}
}

func one(op transform.Operation) ([]transform.Operation, error) {
	return []transform.Operation{op}, nil
}

// FlagOptions is the recipe expressed as command line flags
type FlagOptions struct {
	Auto       bool
	DropEmpty  bool
	Dedup      bool
	Drop       []string
	Strategy   string
	FillColumn string
	FillValue  string
	Outliers   []string
	Trim       bool
	Coerce     []string
	Case       string
	Find       string
	Replace    string
}

// StepsFromFlags orders flag-selected operations. Renaming runs last so the
// other flags name columns as they appear in the input.
func StepsFromFlags(o FlagOptions) []config.Step {
	var steps []config.Step
	if o.Auto {
		steps = append(steps, config.Step{Op: transform.OpAutoClean})
	}
	if o.DropEmpty {
		steps = append(steps, config.Step{Op: transform.OpDropEmptyRows})
	}
	if o.Dedup {
		steps = append(steps, config.Step{Op: transform.OpDropDuplicates})
	}
	for _, name := range o.Drop {
		steps = append(steps, config.Step{Op: transform.OpDropColumn, Column: name})
	}
	if o.Strategy != "" {
		steps = append(steps, config.Step{
			Op:           transform.OpHandleMissing,
			Strategy:     o.Strategy,
			TargetColumn: o.FillColumn,
			FillValue:    o.FillValue,
		})
	}
	if len(o.Outliers) > 0 {
		steps = append(steps, config.Step{Op: transform.OpRemoveOutliers, Columns: o.Outliers})
	}
	if o.Trim {
		steps = append(steps, config.Step{Op: transform.OpTrimWhitespace})
	}
	if len(o.Coerce) > 0 {
		steps = append(steps, config.Step{Op: transform.OpCoerceNumeric, Columns: o.Coerce})
	}
	if o.Case != "" || o.Find != "" {
		steps = append(steps, config.Step{
			Op:      transform.OpStandardizeNames,
			Case:    o.Case,
			Find:    o.Find,
			Replace: o.Replace,
		})
	}
	return steps
}
