// Package pipeline holds the Cleaner, the session-scoped owner of the
// working dataset.
//
// A Cleaner starts from one loaded dataset and replaces it with the output
// of each operation applied to it. Operations either succeed and swap the
// working dataset, or fail and leave it exactly as it was; every call is
// recorded as a Result so failures are reported rather than swallowed.
//
//	c := pipeline.NewCleaner(ds, pipeline.WithSource("people.csv"))
//	c.HandleMissing(transform.MissingOptions{Strategy: transform.StrategyMean}).
//		DropDuplicates().
//		RemoveOutliers("age")
//	for _, err := range c.Errors() {
//		...
//	}
//	cleaned := c.CleanedData()
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/viswalis/viswalis/pkg/dataset"
	"github.com/viswalis/viswalis/pkg/errors"
	"github.com/viswalis/viswalis/pkg/logger"
	"github.com/viswalis/viswalis/pkg/metrics"
	"github.com/viswalis/viswalis/pkg/observability"
	"github.com/viswalis/viswalis/pkg/transform"
)

// Result records the outcome of one operation
type Result struct {
	Operation string            `json:"operation"`
	Params    string            `json:"params,omitempty"`
	Report    *transform.Report `json:"report,omitempty"`
	// Err is set when the operation failed and the dataset was kept
	Err error `json:"-"`
	// Warning is a non-fatal condition, currently only coercion fallback
	Warning  error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// OK reports whether the operation succeeded
func (r Result) OK() bool { return r.Err == nil }

// Option configures a Cleaner
type Option func(*Cleaner)

// WithLogger sets the logger. The default is logger.Get().
func WithLogger(l *zap.Logger) Option {
	return func(c *Cleaner) { c.logger = l }
}

// WithSessionID overrides the generated session ID
func WithSessionID(id string) Option {
	return func(c *Cleaner) { c.sessionID = id }
}

// WithSource names the input the dataset was loaded from, for logs
func WithSource(source string) Option {
	return func(c *Cleaner) { c.source = source }
}

// WithContext sets the context used by the chain methods
func WithContext(ctx context.Context) Option {
	return func(c *Cleaner) { c.ctx = ctx }
}

// Cleaner owns one working dataset for the length of a session. Its methods
// serialize on an internal mutex; the held dataset is only ever replaced
// whole.
type Cleaner struct {
	mu        sync.Mutex
	working   *dataset.Dataset
	sessionID string
	source    string
	ctx       context.Context
	logger    *zap.Logger
	session   *metrics.Session
	results   []Result
}

// NewCleaner creates a Cleaner holding ds
func NewCleaner(ds *dataset.Dataset, opts ...Option) *Cleaner {
	c := &Cleaner{
		working: ds,
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	if c.logger == nil {
		c.logger = logger.Get()
	}
	c.session = metrics.NewSession(c.sessionID)

	c.logger.Info("cleaning session started",
		zap.String("session_id", c.sessionID),
		zap.String("source", c.source),
		zap.Int("rows", ds.NumRows()),
		zap.Int("columns", ds.NumColumns()))

	return c
}

// SessionID returns the session identifier
func (c *Cleaner) SessionID() string { return c.sessionID }

// Apply runs op against the working dataset. On success the working dataset
// is replaced by op's output; on failure it is left untouched. The outcome is
// appended to Results either way. Apply returns c for chaining.
func (c *Cleaner) Apply(ctx context.Context, op transform.Operation) *Cleaner {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ctx == nil {
		ctx = c.ctx
	}
	ctx = logger.ContextWith(ctx, logger.SessionIDKey, c.sessionID)
	ctx = logger.ContextWith(ctx, logger.OperationKey, op.Name())
	if c.source != "" {
		ctx = logger.ContextWith(ctx, logger.SourceKey, c.source)
	}
	log := c.logger.With(
		zap.String("session_id", c.sessionID),
		zap.String("operation", op.Name()),
		zap.String("source", c.source))

	ctx, span := observability.StartSpan(ctx, op.Name())
	defer span.End()
	span.SetAttribute("session.id", c.sessionID)
	span.SetAttribute("rows.before", c.working.NumRows())

	result := Result{Operation: op.Name()}
	if s, ok := op.(fmt.Stringer); ok {
		result.Params = s.String()
	}

	timer := metrics.NewTimer(op.Name())
	out, report, err := c.run(op)
	result.Duration = timer.Stop()

	c.session.Observe(op.Name(), report, err, result.Duration)
	span.RecordError(err)

	if err != nil {
		result.Err = err
		c.results = append(c.results, result)
		log.Error("operation failed, dataset unchanged",
			zap.String("params", result.Params),
			zap.String("error_type", string(errors.TypeOf(err))),
			zap.Error(err))
		return c
	}

	c.working = out
	result.Report = report
	span.SetAttribute("rows.after", report.RowsAfter)

	if report.CoercedCells > 0 {
		result.Warning = errors.Newf(errors.ErrorTypeCoercionFallback,
			"%d value(s) could not be parsed as numbers and were replaced with 0", report.CoercedCells).
			WithDetail("cells", report.CoercedCells).
			WithDetail("columns", report.CoercedByColumn)
		span.AddEvent("coercion_fallback")
		log.Warn("numeric coercion fell back to zero",
			zap.Int("cells", report.CoercedCells),
			zap.Any("columns", report.CoercedByColumn))
	}

	c.results = append(c.results, result)
	log.Info("operation applied",
		zap.String("params", result.Params),
		zap.Int("rows_before", report.RowsBefore),
		zap.Int("rows_after", report.RowsAfter),
		zap.Int("columns_after", report.ColumnsAfter),
		zap.Duration("duration", result.Duration))
	return c
}

// run applies op, turning a panic or a nil output into an Internal error
func (c *Cleaner) run(op transform.Operation) (out *dataset.Dataset, report *transform.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, report = nil, nil
			err = errors.Newf(errors.ErrorTypeInternal, "operation %s panicked: %v", op.Name(), r)
		}
	}()

	out, report, err = op.Apply(c.working)
	if err != nil {
		var typed *errors.Error
		if !errors.As(err, &typed) {
			err = errors.Wrap(err, errors.ErrorTypeInternal, "operation "+op.Name()+" failed")
		}
		return nil, nil, err
	}
	if out == nil || report == nil {
		return nil, nil, errors.Newf(errors.ErrorTypeInternal, "operation %s returned no dataset", op.Name())
	}
	return out, report, nil
}

// HandleMissing applies transform.HandleMissing
func (c *Cleaner) HandleMissing(opts transform.MissingOptions) *Cleaner {
	return c.Apply(c.ctx, transform.Missing(opts))
}

// DropDuplicates applies transform.DropDuplicates
func (c *Cleaner) DropDuplicates() *Cleaner {
	return c.Apply(c.ctx, transform.Dedup())
}

// RemoveOutliers applies transform.RemoveOutliers
func (c *Cleaner) RemoveOutliers(columns ...string) *Cleaner {
	return c.Apply(c.ctx, transform.Outliers(columns...))
}

// StandardizeNames applies transform.StandardizeNames
func (c *Cleaner) StandardizeNames(opts transform.NameOptions) *Cleaner {
	return c.Apply(c.ctx, transform.Names(opts))
}

// DropColumn applies transform.DropColumn
func (c *Cleaner) DropColumn(name string) *Cleaner {
	return c.Apply(c.ctx, transform.Drop(name))
}

// CoerceNumeric applies transform.CoerceNumeric
func (c *Cleaner) CoerceNumeric(columns ...string) *Cleaner {
	return c.Apply(c.ctx, transform.Coerce(columns...))
}

// TrimWhitespace applies transform.TrimWhitespace
func (c *Cleaner) TrimWhitespace() *Cleaner {
	return c.Apply(c.ctx, transform.Trim())
}

// DropEmptyRows applies transform.DropEmptyRows
func (c *Cleaner) DropEmptyRows() *Cleaner {
	return c.Apply(c.ctx, transform.EmptyRows())
}

// AutoClean applies transform.AutoClean
func (c *Cleaner) AutoClean() *Cleaner {
	return c.Apply(c.ctx, transform.Auto())
}

// CleanedData returns a deep copy of the working dataset
func (c *Cleaner) CleanedData() *dataset.Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.working.Clone()
}

// Results returns every recorded outcome in call order
func (c *Cleaner) Results() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Result, len(c.results))
	copy(out, c.results)
	return out
}

// LastResult returns the most recent outcome. ok is false before the first call.
func (c *Cleaner) LastResult() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.results) == 0 {
		return Result{}, false
	}
	return c.results[len(c.results)-1], true
}

// Err returns the error of the most recent call, or nil
func (c *Cleaner) Err() error {
	r, ok := c.LastResult()
	if !ok {
		return nil
	}
	return r.Err
}

// Errors returns the errors of every failed call in order
func (c *Cleaner) Errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for _, r := range c.results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}

// Warnings returns the warnings of every successful call in order
func (c *Cleaner) Warnings() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var warnings []error
	for _, r := range c.results {
		if r.Warning != nil {
			warnings = append(warnings, r.Warning)
		}
	}
	return warnings
}

// Summary returns the session totals
func (c *Cleaner) Summary() map[string]interface{} {
	return c.session.Summary()
}
